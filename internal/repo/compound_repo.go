// Package repo implements the data persistence layer for compound summaries,
// backed by GORM. This file provides the cache operations on the
// compounds_summary table.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: persistence and query composition only,
// the allow-list and user messaging live in the services package.
//
// Error semantics:
//   - A missing compound is ErrNotFound (an alias of gorm.ErrRecordNotFound).
//     It is a business outcome and never wrapped in ErrStoreUnavailable.
//   - Every other database error (connectivity, commit, constraint) is
//     wrapped in ErrStoreUnavailable and keeps the raw gorm error as cause.
//
// Functions:
//
//   - SaveCompound(ctx, db, c) -> error
//     Upserts c keyed by compound and stamps Updated.
//
//   - GetCompound(ctx, db, code) -> *domain.CompoundSummary, error
//     Point lookup by normalised code.
//
//   - ListCompounds(ctx, db) -> iter.Seq2[domain.Stamp, error]
//     Lazily enumerates (code, updated) pairs, unordered.
//
//   - RemoveCompound(ctx, db, code) -> int64, error
//     Hard-deletes the row, returning the number of rows removed.
//
//   - DumpCompounds(ctx, db) -> []domain.CompoundSummary, error
//     Loads every row ordered by code, for backups.
package repo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/compound-data-tool/internal/domain"
	"github.com/tbourn/compound-data-tool/internal/observability"
)

// ErrNotFound is returned when a requested compound is not cached.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrStoreUnavailable wraps every infrastructure failure of the store.
var ErrStoreUnavailable = errors.New("compound store unavailable")

// nowFunc stamps Updated. Postgres keeps microseconds, so the value is
// truncated to make reads compare equal on every backend.
var nowFunc = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// SaveCompound inserts c or, when its compound already exists, overwrites
// every column of the existing row. Updated is always reset to the current
// time; any caller supplied value is discarded. The write is committed
// before SaveCompound returns.
func SaveCompound(ctx context.Context, db *gorm.DB, c *domain.CompoundSummary) error {
	c.Compound = domain.NormalizeCode(c.Compound)
	c.Updated = nowFunc()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "compound"}},
			UpdateAll: true,
		}).Create(c).Error
	})
	observability.ObserveStore("save", err)
	if err != nil {
		return unavailable("save "+c.Compound, err)
	}
	return nil
}

// GetCompound fetches the cached summary for code. If it is not cached,
// ErrNotFound is returned.
func GetCompound(ctx context.Context, db *gorm.DB, code string) (*domain.CompoundSummary, error) {
	var c domain.CompoundSummary
	err := db.WithContext(ctx).
		Where("compound = ?", domain.NormalizeCode(code)).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.ObserveStore("get", nil)
		return nil, ErrNotFound
	}
	observability.ObserveStore("get", err)
	if err != nil {
		return nil, unavailable("get "+code, err)
	}
	c.Updated = c.Updated.UTC()
	return &c, nil
}

// ListCompounds returns a single-use sequence over the identity and update
// time of every cached summary. The query runs when the sequence is ranged
// over and its rows are released however the loop ends. A failure is
// yielded once as the error element and ends the sequence.
func ListCompounds(ctx context.Context, db *gorm.DB) iter.Seq2[domain.Stamp, error] {
	return func(yield func(domain.Stamp, error) bool) {
		rows, err := db.WithContext(ctx).
			Model(&domain.CompoundSummary{}).
			Select("compound", "updated").
			Rows()
		if err != nil {
			observability.ObserveStore("list", err)
			yield(domain.Stamp{}, unavailable("list", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var s domain.Stamp
			if err := db.ScanRows(rows, &s); err != nil {
				observability.ObserveStore("list", err)
				yield(domain.Stamp{}, unavailable("list", err))
				return
			}
			s.Updated = s.Updated.UTC()
			if !yield(s, nil) {
				observability.ObserveStore("list", nil)
				return
			}
		}
		err = rows.Err()
		observability.ObserveStore("list", err)
		if err != nil {
			yield(domain.Stamp{}, unavailable("list", err))
		}
	}
}

// RemoveCompound deletes the cached summary for code and reports how many
// rows were removed (0 when it was not cached).
func RemoveCompound(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	code = domain.NormalizeCode(code)
	var n int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("compound = ?", code).Delete(&domain.CompoundSummary{})
		n = res.RowsAffected
		return res.Error
	})
	observability.ObserveStore("remove", err)
	if err != nil {
		return 0, unavailable("remove "+code, err)
	}
	return n, nil
}

// DumpCompounds loads every cached summary ordered by compound code.
func DumpCompounds(ctx context.Context, db *gorm.DB) ([]domain.CompoundSummary, error) {
	var out []domain.CompoundSummary
	err := db.WithContext(ctx).Order("compound ASC").Find(&out).Error
	observability.ObserveStore("dump", err)
	if err != nil {
		return nil, unavailable("dump", err)
	}
	for i := range out {
		out[i].Updated = out[i].Updated.UTC()
	}
	return out, nil
}
