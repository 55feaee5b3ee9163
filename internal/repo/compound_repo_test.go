package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/compound-data-tool/internal/domain"
)

func newCompoundDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// withClock replaces nowFunc with a clock that advances one second per call.
func withClock(t *testing.T, start time.Time) {
	t.Helper()
	orig := nowFunc
	next := start
	nowFunc = func() time.Time {
		ts := next
		next = next.Add(time.Second)
		return ts
	}
	t.Cleanup(func() { nowFunc = orig })
}

func atp() *domain.CompoundSummary {
	return &domain.CompoundSummary{
		Compound:        "ATP",
		Name:            "ADENOSINE-5'-TRIPHOSPHATE",
		Formula:         "C10 H16 N5 O13 P3",
		InChI:           "InChI=1S/C10H16N5O13P3",
		InChIKey:        "ZKHQWZAMYRWXGA-KQYNXXCUSA-N",
		SMILES:          "c1nc(c2c(n1)n(cn2)",
		CrossLinksCount: 22,
	}
}

func collect(t *testing.T, db *gorm.DB) []domain.Stamp {
	t.Helper()
	var out []domain.Stamp
	for s, err := range ListCompounds(context.Background(), db) {
		if err != nil {
			t.Fatalf("ListCompounds: %v", err)
		}
		out = append(out, s)
	}
	return out
}

func TestSaveCompound_InsertsAndStampsUpdated(t *testing.T) {
	db := newCompoundDB(t, true)
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 678000, time.UTC)
	withClock(t, t0)

	rec := atp()
	rec.Compound = "  atp "
	rec.Updated = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC) // must be ignored
	if err := SaveCompound(context.Background(), db, rec); err != nil {
		t.Fatalf("SaveCompound: %v", err)
	}
	if rec.Compound != "ATP" || !rec.Updated.Equal(t0) {
		t.Fatalf("save did not normalise/stamp: %+v", rec)
	}

	got, err := GetCompound(context.Background(), db, "atp")
	if err != nil {
		t.Fatalf("GetCompound: %v", err)
	}
	want := atp()
	want.Updated = t0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetCompound mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveCompound_UpsertOverwritesAndAdvancesUpdated(t *testing.T) {
	db := newCompoundDB(t, true)
	t0 := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	withClock(t, t0)
	ctx := context.Background()

	if err := SaveCompound(ctx, db, atp()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := atp()
	second.Name = "renamed"
	second.CrossLinksCount = 3
	if err := SaveCompound(ctx, db, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var n int64
	if err := db.Model(&domain.CompoundSummary{}).Where("compound = ?", "ATP").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one row for ATP, got %d", n)
	}

	got, err := GetCompound(ctx, db, "ATP")
	if err != nil {
		t.Fatalf("GetCompound: %v", err)
	}
	if got.Name != "renamed" || got.CrossLinksCount != 3 {
		t.Fatalf("second save did not win: %+v", got)
	}
	if !got.Updated.After(t0) {
		t.Fatalf("updated did not advance: %v (first %v)", got.Updated, t0)
	}
}

func TestGetCompound_NotFound(t *testing.T) {
	db := newCompoundDB(t, true)
	got, err := GetCompound(context.Background(), db, "ADP")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("not found must not be reported as store unavailable")
	}
	if got != nil {
		t.Fatalf("expected nil summary, got %+v", got)
	}
}

func TestStoreErrors_NoTable(t *testing.T) {
	db := newCompoundDB(t /* no migrations */, false)
	ctx := context.Background()

	if err := SaveCompound(ctx, db, atp()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("SaveCompound err = %v; want ErrStoreUnavailable", err)
	}
	if _, err := GetCompound(ctx, db, "ATP"); !errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCompound err = %v; want ErrStoreUnavailable only", err)
	}
	if _, err := RemoveCompound(ctx, db, "ATP"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("RemoveCompound err = %v; want ErrStoreUnavailable", err)
	}
	if _, err := DumpCompounds(ctx, db); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("DumpCompounds err = %v; want ErrStoreUnavailable", err)
	}

	var errs int
	for _, err := range ListCompounds(ctx, db) {
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("ListCompounds err = %v; want ErrStoreUnavailable", err)
		}
		errs++
	}
	if errs != 1 {
		t.Fatalf("expected a single error element, got %d", errs)
	}
}

func TestListCompounds_EmptyYieldsNothing(t *testing.T) {
	db := newCompoundDB(t, true)
	if got := collect(t, db); len(got) != 0 {
		t.Fatalf("expected no stamps, got %+v", got)
	}
}

func TestListCompounds_AllRowsAndEarlyBreak(t *testing.T) {
	db := newCompoundDB(t, true)
	t0 := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	withClock(t, t0)
	ctx := context.Background()

	for _, code := range []string{"ADP", "ATP", "STI"} {
		rec := atp()
		rec.Compound = code
		if err := SaveCompound(ctx, db, rec); err != nil {
			t.Fatalf("save %s: %v", code, err)
		}
	}

	got := map[string]time.Time{}
	for _, s := range collect(t, db) {
		got[s.Compound] = s.Updated
	}
	want := map[string]time.Time{
		"ADP": t0,
		"ATP": t0.Add(time.Second),
		"STI": t0.Add(2 * time.Second),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListCompounds mismatch (-want +got):\n%s", diff)
	}

	// Breaking out early must release the cursor so writes still succeed.
	for range ListCompounds(ctx, db) {
		break
	}
	if _, err := RemoveCompound(ctx, db, "STI"); err != nil {
		t.Fatalf("remove after early break: %v", err)
	}
	if n := len(collect(t, db)); n != 2 {
		t.Fatalf("expected 2 stamps after removal, got %d", n)
	}
}

func TestRemoveCompound_PresentThenAbsent(t *testing.T) {
	db := newCompoundDB(t, true)
	ctx := context.Background()
	if err := SaveCompound(ctx, db, atp()); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, err := RemoveCompound(ctx, db, " atp ")
	if err != nil || n != 1 {
		t.Fatalf("RemoveCompound(present) = %d, %v; want 1, nil", n, err)
	}
	if _, err := GetCompound(ctx, db, "ATP"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after remove err = %v; want ErrNotFound", err)
	}

	n, err = RemoveCompound(ctx, db, "ATP")
	if err != nil || n != 0 {
		t.Fatalf("RemoveCompound(absent) = %d, %v; want 0, nil", n, err)
	}
}

func TestDumpCompounds_OrderedFullRows(t *testing.T) {
	db := newCompoundDB(t, true)
	t0 := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	withClock(t, t0)
	ctx := context.Background()

	if got, err := DumpCompounds(ctx, db); err != nil || len(got) != 0 {
		t.Fatalf("DumpCompounds(empty) = %v, %v", got, err)
	}

	for _, code := range []string{"ZID", "ADP"} {
		rec := atp()
		rec.Compound = code
		if err := SaveCompound(ctx, db, rec); err != nil {
			t.Fatalf("save %s: %v", code, err)
		}
	}
	got, err := DumpCompounds(ctx, db)
	if err != nil {
		t.Fatalf("DumpCompounds: %v", err)
	}
	if len(got) != 2 || got[0].Compound != "ADP" || got[1].Compound != "ZID" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].SMILES != atp().SMILES || !got[0].Updated.Equal(t0.Add(time.Second)) {
		t.Fatalf("row not loaded in full: %+v", got[0])
	}
}
