package backup

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/compound-data-tool/internal/repo"
)

// ObjectStore is the subset of an object storage API a backup needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Runner takes archives of the cache.
type Runner struct {
	DB     *gorm.DB
	Store  ObjectStore // required by Upload only
	Prefix string
	// Keep is the number of archives retained after an upload; 0 keeps all.
	Keep int
	Log  zerolog.Logger
	Now  func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Build snapshots every cached summary and returns the encoded archive
// together with the number of compounds it holds.
func (r *Runner) Build(ctx context.Context) ([]byte, int, error) {
	rows, err := repo.DumpCompounds(ctx, r.DB)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, Archive{Version: FormatVersion, CreatedAt: r.now(), Compounds: rows}); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(rows), nil
}

// Upload builds an archive, stores it under Key(Prefix, now) and rotates old
// archives. It returns the key written.
func (r *Runner) Upload(ctx context.Context) (string, error) {
	body, n, err := r.Build(ctx)
	if err != nil {
		return "", err
	}
	key := Key(r.Prefix, r.now())
	if err := r.Store.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	r.Log.Info().Str("key", key).Int("compounds", n).Int("bytes", len(body)).Msg("backup uploaded")

	if r.Keep > 0 {
		deleted, err := Rotate(ctx, r.Store, r.Prefix, r.Keep)
		if err != nil {
			return key, err
		}
		for _, k := range deleted {
			r.Log.Info().Str("key", k).Msg("old backup deleted")
		}
	}
	return key, nil
}

// Rotate deletes all but the keep newest archives under prefix and returns
// the deleted keys. Objects not named by Key are left alone.
func Rotate(ctx context.Context, store ObjectStore, prefix string, keep int) ([]string, error) {
	keys, err := store.Keys(ctx, prefix+keyStem)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var archives []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix+keyStem) && strings.HasSuffix(k, ".json.gz") {
			archives = append(archives, k)
		}
	}
	if len(archives) <= keep {
		return nil, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(archives)))

	var deleted []string
	for _, k := range archives[keep:] {
		if err := store.Delete(ctx, k); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", k, err)
		}
		deleted = append(deleted, k)
	}
	return deleted, nil
}
