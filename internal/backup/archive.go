// Package backup snapshots the compound cache into a gzipped JSON archive
// and ships it to S3 compatible object storage, rotating old archives.
package backup

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tbourn/compound-data-tool/internal/domain"
)

// FormatVersion is written into every archive.
const FormatVersion = 1

// keyStem prefixes every archive name; rotation only touches keys with it.
const keyStem = "cdt-backup-"

// Archive is the document stored in a backup.
type Archive struct {
	Version   int                      `json:"version"`
	CreatedAt time.Time                `json:"created_at"`
	Compounds []domain.CompoundSummary `json:"compounds"`
}

// Key names the archive taken at t. Keys sort chronologically.
func Key(prefix string, t time.Time) string {
	return prefix + keyStem + t.UTC().Format("2006-01-02T15-04-05Z") + ".json.gz"
}

// Encode writes a as gzipped JSON.
func Encode(w io.Writer, a Archive) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(a); err != nil {
		_ = gz.Close()
		return fmt.Errorf("encode archive: %w", err)
	}
	return gz.Close()
}

// Decode reads an archive written by Encode.
func Decode(r io.Reader) (Archive, error) {
	var a Archive
	gz, err := gzip.NewReader(r)
	if err != nil {
		return a, fmt.Errorf("decode archive: %w", err)
	}
	defer gz.Close()
	if err := json.NewDecoder(gz).Decode(&a); err != nil {
		return a, fmt.Errorf("decode archive: %w", err)
	}
	return a, nil
}
