package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/compound-data-tool/internal/domain"
	"github.com/tbourn/compound-data-tool/internal/observability"
)

// CacheStats returns the number of cached summaries and the most recent
// update time among them (nil when the cache is empty). The HTTP layer
// derives the listing ETag from it.
func CacheStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	defer func() { observability.ObserveStore("stats", err) }()

	if err = db.WithContext(ctx).Model(&domain.CompoundSummary{}).Count(&count).Error; err != nil {
		return 0, nil, unavailable("stats", err)
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order + Limit rather than MAX(): SQLite returns MAX() as TEXT.
	var row struct {
		Updated time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.CompoundSummary{}).
		Select("updated").
		Order("updated DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, unavailable("stats", err)
	}
	ts := row.Updated.UTC()
	return count, &ts, nil
}
