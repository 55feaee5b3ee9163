// Package services – CompoundService
//
// This file implements CompoundService, the application-level component that
// mediates between the PDBe fetcher and the local cache. It normalises and
// validates compound codes, performs paced upstream fetches, and persists
// summaries through the repo package.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the compound code where one applies.
package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/compound-data-tool/internal/domain"
	"github.com/tbourn/compound-data-tool/internal/pdbe"
	"github.com/tbourn/compound-data-tool/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CompoundService coordinates fetching and caching of compound summaries.
type CompoundService struct {
	DB *gorm.DB
	// Fetcher is expected to be paced (see pdbe.NewPaced).
	Fetcher pdbe.Fetcher
	Log     zerolog.Logger
}

// RefreshReport summarises one Refresh run.
type RefreshReport struct {
	Refreshed []string
	Failed    map[string]error
}

func unsupported(code string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedCompound, code)
}

func span(ctx context.Context, name, code string) (context.Context, trace.Span) {
	tr := otel.Tracer("services/CompoundService")
	opts := []trace.SpanStartOption{}
	if code != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("compound", code)))
	}
	return tr.Start(ctx, name, opts...)
}

// Fetch normalises and validates code, then downloads and extracts its
// summary. A payload keyed by any other code is malformed. The cache is not
// touched.
func (s *CompoundService) Fetch(ctx context.Context, code string) (*domain.CompoundSummary, error) {
	code = domain.NormalizeCode(code)
	ctx, sp := span(ctx, "Fetch", code)
	defer sp.End()

	if !domain.IsSupported(code) {
		return nil, unsupported(code)
	}

	raw, err := s.Fetcher.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	rec, err := pdbe.Extract(raw)
	if err != nil {
		s.Log.Error().Err(err).Str("compound", code).Msg("cannot extract compound summary")
		return nil, err
	}
	if rec.Compound != code {
		err := fmt.Errorf("%w: echoed %s for %s", pdbe.ErrMalformedResponse, rec.Compound, code)
		s.Log.Error().Err(err).Str("compound", code).Msg("upstream echoed a different code")
		return nil, err
	}
	s.Log.Debug().Str("compound", rec.Compound).Int("cross_links_count", rec.CrossLinksCount).Msg("compound summary extracted")
	return rec, nil
}

// Save upserts rec into the cache.
func (s *CompoundService) Save(ctx context.Context, rec *domain.CompoundSummary) error {
	ctx, sp := span(ctx, "Save", rec.Compound)
	defer sp.End()

	if err := repo.SaveCompound(ctx, s.DB, rec); err != nil {
		return err
	}
	s.Log.Info().Str("compound", rec.Compound).Time("updated", rec.Updated).Msg("compound summary saved")
	return nil
}

// Actualize fetches code and stores the result. Nothing is written when the
// fetch or the extraction fails.
func (s *CompoundService) Actualize(ctx context.Context, code string) (*domain.CompoundSummary, error) {
	rec, err := s.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Show returns the cached summary for code. A supported code that was never
// actualized yields ErrCompoundNotFound.
func (s *CompoundService) Show(ctx context.Context, code string) (*domain.CompoundSummary, error) {
	code = domain.NormalizeCode(code)
	ctx, sp := span(ctx, "Show", code)
	defer sp.End()

	if !domain.IsSupported(code) {
		return nil, unsupported(code)
	}
	rec, err := repo.GetCompound(ctx, s.DB, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCompoundNotFound, code)
	}
	return rec, err
}

// List enumerates the cached compounds lazily.
func (s *CompoundService) List(ctx context.Context) iter.Seq2[domain.Stamp, error] {
	return repo.ListCompounds(ctx, s.DB)
}

// Stats reports the number of cached compounds and the latest update time.
func (s *CompoundService) Stats(ctx context.Context) (int64, *time.Time, error) {
	ctx, sp := span(ctx, "Stats", "")
	defer sp.End()
	return repo.CacheStats(ctx, s.DB)
}

// Remove deletes the cached summary for code and reports how many rows were
// removed.
func (s *CompoundService) Remove(ctx context.Context, code string) (int64, error) {
	code = domain.NormalizeCode(code)
	ctx, sp := span(ctx, "Remove", code)
	defer sp.End()

	if !domain.IsSupported(code) {
		return 0, unsupported(code)
	}
	n, err := repo.RemoveCompound(ctx, s.DB, code)
	if err != nil {
		return 0, err
	}
	s.Log.Info().Str("compound", code).Int64("removed", n).Msg("compound summary removed")
	return n, nil
}

// Supported returns the allow-list in display order.
func (s *CompoundService) Supported() []string {
	return domain.SupportedCompounds()
}

// Refresh actualizes every cached compound once. Codes are collected before
// the first fetch so no cursor stays open across upstream calls. A failing
// compound is recorded and skipped; a store failure or a cancelled context
// stops the run and is returned together with the partial report.
func (s *CompoundService) Refresh(ctx context.Context) (RefreshReport, error) {
	ctx, sp := span(ctx, "Refresh", "")
	defer sp.End()

	report := RefreshReport{Failed: map[string]error{}}

	var codes []string
	for st, err := range s.List(ctx) {
		if err != nil {
			return report, err
		}
		codes = append(codes, st.Compound)
	}
	sp.SetAttributes(attribute.Int("compounds", len(codes)))

	for _, code := range codes {
		if _, err := s.Actualize(ctx, code); err != nil {
			if errors.Is(err, repo.ErrStoreUnavailable) || ctx.Err() != nil {
				return report, err
			}
			s.Log.Warn().Err(err).Str("compound", code).Msg("refresh failed")
			report.Failed[code] = err
			continue
		}
		report.Refreshed = append(report.Refreshed, code)
	}

	s.Log.Info().
		Int("refreshed", len(report.Refreshed)).
		Int("failed", len(report.Failed)).
		Msg("refresh finished")
	return report, nil
}
