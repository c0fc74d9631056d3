package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
)

// Query runs one lookup round trip without debouncing or session state.
// It never fails: a blank term or a backend error yields an empty list.
func (a *Aggregator) Query(ctx context.Context, term string) []models.SearchResult {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.SearchResult{}
	}

	results, err := a.lookup(ctx, term)
	if err != nil {
		a.log.Error("search failed", slog.String("term", term), slog.Any("err", err))
		return []models.SearchResult{}
	}
	return results
}

// lookup fans out one query per collection and joins them. Any failing
// collection fails the whole round trip.
func (a *Aggregator) lookup(ctx context.Context, term string) ([]models.SearchResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	slots := make([][]models.Record, len(models.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.Kinds {
		g.Go(func() error {
			recs, err := a.backend.Lookup(gctx, kind, term, a.limit)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", kind, err)
			}
			slots[i] = recs
			return nil
		})
	}

	err := g.Wait()
	a.metrics.ObserveRoundTrip(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	results := Merge(slots, a.limit)
	a.log.Debug("search done", slog.String("term", term), slog.Int("results", len(results)))
	return results, nil
}

// Merge projects each collection's records in the given order, skipping
// unpublished ones, and keeps the first limit results.
func Merge(slots [][]models.Record, limit int) []models.SearchResult {
	out := make([]models.SearchResult, 0, limit)
	for _, recs := range slots {
		for _, rec := range recs {
			if len(out) == limit {
				return out
			}
			if rec == nil || !rec.Published() {
				continue
			}
			out = append(out, rec.Result())
		}
	}
	return out
}
