package http

import (
	"context"
	"fmt"
	"log/slog"

	"stockflow/internal/cache"
	"stockflow/internal/core"
)

// cached returns the value under key, computing it at most once across
// concurrent callers. A fill that started before a purge is neither stored
// nor shared with callers that arrive after it.
func cached[T any](ctx context.Context, s *Server, c *cache.LRUCache[T], key string, compute func(context.Context) (T, error)) (T, error) {
	s.syncDataVersion(ctx)
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	gen := c.Generation()

	res, err, shared := s.fills.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		v, err := compute(fillCtx)
		if err != nil {
			return v, err
		}
		if !c.SetIfGeneration(gen, key, v) {
			slog.DebugContext(ctx, "Discarded stale aggregate", "key", key)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		slog.DebugContext(ctx, "Shared aggregate fill", "key", key)
	}
	return res.(T), nil
}

func (s *Server) getSummary(ctx context.Context) (core.Summary, error) {
	return cached(ctx, s, s.summaryCache, "summary", s.svc.Summary)
}

func (s *Server) getCashflow(ctx context.Context, g core.Granularity) ([]core.CashflowBucket, error) {
	return cached(ctx, s, s.cashflowCache, fmt.Sprintf("cashflow:%s", g),
		func(ctx context.Context) ([]core.CashflowBucket, error) {
			return s.svc.Cashflow(ctx, g)
		})
}

func (s *Server) getCategories(ctx context.Context, period string) ([]core.CategoryBucket, error) {
	return cached(ctx, s, s.categoryCache, "categories:"+period,
		func(ctx context.Context) ([]core.CategoryBucket, error) {
			return s.svc.Categories(ctx, period)
		})
}

func (s *Server) getPeriods(ctx context.Context, g core.Granularity) ([]string, error) {
	return cached(ctx, s, s.periodCache, fmt.Sprintf("periods:%s", g),
		func(ctx context.Context) ([]string, error) {
			return s.svc.Periods(ctx, g)
		})
}

// syncDataVersion purges the caches when the store changed since the last
// check, which covers writes made by other processes on the same database.
func (s *Server) syncDataVersion(ctx context.Context) {
	v, ok, err := s.svc.DataVersion(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read data version, dropping cached aggregates", "error", err)
		s.invalidate()
		return
	}
	if !ok {
		return
	}
	// Stored as v+1 so zero means no version seen yet.
	if prev := s.dataVersion.Swap(v + 1); prev != v+1 {
		s.invalidate()
	}
}

// invalidate drops every cached aggregate after a write.
func (s *Server) invalidate() {
	s.summaryCache.Purge()
	s.cashflowCache.Purge()
	s.categoryCache.Purge()
	s.periodCache.Purge()
}
