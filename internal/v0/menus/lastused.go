package menus

import (
	"context"
	"strconv"
	"time"

	"MenuAPI/internal/logging"
	"MenuAPI/internal/metrics"
	"MenuAPI/internal/week"

	"golang.org/x/sync/singleflight"
)

// LabelCache stores computed last-used labels per target week.
type LabelCache interface {
	Get(ctx context.Context, week string) (labels map[int64]string, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, week string, labels map[int64]string) error
	Invalidate(ctx context.Context) error
}

// LastUsedService computes "last used" labels for a target week. Results are
// cached when a cache is configured; concurrent misses for the same week
// share one database query.
type LastUsedService struct {
	repo  *Repository
	cache LabelCache
	group singleflight.Group
}

// NewLastUsedService creates the service. cache may be nil.
func NewLastUsedService(repo *Repository, cache LabelCache) *LastUsedService {
	return &LastUsedService{repo: repo, cache: cache}
}

// Labels returns the label of every used dish relative to the week of target.
func (s *LastUsedService) Labels(ctx context.Context, target time.Time) (map[int64]string, error) {
	key := week.FormatISO(week.Start(target))

	// store only when the generation is known; -1 marks a failed cache read
	gen := int64(-1)
	if s.cache != nil {
		labels, g, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.LastUsedCacheTotal.WithLabelValues("error").Inc()
			logging.WithError(err).WarnContext(ctx, "Last-used cache read failed", "week_start_date", key)
		case ok:
			metrics.LastUsedCacheTotal.WithLabelValues("hit").Inc()
			return labels, nil
		default:
			metrics.LastUsedCacheTotal.WithLabelValues("miss").Inc()
			gen = g
		}
	}

	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key+"@"+strconv.FormatInt(gen, 10), func() (interface{}, error) {
		rows, err := s.repo.LastUsedRows(flightCtx)
		if err != nil {
			return nil, err
		}
		labels := LastUsedLabels(rows, target)

		if s.cache != nil && gen >= 0 {
			if err := s.cache.Set(flightCtx, gen, key, labels); err != nil {
				logging.WithError(err).WarnContext(flightCtx, "Last-used cache write failed", "week_start_date", key)
			}
		}
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]string), nil
}

// Invalidate drops cached labels after dish usage changes.
func (s *LastUsedService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logging.WithError(err).WarnContext(ctx, "Last-used cache invalidation failed")
	}
}

// ForDishes expands labels to every given dish, nil for dishes never used.
func ForDishes(labels map[int64]string, ids []int64) map[int64]*string {
	out := make(map[int64]*string, len(ids))
	for _, id := range ids {
		if label, ok := labels[id]; ok {
			out[id] = &label
		} else {
			out[id] = nil
		}
	}
	return out
}
