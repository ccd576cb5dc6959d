package services

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
)

// LoaderOptions tunes batching for a PaginatedAvailabilityLoader.
type LoaderOptions struct {
	// BatchWait is how long the loader collects ids before issuing a fetch.
	BatchWait time.Duration
	// FetchTimeout bounds a single batch fetch. Fetches are detached from the caller's cancellation.
	FetchTimeout time.Duration
}

// PaginatedAvailabilityLoader fetches availability for the ids a page makes visible,
// never fetching an id that is cached or already in flight.
type PaginatedAvailabilityLoader struct {
	fetcher      *AvailabilityFetcher
	cache        *AvailabilityCache
	loader       *dataloader.Loader[string, *entities.ProfessionalAvailability]
	fetchTimeout time.Duration
}

// NewPaginatedAvailabilityLoader creates a loader that merges into cache
func NewPaginatedAvailabilityLoader(fetcher *AvailabilityFetcher, cache *AvailabilityCache, opts LoaderOptions) *PaginatedAvailabilityLoader {
	if opts.BatchWait <= 0 {
		opts.BatchWait = 2 * time.Millisecond
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	l := &PaginatedAvailabilityLoader{
		fetcher:      fetcher,
		cache:        cache,
		fetchTimeout: opts.FetchTimeout,
	}
	l.loader = dataloader.NewBatchedLoader(
		l.batchLoad,
		dataloader.WithWait[string, *entities.ProfessionalAvailability](opts.BatchWait),
	)
	return l
}

// batchLoad runs one scheduler fetch for every id collected in the batch window
// and merges the result into the cache exactly once.
func (l *PaginatedAvailabilityLoader) batchLoad(ctx context.Context, ids []string) []*dataloader.Result[*entities.ProfessionalAvailability] {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
	defer cancel()

	fetched := l.fetcher.FetchBatch(fetchCtx, ids, l.fetcher.WindowDays())
	l.cache.Merge(fetched)

	results := make([]*dataloader.Result[*entities.ProfessionalAvailability], len(ids))
	for i, id := range ids {
		results[i] = &dataloader.Result[*entities.ProfessionalAvailability]{Data: fetched[id]}
	}
	return results
}

// EnsureLoaded makes sure every visible id is cached. Ids already cached cost nothing;
// the remainder is fetched in one batch. It returns the ids that were requested from the scheduler.
func (l *PaginatedAvailabilityLoader) EnsureLoaded(ctx context.Context, visibleIDs []string) []string {
	var pending []string
	for _, id := range uniqueIDs(visibleIDs) {
		if !l.cache.Has(id) {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "PaginatedAvailabilityLoader.EnsureLoaded")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Int("visible.count", len(visibleIDs)),
		attribute.Int("pending.count", len(pending)),
	)

	// Results are merged by batchLoad; errors never occur because fetches degrade to empty.
	_, _ = l.loader.LoadMany(ctx, pending)()
	return pending
}

// RefreshDay refetches one professional and replaces only date in the cache.
func (l *PaginatedAvailabilityLoader) RefreshDay(ctx context.Context, professionalID, date string) error {
	ctx, span := observability.StartSpan(ctx, "PaginatedAvailabilityLoader.RefreshDay")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("professional.id", professionalID),
		attribute.String("date", date),
	)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
	defer cancel()

	result, ok := l.fetcher.FetchBatchResults(fetchCtx, []string{professionalID}, l.fetcher.WindowDays())[professionalID]
	if !ok {
		return fmt.Errorf("refresh %s: empty professional id", date)
	}
	if result.Err != nil {
		observability.RecordError(span, result.Err)
		return fmt.Errorf("refresh %s for %s: %w", date, professionalID, result.Err)
	}

	day := result.Availability.Day(date)
	if day == nil {
		return fmt.Errorf("refresh %s for %s: date outside availability window", date, professionalID)
	}
	if !l.cache.ReplaceDay(professionalID, *day) {
		observability.LoggerFromContext(ctx).Debug().
			Str("professional_id", professionalID).
			Str("date", date).
			Msg("refreshed day not cached in this session")
	}
	return nil
}

// Cache returns the cache the loader merges into
func (l *PaginatedAvailabilityLoader) Cache() *AvailabilityCache {
	return l.cache
}
