package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
	"github.com/zatekoja/clinicavailability/pkg/config"
)

// timestampLayouts are tried in order when parsing a scheduler dt_horario value.
// Layouts without an offset are read in the scheduler time zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// FetcherConfig controls window computation and the slot granularity sent to the scheduler.
type FetcherConfig struct {
	WindowDays          int
	SlotDurationMinutes int
	CutoffHour          int
	Location            *time.Location
}

// NewFetcherConfig derives a FetcherConfig from the scheduler configuration
func NewFetcherConfig(cfg *config.SchedulerConfig) FetcherConfig {
	return FetcherConfig{
		WindowDays:          cfg.WindowDays,
		SlotDurationMinutes: cfg.SlotDurationMinutes,
		CutoffHour:          cfg.CutoffHour,
		Location:            cfg.Location(),
	}
}

// AvailabilityResult is the per-professional outcome of one batch fetch.
// Availability is nil when Err is set. Missing marks ids the scheduler did not return.
type AvailabilityResult struct {
	Availability *entities.ProfessionalAvailability
	Missing      bool
	Err          error
}

// AvailabilityFetcher turns one batched scheduler call into normalized, gap-free calendars.
type AvailabilityFetcher struct {
	provider providers.SchedulerProvider
	cfg      FetcherConfig
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewAvailabilityFetcher creates a fetcher. metrics may be nil.
func NewAvailabilityFetcher(provider providers.SchedulerProvider, cfg FetcherConfig, metrics *observability.Metrics) *AvailabilityFetcher {
	if cfg.WindowDays < 1 {
		cfg.WindowDays = 7
	}
	if cfg.SlotDurationMinutes < 1 {
		cfg.SlotDurationMinutes = 60
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &AvailabilityFetcher{
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock overrides the time source
func (f *AvailabilityFetcher) WithClock(now func() time.Time) *AvailabilityFetcher {
	f.now = now
	return f
}

// WindowDays returns the configured window length
func (f *AvailabilityFetcher) WindowDays() int {
	return f.cfg.WindowDays
}

// Location returns the scheduler time zone
func (f *AvailabilityFetcher) Location() *time.Location {
	return f.cfg.Location
}

// StartDate returns local midnight of the first day of the window.
// At or after the cutoff hour the window starts tomorrow.
func (f *AvailabilityFetcher) StartDate() time.Time {
	now := f.now().In(f.cfg.Location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.cfg.Location)
	if now.Hour() >= f.cfg.CutoffHour {
		start = start.AddDate(0, 0, 1)
	}
	return start
}

// WindowDates returns the windowDays consecutive ISO dates starting at StartDate.
func (f *AvailabilityFetcher) WindowDates(windowDays int) []string {
	if windowDays < 1 {
		windowDays = f.cfg.WindowDays
	}
	start := f.StartDate()
	dates := make([]string, windowDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(entities.DateLayout)
	}
	return dates
}

// FetchBatch fetches availability for ids with a single scheduler call.
// Every requested id is present in the returned map; failures degrade to an empty window.
func (f *AvailabilityFetcher) FetchBatch(ctx context.Context, ids []string, windowDays int) map[string]*entities.ProfessionalAvailability {
	results := f.FetchBatchResults(ctx, ids, windowDays)
	if len(results) == 0 {
		return map[string]*entities.ProfessionalAvailability{}
	}

	dates := f.WindowDates(windowDays)
	out := make(map[string]*entities.ProfessionalAvailability, len(results))
	for id, result := range results {
		if result.Err != nil || result.Availability == nil {
			out[id] = entities.EmptyAvailability(id, dates)
			continue
		}
		out[id] = result.Availability
	}
	return out
}

// FetchBatchResults is FetchBatch without the degrade step.
// A transport failure sets Err on every requested id.
func (f *AvailabilityFetcher) FetchBatchResults(ctx context.Context, ids []string, windowDays int) map[string]AvailabilityResult {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]AvailabilityResult{}
	}
	if windowDays < 1 {
		windowDays = f.cfg.WindowDays
	}

	ctx, span := observability.StartSpan(ctx, "AvailabilityFetcher.FetchBatch")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Int("professionals.count", len(ids)),
		attribute.Int("window.days", windowDays),
	)

	logger := observability.LoggerFromContext(ctx)
	dates := f.WindowDates(windowDays)

	raw, err := f.provider.FetchAvailability(ctx, providers.BatchAvailabilityRequest{
		ProfessionalIDs: ids,
		StartDate:       dates[0],
		NumDays:         windowDays,
		DurationMinutes: f.cfg.SlotDurationMinutes,
	})
	observability.RecordSchedulerFetch(ctx, f.metrics, len(ids), err != nil)
	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).
			Int("professionals", len(ids)).
			Str("start_date", dates[0]).
			Msg("scheduler availability fetch failed, serving empty availability")

		results := make(map[string]AvailabilityResult, len(ids))
		for _, id := range ids {
			results[id] = AvailabilityResult{Err: err}
		}
		return results
	}

	grouped := make(map[string][]providers.RawSlot, len(raw))
	for _, record := range raw {
		grouped[record.ProfessionalID] = append(grouped[record.ProfessionalID], record.Slots...)
	}

	results := make(map[string]AvailabilityResult, len(ids))
	missing := 0
	for _, id := range ids {
		slots, ok := grouped[id]
		if !ok {
			missing++
			results[id] = AvailabilityResult{
				Availability: entities.EmptyAvailability(id, dates),
				Missing:      true,
			}
			continue
		}
		results[id] = AvailabilityResult{Availability: f.normalize(ctx, id, dates, slots)}
	}

	if missing > 0 {
		logger.Warn().
			Int("missing", missing).
			Int("requested", len(ids)).
			Msg("scheduler response omitted professionals")
	}
	return results
}

// normalize buckets raw slots into the window, one slot per timestamp, sorted by time.
func (f *AvailabilityFetcher) normalize(ctx context.Context, id string, dates []string, raw []providers.RawSlot) *entities.ProfessionalAvailability {
	logger := observability.LoggerFromContext(ctx)
	availability := entities.EmptyAvailability(id, dates)

	dayIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		dayIndex[d] = i
	}

	type keyedSlot struct {
		at   time.Time
		slot entities.ScheduleSlot
	}
	buckets := make([][]keyedSlot, len(dates))
	seen := make(map[string]int)

	for _, r := range raw {
		at, ok := parseSlotTimestamp(r.Timestamp, f.cfg.Location)
		if !ok {
			logger.Warn().
				Str("professional_id", id).
				Str("dt_horario", r.Timestamp).
				Msg("skipping unparseable slot timestamp")
			continue
		}

		date := at.Format(entities.DateLayout)
		idx, inWindow := dayIndex[date]
		if !inWindow {
			continue
		}

		key := date + "|" + at.Format(time.RFC3339)
		if pos, dup := seen[key]; dup {
			// A duplicate is bookable only if every copy says so.
			bucket := buckets[idx]
			bucket[pos].slot.Available = bucket[pos].slot.Available && r.Available
			continue
		}

		seen[key] = len(buckets[idx])
		buckets[idx] = append(buckets[idx], keyedSlot{
			at: at,
			slot: entities.ScheduleSlot{
				ID:        r.Timestamp,
				Time:      at.Format(entities.TimeLayout),
				Available: r.Available,
			},
		})
	}

	for i, bucket := range buckets {
		sort.SliceStable(bucket, func(a, b int) bool {
			return bucket[a].at.Before(bucket[b].at)
		})
		slots := make([]entities.ScheduleSlot, len(bucket))
		for j, ks := range bucket {
			slots[j] = ks.slot
		}
		availability.Days[i].Slots = slots
	}
	return availability
}

func parseSlotTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
