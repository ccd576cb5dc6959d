package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicavailability/pkg/errors"
)

// AvailabilityPage is a page of results with the availability of every visible professional.
type AvailabilityPage struct {
	entities.ResultPage
	Availability map[string]*entities.ProfessionalAvailability `json:"availability"`
}

// SearchSession owns the availability state of one search: its cache, loader and invalidator.
type SearchSession struct {
	ID          string
	CreatedAt   time.Time
	Cache       *AvailabilityCache
	Loader      *PaginatedAvailabilityLoader
	Invalidator *OptimisticSlotInvalidator
	Filter      *AvailabilityFilterEngine

	mu         sync.Mutex
	lastAccess time.Time
}

func newSearchSession(fetcher *AvailabilityFetcher, metrics *observability.Metrics, opts LoaderOptions, now time.Time) *SearchSession {
	cache := NewAvailabilityCache()
	return &SearchSession{
		ID:          uuid.New().String(),
		CreatedAt:   now,
		Cache:       cache,
		Loader:      NewPaginatedAvailabilityLoader(fetcher, cache, opts),
		Invalidator: NewOptimisticSlotInvalidator(cache, metrics),
		Filter:      NewAvailabilityFilterEngine(),
		lastAccess:  now,
	}
}

// Page loads availability for the requested page window, filters results
// against loaded availability, paginates them and loads any newly visible professionals.
func (s *SearchSession) Page(
	ctx context.Context,
	results []entities.ProfessionalResult,
	filters entities.AvailabilityFilterState,
	page, pageSize int,
) AvailabilityPage {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ProfessionalID
	}

	// The page window of the unfiltered results is loaded first so availability
	// filters have data to work with on a fresh session.
	s.Loader.EnsureLoaded(ctx, VisibleIDs(s.Filter.Paginate(results, page, pageSize)))

	filtered := s.Filter.Apply(results, filters, s.Cache.GetMany(ids))
	view := s.Filter.Paginate(filtered, page, pageSize)

	visible := VisibleIDs(view)
	s.Loader.EnsureLoaded(ctx, visible)

	return AvailabilityPage{
		ResultPage:   view,
		Availability: s.Cache.GetMany(visible),
	}
}

// ProfessionalAvailability loads and returns a single professional's calendar.
func (s *SearchSession) ProfessionalAvailability(ctx context.Context, professionalID string) *entities.ProfessionalAvailability {
	s.Loader.EnsureLoaded(ctx, []string{professionalID})
	availability, _ := s.Cache.Get(professionalID)
	return availability
}

func (s *SearchSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *SearchSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// SessionRegistry tracks live search sessions and expires idle ones.
type SessionRegistry struct {
	fetcher *AvailabilityFetcher
	metrics *observability.Metrics
	opts    LoaderOptions
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*SearchSession

	stopOnce sync.Once
	done     chan struct{}
}

// NewSessionRegistry creates a registry. A zero ttl disables expiry.
func NewSessionRegistry(fetcher *AvailabilityFetcher, metrics *observability.Metrics, ttl time.Duration, opts LoaderOptions) *SessionRegistry {
	return &SessionRegistry{
		fetcher:  fetcher,
		metrics:  metrics,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*SearchSession),
		done:     make(chan struct{}),
	}
}

// WithClock overrides the time source used for idle tracking
func (r *SessionRegistry) WithClock(now func() time.Time) *SessionRegistry {
	r.now = now
	return r
}

// Create starts a new search session
func (r *SessionRegistry) Create() *SearchSession {
	session := newSearchSession(r.fetcher, r.metrics, r.opts, r.now())

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session
}

// Get returns a live session and refreshes its idle timer
func (r *SessionRegistry) Get(id string) (*SearchSession, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewNotFoundError("search session " + id + " not found")
	}
	session.touch(r.now())
	return session, nil
}

// Delete ends a session
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return apperrors.NewNotFoundError("search session " + id + " not found")
	}
	delete(r.sessions, id)
	return nil
}

// Page serves a page of results for the session with the given id.
func (r *SessionRegistry) Page(
	ctx context.Context,
	sessionID string,
	results []entities.ProfessionalResult,
	filters entities.AvailabilityFilterState,
	page, pageSize int,
) (AvailabilityPage, error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return AvailabilityPage{}, err
	}
	return session.Page(ctx, results, filters, page, pageSize), nil
}

// ProfessionalAvailability loads one professional's calendar within the given session.
func (r *SessionRegistry) ProfessionalAvailability(ctx context.Context, sessionID, professionalID string) (*entities.ProfessionalAvailability, error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.ProfessionalAvailability(ctx, professionalID), nil
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpireIdle removes sessions idle for longer than the ttl and returns how many were removed.
func (r *SessionRegistry) ExpireIdle() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Start runs the expiry loop until ctx is done or Close is called.
func (r *SessionRegistry) Start(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(r.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				if n := r.ExpireIdle(); n > 0 {
					observability.LoggerFromContext(ctx).Debug().Int("expired", n).Msg("expired idle search sessions")
				}
			}
		}
	}()
}

// InvalidateEverywhere applies a slot event to every live session.
func (r *SessionRegistry) InvalidateEverywhere(ctx context.Context, event *entities.SlotEvent) int {
	r.mu.RLock()
	sessions := make([]*SearchSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	applied := 0
	for _, s := range sessions {
		if s.Invalidator.ApplyEvent(ctx, event) {
			applied++
		}
	}
	return applied
}

// Subscribe applies slot-booked events from bus to every live session until ctx is done.
func (r *SessionRegistry) Subscribe(ctx context.Context, bus providers.EventBus) error {
	events, err := bus.Subscribe(ctx, providers.EventChannelSlotBookings)
	if err != nil {
		return err
	}

	go func() {
		logger := observability.LoggerFromContext(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				n := r.InvalidateEverywhere(ctx, event)
				logger.Debug().
					Str("professional_id", event.ProfessionalID).
					Str("date", event.Date).
					Int("sessions", n).
					Msg("applied slot booking event")
			}
		}
	}()
	return nil
}

// Close stops background loops
func (r *SessionRegistry) Close() {
	r.stopOnce.Do(func() { close(r.done) })
}
