package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
)

const draftKeyPrefix = "booking-draft:"

// DraftKey returns the storage key of a user's booking draft
func DraftKey(userID string) string {
	return draftKeyPrefix + userID
}

// BookingDraftStore persists one user's in-progress slot selection.
type BookingDraftStore struct {
	storage providers.CacheProvider
	userID  string
	ttl     time.Duration
}

// NewBookingDraftStore creates a draft store bound to userID. A zero ttl keeps drafts indefinitely.
func NewBookingDraftStore(storage providers.CacheProvider, userID string, ttl time.Duration) *BookingDraftStore {
	return &BookingDraftStore{
		storage: storage,
		userID:  userID,
		ttl:     ttl,
	}
}

// Save merges draft onto the stored draft and writes the whole record back.
// A draft naming a different slot replaces the stored one instead. The stored result is returned.
func (s *BookingDraftStore) Save(ctx context.Context, draft *entities.BookingDraft) (*entities.BookingDraft, error) {
	if draft == nil {
		return nil, fmt.Errorf("booking draft is nil")
	}

	prior := s.Load(ctx)

	var next *entities.BookingDraft
	if draft.Supersedes(prior) {
		next = draft.MergeOnto(nil)
	} else {
		next = draft.MergeOnto(prior)
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking draft: %w", err)
	}
	if err := s.storage.Set(ctx, DraftKey(s.userID), payload, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to persist booking draft: %w", err)
	}
	return next, nil
}

// Load returns the stored draft, or nil when there is none or it cannot be read.
func (s *BookingDraftStore) Load(ctx context.Context) *entities.BookingDraft {
	logger := observability.LoggerFromContext(ctx)

	payload, err := s.storage.Get(ctx, DraftKey(s.userID))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			logger.Warn().Err(err).Str("user_id", s.userID).Msg("booking draft storage read failed")
		}
		return nil
	}

	var draft entities.BookingDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		logger.Warn().Err(err).Str("user_id", s.userID).Msg("discarding malformed booking draft")
		return nil
	}
	return &draft
}

// Clear removes the stored draft
func (s *BookingDraftStore) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, DraftKey(s.userID)); err != nil {
		return fmt.Errorf("failed to clear booking draft: %w", err)
	}
	return nil
}

// BookingDraftStores builds per-user draft stores over shared storage.
type BookingDraftStores struct {
	storage providers.CacheProvider
	ttl     time.Duration
}

// NewBookingDraftStores creates a draft store factory
func NewBookingDraftStores(storage providers.CacheProvider, ttl time.Duration) *BookingDraftStores {
	return &BookingDraftStores{storage: storage, ttl: ttl}
}

// For returns the draft store of userID
func (f *BookingDraftStores) For(userID string) *BookingDraftStore {
	return NewBookingDraftStore(f.storage, userID, f.ttl)
}

// Load returns the draft of userID, or nil
func (f *BookingDraftStores) Load(ctx context.Context, userID string) *entities.BookingDraft {
	return f.For(userID).Load(ctx)
}

// Save stores a draft update for userID
func (f *BookingDraftStores) Save(ctx context.Context, userID string, draft *entities.BookingDraft) (*entities.BookingDraft, error) {
	return f.For(userID).Save(ctx, draft)
}

// Clear removes the draft of userID
func (f *BookingDraftStores) Clear(ctx context.Context, userID string) error {
	return f.For(userID).Clear(ctx)
}
