package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
)

func TestAvailabilityFetcher_FetchBatch(t *testing.T) {
	ctx := context.Background()
	morning := time.Date(2024, 6, 10, 10, 0, 0, 0, brt)

	t.Run("does not call the scheduler for an empty id list", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		fetcher := newTestFetcher(provider, 7, morning)

		got := fetcher.FetchBatch(ctx, nil, 7)

		assert.Empty(t, got)
		provider.AssertNotCalled(t, "FetchAvailability", mock.Anything, mock.Anything)
	})

	t.Run("fetches all professionals with one scheduler call", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, providers.BatchAvailabilityRequest{
			ProfessionalIDs: []string{"p1", "p2", "p3"},
			StartDate:       "2024-06-10",
			NumDays:         7,
			DurationMinutes: 60,
		}).Return([]providers.RawProfessionalSlots{}, nil).Once()
		fetcher := newTestFetcher(provider, 7, morning)

		got := fetcher.FetchBatch(ctx, []string{"p1", "p2", "p3", "p2"}, 7)

		assert.Len(t, got, 3)
		provider.AssertNumberOfCalls(t, "FetchAvailability", 1)
		provider.AssertExpectations(t)
	})

	t.Run("emits exactly windowDays consecutive days with no gaps", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.Anything).Return([]providers.RawProfessionalSlots{
			{ProfessionalID: "p1", Slots: []providers.RawSlot{
				{Timestamp: "2024-06-13T14:00:00", Available: true},
			}},
		}, nil)
		fetcher := newTestFetcher(provider, 7, morning)

		got := fetcher.FetchBatch(ctx, []string{"p1"}, 7)

		require.Contains(t, got, "p1")
		days := got["p1"].Days
		require.Len(t, days, 7)
		for i, d := range days {
			want := time.Date(2024, 6, 10+i, 0, 0, 0, 0, brt).Format(entities.DateLayout)
			assert.Equal(t, want, d.Date)
			assert.NotNil(t, d.Slots)
		}
		assert.Len(t, days[3].Slots, 1)
		assert.Empty(t, days[0].Slots)
	})

	t.Run("serves a partial response with empty availability for missing professionals", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.MatchedBy(func(req providers.BatchAvailabilityRequest) bool {
			return req.StartDate == "2024-06-10" && req.NumDays == 3
		})).Return([]providers.RawProfessionalSlots{
			{ProfessionalID: "p1", Slots: []providers.RawSlot{
				{Timestamp: "2024-06-10T09:00:00", Available: true},
			}},
		}, nil)
		fetcher := newTestFetcher(provider, 3, morning)

		got := fetcher.FetchBatch(ctx, []string{"p1", "p2"}, 3)

		assert.Equal(t, availabilityOf("p1",
			dayWithSlots("2024-06-10", entities.ScheduleSlot{ID: "2024-06-10T09:00:00", Time: "09:00", Available: true}),
			dayWithSlots("2024-06-11"),
			dayWithSlots("2024-06-12"),
		), got["p1"])
		assert.Equal(t, availabilityOf("p2",
			dayWithSlots("2024-06-10"),
			dayWithSlots("2024-06-11"),
			dayWithSlots("2024-06-12"),
		), got["p2"])

		results := fetcher.FetchBatchResults(ctx, []string{"p1", "p2"}, 3)
		assert.False(t, results["p1"].Missing)
		assert.True(t, results["p2"].Missing)
	})

	t.Run("starts tomorrow at or after the cutoff hour", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.MatchedBy(func(req providers.BatchAvailabilityRequest) bool {
			return req.StartDate == "2024-06-11"
		})).Return([]providers.RawProfessionalSlots{}, nil).Once()
		fetcher := newTestFetcher(provider, 7, time.Date(2024, 6, 10, 17, 30, 0, 0, brt))

		got := fetcher.FetchBatch(ctx, []string{"p1"}, 7)

		assert.Equal(t, "2024-06-11", got["p1"].Days[0].Date)
		assert.Equal(t, "2024-06-17", got["p1"].Days[6].Date)
		provider.AssertExpectations(t)
	})

	t.Run("computes the start date in the scheduler time zone", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		// 19:30 UTC is 16:30 in the scheduler zone, before the cutoff.
		fetcher := newTestFetcher(provider, 7, time.Date(2024, 6, 10, 19, 30, 0, 0, time.UTC))

		assert.Equal(t, "2024-06-10", fetcher.WindowDates(7)[0])
	})

	t.Run("degrades a transport failure to empty availability for every id", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
		fetcher := newTestFetcher(provider, 7, morning)

		got := fetcher.FetchBatch(ctx, []string{"p1", "p2"}, 7)

		require.Len(t, got, 2)
		for _, id := range []string{"p1", "p2"} {
			require.Len(t, got[id].Days, 7)
			for _, d := range got[id].Days {
				assert.Empty(t, d.Slots)
			}
		}

		results := fetcher.FetchBatchResults(ctx, []string{"p1"}, 7)
		assert.Error(t, results["p1"].Err)
		assert.Nil(t, results["p1"].Availability)
	})

	t.Run("normalizes slots within each day", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.Anything).Return([]providers.RawProfessionalSlots{
			{ProfessionalID: "p1", Slots: []providers.RawSlot{
				{Timestamp: "2024-06-10T15:00:00", Available: true},
				{Timestamp: "2024-06-10T09:00:00", Available: true},
				{Timestamp: "not-a-date", Available: true},
				{Timestamp: "2024-06-10T09:00:00", Available: false},
				{Timestamp: "2024-06-09T09:00:00", Available: true},
				{Timestamp: "2024-06-20T09:00:00", Available: true},
				{Timestamp: "2024-06-10T14:00:00-03:00", Available: true},
			}},
		}, nil)
		fetcher := newTestFetcher(provider, 3, morning)

		got := fetcher.FetchBatch(ctx, []string{"p1"}, 3)

		day := got["p1"].Days[0]
		assert.Equal(t, []entities.ScheduleSlot{
			{ID: "2024-06-10T09:00:00", Time: "09:00", Available: false},
			{ID: "2024-06-10T14:00:00-03:00", Time: "14:00", Available: true},
			{ID: "2024-06-10T15:00:00", Time: "15:00", Available: true},
		}, day.Slots)
		assert.Empty(t, got["p1"].Days[1].Slots)
		assert.Empty(t, got["p1"].Days[2].Slots)
	})

	t.Run("keeps slot ids stable across fetches", func(t *testing.T) {
		provider := new(MockSchedulerProvider)
		provider.On("FetchAvailability", mock.Anything, mock.Anything).Return([]providers.RawProfessionalSlots{
			{ProfessionalID: "p1", Slots: []providers.RawSlot{{Timestamp: "2024-06-10T11:00:00", Available: true}}},
		}, nil)
		fetcher := newTestFetcher(provider, 1, morning)

		first := fetcher.FetchBatch(ctx, []string{"p1"}, 1)
		second := fetcher.FetchBatch(ctx, []string{"p1"}, 1)

		assert.Equal(t, first["p1"].Days[0].Slots[0].ID, second["p1"].Days[0].Slots[0].ID)
	})
}
