package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicavailability/internal/adapters/cache"
	"github.com/zatekoja/clinicavailability/internal/adapters/database"
	"github.com/zatekoja/clinicavailability/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicavailability/internal/api/handlers"
	"github.com/zatekoja/clinicavailability/internal/api/routes"
	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	scheduler := scheduling.NewMockAdapter(time.UTC)

	fetcher := services.NewAvailabilityFetcher(scheduler, services.FetcherConfig{
		WindowDays:          3,
		SlotDurationMinutes: 60,
		CutoffHour:          17,
		Location:            time.UTC,
	}, nil).WithClock(func() time.Time { return now })

	registry := services.NewSessionRegistry(fetcher, nil, 0, services.LoaderOptions{BatchWait: time.Millisecond, FetchTimeout: time.Second})
	t.Cleanup(registry.Close)

	drafts := services.NewBookingDraftStores(cache.NewMemoryAdapter(0), time.Hour)
	bookings := services.NewBookingService(drafts, registry, scheduler, database.NoopBookingLedger{}, nil,
		services.BookingConfig{SlotDurationMinutes: 60, Location: time.UTC}, nil)

	router := routes.NewRouter(
		handlers.NewSearchSessionHandler(registry),
		handlers.NewBookingDraftHandler(drafts),
		handlers.NewBookingHandler(bookings),
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, payload interface{}, out interface{}) int {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func firstAvailable(pa *entities.ProfessionalAvailability) (string, entities.ScheduleSlot, bool) {
	for _, day := range pa.Days {
		for _, slot := range day.Slots {
			if slot.Available {
				return day.Date, slot, true
			}
		}
	}
	return "", entities.ScheduleSlot{}, false
}

func TestRouter_BookingFlow(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", server.URL+"/api/search-sessions", nil, &session))
	require.NotEmpty(t, session.ID)

	var page services.AvailabilityPage
	status := doJSON(t, "POST", server.URL+"/api/search-sessions/"+session.ID+"/page", map[string]interface{}{
		"results": []entities.ProfessionalResult{
			{ProfessionalID: "p1", Name: "Dr. Ana", Rating: 4.8},
			{ProfessionalID: "p2", Name: "Dr. Bruno", Rating: 4.1},
			{ProfessionalID: "p3", Name: "Dr. Carla", Rating: 3.9},
		},
		"page":      1,
		"page_size": 2,
	}, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, page.Total)
	require.Contains(t, page.Availability, "p1")
	assert.NotContains(t, page.Availability, "p3")
	assert.Len(t, page.Availability["p1"].Days, 3)

	date, slot, ok := firstAvailable(page.Availability["p1"])
	require.True(t, ok)

	draftURL := server.URL + "/api/patients/patient-1/booking-draft"
	require.Equal(t, http.StatusOK, doJSON(t, "PUT", draftURL, map[string]string{
		"professional_id":   "p1",
		"professional_name": "Dr. Ana",
	}, nil))
	var draft entities.BookingDraft
	require.Equal(t, http.StatusOK, doJSON(t, "PUT", draftURL, map[string]string{
		"date": date, "time": slot.Time, "slot_id": slot.ID,
	}, &draft))
	assert.Equal(t, "Dr. Ana", draft.ProfessionalName)

	var booking entities.Booking
	bookingsURL := server.URL + "/api/patients/patient-1/bookings"
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", bookingsURL, map[string]string{"session_id": session.ID}, &booking))
	assert.Equal(t, "p1", booking.ProfessionalID)
	assert.Equal(t, "patient-1", booking.PatientID)

	var detail entities.ProfessionalAvailability
	require.Equal(t, http.StatusOK, doJSON(t, "GET",
		server.URL+"/api/search-sessions/"+session.ID+"/professionals/p1/availability", nil, &detail))
	for _, day := range detail.Days {
		for _, s := range day.Slots {
			if s.ID == slot.ID {
				assert.False(t, s.Available, "booked slot is no longer offered")
			}
		}
	}

	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", draftURL, nil, nil), "draft is cleared after booking")
	assert.Equal(t, http.StatusBadRequest, doJSON(t, "POST", bookingsURL, map[string]string{"session_id": session.ID}, nil))

	require.Equal(t, http.StatusNoContent, doJSON(t, "DELETE", server.URL+"/api/search-sessions/"+session.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, "POST", server.URL+"/api/search-sessions/"+session.ID+"/page",
		map[string]interface{}{"results": []entities.ProfessionalResult{}}, nil))
}

func TestRouter_DoubleBookingConflicts(t *testing.T) {
	server := newTestServer(t)

	var session struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", server.URL+"/api/search-sessions", nil, &session))

	var detail entities.ProfessionalAvailability
	require.Equal(t, http.StatusOK, doJSON(t, "GET",
		server.URL+"/api/search-sessions/"+session.ID+"/professionals/p7/availability", nil, &detail))
	date, slot, ok := firstAvailable(&detail)
	require.True(t, ok)

	selection := map[string]string{"professional_id": "p7", "date": date, "time": slot.Time, "slot_id": slot.ID}
	for _, patient := range []string{"patient-a", "patient-b"} {
		require.Equal(t, http.StatusOK, doJSON(t, "PUT", server.URL+"/api/patients/"+patient+"/booking-draft", selection, nil))
	}

	assert.Equal(t, http.StatusCreated, doJSON(t, "POST", server.URL+"/api/patients/patient-a/bookings", nil, nil))
	assert.Equal(t, http.StatusConflict, doJSON(t, "POST", server.URL+"/api/patients/patient-b/bookings",
		map[string]string{"session_id": session.ID}, nil))
}
