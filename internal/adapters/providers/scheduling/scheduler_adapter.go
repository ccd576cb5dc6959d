package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicavailability/pkg/errors"
	"github.com/zatekoja/clinicavailability/pkg/retry"
)

const (
	availabilityPath = "/disponibilidade/lote"
	bookingPath      = "/agendamentos"
)

var bookingTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// SchedulerAdapter implements SchedulerProvider over the scheduler's HTTP API
type SchedulerAdapter struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	retryAttempts int
	location      *time.Location
}

// NewSchedulerAdapter creates a new scheduler HTTP adapter
func NewSchedulerAdapter(baseURL, apiKey string, timeout time.Duration, retryAttempts int, location *time.Location) *SchedulerAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if location == nil {
		location = time.Local
	}
	return &SchedulerAdapter{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		client:        &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
		location:      location,
	}
}

// FetchAvailability requests availability for every professional in req in one call.
// Transport errors and 5xx responses are retried only when retryAttempts is above one.
func (a *SchedulerAdapter) FetchAvailability(ctx context.Context, req providers.BatchAvailabilityRequest) ([]providers.RawProfessionalSlots, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode availability request: %w", err)
	}

	var result []providers.RawProfessionalSlots
	err = retry.Do(ctx, retry.RequestConfig(a.retryAttempts), "scheduler availability", func(ctx context.Context) error {
		resp, err := a.post(ctx, availabilityPath, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("scheduler api error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.Permanent(fmt.Errorf("scheduler api error: status %d: %s", resp.StatusCode, readSnippet(resp.Body)))
		}

		var decoded []providers.RawProfessionalSlots
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode availability response: %w", err))
		}
		result = decoded
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("retrying scheduler availability request")
	})
	if err != nil {
		return nil, apperrors.NewExternalError("scheduler availability request failed", err)
	}
	return result, nil
}

type schedulerBooking struct {
	ID              string   `json:"id"`
	PatientID       string   `json:"id_paciente"`
	ProfessionalID  string   `json:"id_profissional"`
	ClinicID        string   `json:"id_clinica"`
	ScheduledAt     string   `json:"dt_agendamento"`
	DurationMinutes int      `json:"nr_duracao_minutos"`
	Price           *float64 `json:"vl_valor"`
	Status          string   `json:"status"`
}

// CreateBooking books a slot. It is attempted once; 409 maps to a CONFLICT error.
func (a *SchedulerAdapter) CreateBooking(ctx context.Context, req providers.CreateBookingRequest) (*entities.Booking, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking request: %w", err)
	}

	resp, err := a.post(ctx, bookingPath, body)
	if err != nil {
		return nil, apperrors.NewExternalError("scheduler booking request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, apperrors.NewConflictError("slot already booked", fmt.Errorf("scheduler: %s", readSnippet(resp.Body)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperrors.NewExternalError(
			"scheduler booking request failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, readSnippet(resp.Body)),
		)
	}

	var created schedulerBooking
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, apperrors.NewExternalError("failed to decode booking response", err)
	}

	booking := &entities.Booking{
		ID:              created.ID,
		PatientID:       created.PatientID,
		ProfessionalID:  created.ProfessionalID,
		ClinicID:        created.ClinicID,
		DurationMinutes: created.DurationMinutes,
		Price:           created.Price,
		Status:          created.Status,
	}
	for _, layout := range bookingTimeLayouts {
		if t, err := time.ParseInLocation(layout, created.ScheduledAt, a.location); err == nil {
			booking.ScheduledAt = t
			break
		}
	}
	return booking, nil
}

func (a *SchedulerAdapter) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(err)
	}
	a.addHeaders(req)
	return a.client.Do(req)
}

func (a *SchedulerAdapter) addHeaders(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
