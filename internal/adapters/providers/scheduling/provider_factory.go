package scheduling

import (
	"time"

	"github.com/zatekoja/clinicavailability/internal/domain/providers"
)

// SchedulerProviderConfig configures scheduling providers.
type SchedulerProviderConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	Location      *time.Location
}

// NewSchedulerProvider creates the scheduler provider. Without a base URL the mock is used.
// A configured scheduler is never backed by the mock: its failures reach the fetcher,
// which serves empty availability.
func NewSchedulerProvider(cfg SchedulerProviderConfig) providers.SchedulerProvider {
	if cfg.BaseURL == "" {
		return NewMockAdapter(cfg.Location)
	}
	return NewSchedulerAdapter(cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.RetryAttempts, cfg.Location)
}
