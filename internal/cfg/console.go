package cfg

import (
	"errors"
	"flag"
	"fmt"
	"time"
)

// ConsoleConfig holds operator-console configuration.
type ConsoleConfig struct {
	ServerURL       string
	PollInterval    time.Duration
	PollMaxAttempts int
	GeocodeEndpoint string
	GeocodeAPIKey   string
}

// RegisterFlags binds ConsoleConfig fields to the given FlagSet with defaults inline.
func (c *ConsoleConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ServerURL, "server-url", "http://localhost:8080", "intake API base URL")
	fs.DurationVar(&c.PollInterval, "poll-interval", 5*time.Second, "cadence for list and per-job polling")
	fs.IntVar(&c.PollMaxAttempts, "poll-max-attempts", 120, "per-job poll attempts before the job is marked timed out")
	fs.StringVar(&c.GeocodeEndpoint, "geocode-endpoint", "", "geocoding service URL (empty = Google Geocoding API)")
	fs.StringVar(&c.GeocodeAPIKey, "geocode-api-key", "", "API key for the geocoding service")
}

// Validate checks all configuration fields for correctness.
func (c *ConsoleConfig) Validate() error {
	var errs []error

	if c.ServerURL == "" {
		errs = append(errs, errors.New("SERVER_URL is required"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid POLL_INTERVAL %s (must be positive)", c.PollInterval))
	}
	if c.PollMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("invalid POLL_MAX_ATTEMPTS %d (must be positive)", c.PollMaxAttempts))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
