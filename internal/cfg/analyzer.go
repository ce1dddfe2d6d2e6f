package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// AnalyzerConfig holds analyzer-sidecar configuration.
type AnalyzerConfig struct {
	HTTPPort            int
	TranscriberEndpoint string
	ClaudeAPIKey        string
	ClaudeModel         string
	GeocodeEndpoint     string
	GeocodeAPIKey       string
}

// RegisterFlags binds AnalyzerConfig fields to the given FlagSet with defaults inline.
func (c *AnalyzerConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.HTTPPort, "http-port", 8000, "analyzer listen TCP port (1..65535)")
	fs.StringVar(&c.TranscriberEndpoint, "transcriber-endpoint", "", "speech-to-text service URL")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude classifier")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model used for transcript classification")
	fs.StringVar(&c.GeocodeEndpoint, "geocode-endpoint", "", "geocoding service URL (empty = Google Geocoding API)")
	fs.StringVar(&c.GeocodeAPIKey, "geocode-api-key", "", "API key for the geocoding service")
}

// Validate checks all configuration fields for correctness.
func (c *AnalyzerConfig) Validate() error {
	var errs []error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.TranscriberEndpoint == "" {
		errs = append(errs, errors.New("TRANSCRIBER_ENDPOINT is required"))
	}
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
