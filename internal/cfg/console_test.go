package cfg

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestConsoleRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c ConsoleConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q", c.ServerURL)
	}
	if c.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", c.PollInterval)
	}
	if c.PollMaxAttempts != 120 {
		t.Errorf("PollMaxAttempts = %d, want 120", c.PollMaxAttempts)
	}
}

func TestConsoleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       ConsoleConfig
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "valid",
			cfg:     ConsoleConfig{ServerURL: "http://s", PollInterval: time.Second, PollMaxAttempts: 10},
			wantErr: false,
		},
		{
			name:      "missing server url",
			cfg:       ConsoleConfig{PollInterval: time.Second, PollMaxAttempts: 10},
			wantErr:   true,
			errSubstr: "SERVER_URL",
		},
		{
			name:      "non-positive interval",
			cfg:       ConsoleConfig{ServerURL: "http://s", PollInterval: 0, PollMaxAttempts: 10},
			wantErr:   true,
			errSubstr: "POLL_INTERVAL",
		},
		{
			name:      "non-positive attempts",
			cfg:       ConsoleConfig{ServerURL: "http://s", PollInterval: time.Second, PollMaxAttempts: 0},
			wantErr:   true,
			errSubstr: "POLL_MAX_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error = %q, want substring %q", err, tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
