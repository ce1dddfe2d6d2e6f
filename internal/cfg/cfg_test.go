package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		AnalyzerEndpoint:      "http://localhost:8000/location",
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty (in-memory default)", c.DatabaseURL)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-analyzer-endpoint", "http://analyzer:8000/location",
		"-database-url", "postgres://cp@db/callpoint",
		"-dispatch-webhook-url", "https://hooks.example.com/dispatch",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.AnalyzerEndpoint != "http://analyzer:8000/location" {
		t.Errorf("AnalyzerEndpoint = %q", c.AnalyzerEndpoint)
	}
	if c.DatabaseURL != "postgres://cp@db/callpoint" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.DispatchWebhookURL != "https://hooks.example.com/dispatch" {
		t.Errorf("DispatchWebhookURL = %q", c.DispatchWebhookURL)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errSubstr string
	}{
		{"valid base", func(*Config) {}, false, ""},
		{"drain zero", func(c *Config) { c.DrainSeconds = 0 }, true, "DRAIN_SECONDS"},
		{"drain above max", func(c *Config) { c.DrainSeconds = 301; c.ShutdownBudgetSeconds = 302 }, true, "DRAIN_SECONDS"},
		{"budget zero", func(c *Config) { c.ShutdownBudgetSeconds = 0 }, true, "SHUTDOWN_BUDGET_SECONDS"},
		{"budget equals drain", func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds }, true, "must be greater than"},
		{"port zero", func(c *Config) { c.APIPort = 0 }, true, "HTTP_PORT"},
		{"port above max", func(c *Config) { c.APIPort = 70000 }, true, "HTTP_PORT"},
		{"analyzer endpoint missing", func(c *Config) { c.AnalyzerEndpoint = "" }, true, "ANALYZER_ENDPOINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			tt.mutate(&c)

			err := c.Validate()
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

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatal("Validate(zero) = nil, want error")
	}
	for _, substr := range []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "ANALYZER_ENDPOINT"} {
		if !strings.Contains(err.Error(), substr) {
			t.Errorf("error %q missing %q", err, substr)
		}
	}
}
