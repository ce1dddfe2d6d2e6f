package analyzer

import (
	"strings"
	"testing"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		wantAddress  string
		wantIncident string
		wantErr      bool
	}{
		{
			name:         "canonical reply",
			text:         "Address: 500 Market St, San Francisco\nIncident: Fire",
			wantAddress:  "500 Market St, San Francisco",
			wantIncident: "Fire",
		},
		{
			name:         "extra prose around the lines",
			text:         "Here is my analysis.\n\nAddress: 12 Main St\nIncident: Medical\n\nStay safe.",
			wantAddress:  "12 Main St",
			wantIncident: "Medical",
		},
		{
			name:         "case-insensitive labels",
			text:         "address: Pier 39\nINCIDENT: Crime",
			wantAddress:  "Pier 39",
			wantIncident: "Crime",
		},
		{
			name:        "incident line missing is tolerated",
			text:        "Address: 1 Elm St",
			wantAddress: "1 Elm St",
		},
		{
			name:    "address missing is an error",
			text:    "Incident: Fire",
			wantErr: true,
		},
		{
			name:    "empty address value is an error",
			text:    "Address:\nIncident: Fire",
			wantErr: true,
		},
		{
			name:    "no labels at all",
			text:    "I could not determine anything useful.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseClassification(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseClassification() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClassification() error: %v", err)
			}
			if got.Address != tt.wantAddress {
				t.Errorf("Address = %q, want %q", got.Address, tt.wantAddress)
			}
			if got.Incident != tt.wantIncident {
				t.Errorf("Incident = %q, want %q", got.Incident, tt.wantIncident)
			}
		})
	}
}

func TestCutPrefixFold(t *testing.T) {
	t.Parallel()

	if v, ok := cutPrefixFold("ADDRESS: x", "Address:"); !ok || strings.TrimSpace(v) != "x" {
		t.Errorf("cutPrefixFold = %q,%v", v, ok)
	}
	if _, ok := cutPrefixFold("Addr: x", "Address:"); ok {
		t.Error("cutPrefixFold matched a non-prefix")
	}
	if _, ok := cutPrefixFold("Add", "Address:"); ok {
		t.Error("cutPrefixFold matched a too-short string")
	}
}
