package analyze

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// The analysis service has shipped the same semantic value under several
// spellings. Normalization is by presence, with a fixed precedence per
// field; the first spelling present wins even if its value fails to parse.
//
//	latitude:  lat, latitude
//	longitude: long, longitude
//	address:   Address, address, location
//	type:      Incident, type_of_emergency
type payload struct {
	Lat       any `json:"lat"`
	Latitude  any `json:"latitude"`
	Long      any `json:"long"`
	Longitude any `json:"longitude"`

	AddressTitle string `json:"Address"`
	Address      string `json:"address"`
	Location     string `json:"location"`

	IncidentTitle   string `json:"Incident"`
	TypeOfEmergency string `json:"type_of_emergency"`

	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence"`
}

// parsePayload normalizes the raw response body into an Analysis. A location
// is built only when both coordinates parse as finite numbers; otherwise the
// record's location stays null and the operator places it manually.
func parsePayload(body []byte) (*incident.Analysis, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}

	out := &incident.Analysis{
		Transcript:    strings.TrimSpace(p.Transcript),
		EmergencyType: firstNonEmpty(p.IncidentTitle, p.TypeOfEmergency),
		Confidence:    p.Confidence,
		Notes:         strings.TrimSpace(p.Location),
	}

	lat, latOK := parseCoord(firstPresent(p.Lat, p.Latitude))
	lng, lngOK := parseCoord(firstPresent(p.Long, p.Longitude))
	if latOK && lngOK {
		out.Location = &incident.Location{
			Lat:     lat,
			Lng:     lng,
			Address: firstNonEmpty(p.AddressTitle, p.Address, p.Location),
		}
	}

	return out, nil
}

// firstPresent returns the first value that appeared in the payload at all.
// Absent fields unmarshal to nil; present-but-bad values are returned so the
// parse failure is attributed to the winning spelling.
func firstPresent(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// parseCoord accepts a JSON number or a numeric string and reports whether
// it parsed to a finite float.
func parseCoord(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
