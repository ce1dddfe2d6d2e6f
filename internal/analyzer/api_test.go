package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

type mockTranscriber struct {
	transcript string
	err        error
	gotAudio   []byte
}

func (m *mockTranscriber) Transcribe(_ context.Context, audio []byte, _, _ string) (string, error) {
	m.gotAudio = audio
	return m.transcript, m.err
}

type mockClassifier struct {
	cls           *Classification
	err           error
	gotTranscript string
}

func (m *mockClassifier) Classify(_ context.Context, transcript string) (*Classification, error) {
	m.gotTranscript = transcript
	return m.cls, m.err
}

type mockGeocoder struct {
	loc        *incident.Location
	err        error
	gotAddress string
}

func (m *mockGeocoder) Resolve(_ context.Context, address string) (*incident.Location, error) {
	m.gotAddress = address
	return m.loc, m.err
}

func newAnalyzerRouter(tr Transcriber, cl Classifier, geo Geocoder) *chi.Mux {
	r := chi.NewRouter()
	New(nil, tr, cl, geo).RegisterRoutes(r)
	return r
}

func audioRequest(t *testing.T, contents string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "call.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/location", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleLocation(t *testing.T) {
	t.Parallel()

	tr := &mockTranscriber{transcript: "there is a fire at 500 market street"}
	cl := &mockClassifier{cls: &Classification{Address: "500 Market St", Incident: "Fire"}}
	geo := &mockGeocoder{loc: &incident.Location{Lat: 37.77, Lng: -122.41, Address: "500 Market St, San Francisco, CA"}}
	r := newAnalyzerRouter(tr, cl, geo)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, audioRequest(t, "fake-audio"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	if string(tr.gotAudio) != "fake-audio" {
		t.Errorf("transcriber audio = %q", tr.gotAudio)
	}
	if cl.gotTranscript != tr.transcript {
		t.Errorf("classifier transcript = %q", cl.gotTranscript)
	}
	if geo.gotAddress != "500 Market St" {
		t.Errorf("geocoder address = %q", geo.gotAddress)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["Address"] != "500 Market St, San Francisco, CA" {
		t.Errorf("Address = %q", resp["Address"])
	}
	if resp["Incident"] != "Fire" {
		t.Errorf("Incident = %q", resp["Incident"])
	}
	if resp["lat"] != "37.77" || resp["long"] != "-122.41" {
		t.Errorf("coords = %q,%q, want string-encoded", resp["lat"], resp["long"])
	}
	if resp["transcript"] != tr.transcript {
		t.Errorf("transcript = %q", resp["transcript"])
	}
}

func TestHandleLocation_MissingFile(t *testing.T) {
	t.Parallel()

	r := newAnalyzerRouter(&mockTranscriber{}, &mockClassifier{}, &mockGeocoder{})
	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader("not multipart"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleLocation_StageFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name string
		tr   *mockTranscriber
		cl   *mockClassifier
		geo  *mockGeocoder
	}{
		{
			name: "transcription fails",
			tr:   &mockTranscriber{err: boom},
			cl:   &mockClassifier{},
			geo:  &mockGeocoder{},
		},
		{
			name: "classification fails",
			tr:   &mockTranscriber{transcript: "t"},
			cl:   &mockClassifier{err: boom},
			geo:  &mockGeocoder{},
		},
		{
			name: "geocoding fails",
			tr:   &mockTranscriber{transcript: "t"},
			cl:   &mockClassifier{cls: &Classification{Address: "a"}},
			geo:  &mockGeocoder{err: boom},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newAnalyzerRouter(tt.tr, tt.cl, tt.geo)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, audioRequest(t, "x"))

			if rr.Code != http.StatusBadGateway {
				t.Errorf("status = %d, want 502", rr.Code)
			}
		})
	}
}

func TestHandleRoot(t *testing.T) {
	t.Parallel()

	r := newAnalyzerRouter(&mockTranscriber{}, &mockClassifier{}, &mockGeocoder{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("New(nil deps) did not panic")
		}
	}()
	New(nil, nil, nil, nil)
}
