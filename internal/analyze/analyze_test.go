package analyze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAnalyze_Success(t *testing.T) {
	t.Parallel()

	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			_ = f.Close()
			gotFilename = hdr.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Address":"500 Market St","Incident":"Fire","lat":"37.77","long":"-122.41","transcript":"there is a fire"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Analyze(context.Background(), []byte("audio-bytes"), "call.webm", "audio/webm")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if gotFilename != "call.webm" {
		t.Errorf("uploaded filename = %q, want call.webm", gotFilename)
	}
	if res.Transcript != "there is a fire" {
		t.Errorf("Transcript = %q", res.Transcript)
	}
	if res.EmergencyType != "Fire" {
		t.Errorf("EmergencyType = %q, want Fire", res.EmergencyType)
	}
	if res.Location == nil || res.Location.Lat != 37.77 {
		t.Errorf("Location = %+v, want parsed coords", res.Location)
	}
}

func TestAnalyze_DefaultFilename(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		if hdr.Filename != "call.webm" {
			t.Errorf("filename = %q, want default call.webm", hdr.Filename)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Analyze(context.Background(), []byte("x"), "", ""); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
}

func TestAnalyze_ServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "whisper crashed", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Analyze(context.Background(), []byte("x"), "", "")
	if err == nil {
		t.Fatal("Analyze() = nil error, want failure on 502")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "whisper crashed") {
		t.Errorf("error = %v, want status and body excerpt", err)
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<!doctype html>"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Analyze(context.Background(), []byte("x"), "", ""); err == nil {
		t.Fatal("Analyze() = nil error, want parse failure")
	}
}

func TestAnalyze_CreatesSpan(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"lat":1,"long":2}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Analyze(context.Background(), []byte("x"), "call.webm", ""); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	spans := exporter.GetSpans()
	var found bool
	for _, s := range spans {
		if s.Name != "analyze.Analyze" {
			continue
		}
		found = true
		attrs := make(map[string]any)
		for _, kv := range s.Attributes {
			attrs[string(kv.Key)] = kv.Value.AsInterface()
		}
		if attrs["callpoint.analyze.filename"] != "call.webm" {
			t.Errorf("filename attr = %v", attrs["callpoint.analyze.filename"])
		}
		if attrs["callpoint.analyze.has_location"] != true {
			t.Errorf("has_location attr = %v", attrs["callpoint.analyze.has_location"])
		}
	}
	if !found {
		t.Fatal("no analyze.Analyze span recorded")
	}
}
