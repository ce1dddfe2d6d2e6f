// Package analyze is the client for the external analysis collaborator: one
// multipart POST per submitted payload, returning a transcript,
// classification, and candidate coordinates. Failures are never retried
// here; the caller records them as incident state.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/callpoint/internal/analyze")

// Analysis can take as long as a transcription plus an LLM round-trip.
const httpTimeout = 120 * time.Second

// Client calls the analysis service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new analysis client for the given endpoint.
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// Analyze forwards the audio payload to the analysis service and returns the
// normalized result. A non-2xx response, transport error, or malformed
// payload is an analysis failure.
func (c *Client) Analyze(ctx context.Context, audio []byte, filename, mimeType string) (*incident.Analysis, error) {
	ctx, span := tracer.Start(ctx, "analyze.Analyze", trace.WithAttributes(
		attribute.String("callpoint.analyze.filename", filename),
		attribute.Int("callpoint.analyze.bytes", len(audio)),
	))
	defer span.End()

	if filename == "" {
		filename = "call.webm"
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out, err := parsePayload(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Bool("callpoint.analyze.has_location", out.Location != nil))
	return out, nil
}
