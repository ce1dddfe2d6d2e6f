// Package console implements the operator side of the intake pipeline: an
// HTTP client for the intake API, a local incident view that reconciles
// server snapshots with operator-created records, pollers that keep the view
// current, and the operator actions (confirm, manual placement, keep,
// delete).
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

const httpTimeout = 30 * time.Second

// Client talks to the intake API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the intake API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// SubmitCall uploads a recording and returns the server-assigned incident ID.
func (c *Client) SubmitCall(ctx context.Context, audio []byte, filename, mimeType string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("call-%d.webm", time.Now().UnixMilli())
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/calls", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit: server returned no id")
	}
	return out.ID, nil
}

// GetCall fetches a single record by ID.
func (c *Client) GetCall(ctx context.Context, id string) (*incident.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/calls/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var rec incident.Record
	if err := c.do(req, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListIncidents fetches the authoritative incident snapshot, newest first.
func (c *Client) ListIncidents(ctx context.Context) ([]*incident.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/incidents", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var recs []*incident.Record
	if err := c.do(req, http.StatusOK, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Confirm asks the server to finalize a record and returns the updated copy.
func (c *Client) Confirm(ctx context.Context, id string) (*incident.Record, error) {
	body, _ := json.Marshal(map[string]string{"id": id})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/confirm", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var rec incident.Record
	if err := c.do(req, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteIncident removes a record server-side.
func (c *Client) DeleteIncident(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/incidents/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, http.StatusNoContent, nil)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: server returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
