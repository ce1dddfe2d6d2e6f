package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Transcriber turns a call recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, mimeType string) (string, error)
}

// Whisper-class models chew on long recordings; give them room.
const transcribeTimeout = 120 * time.Second

// HTTPTranscriber calls an external speech-to-text service that accepts a
// multipart upload and answers {"transcript": "..."}.
type HTTPTranscriber struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPTranscriber creates a transcription client for the given endpoint.
func NewHTTPTranscriber(endpoint string) *HTTPTranscriber {
	return &HTTPTranscriber{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: transcribeTimeout,
		},
	}
}

// Transcribe uploads the audio and returns the transcript.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, filename, mimeType string) (string, error) {
	if filename == "" {
		filename = "call.webm"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Transcript == "" {
		return "", fmt.Errorf("transcription service returned an empty transcript")
	}
	return out.Transcript, nil
}
