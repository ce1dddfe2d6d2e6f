package callapi

import (
	"errors"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

func (a *API) handleSubmitCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		a.logger.Error(r.Context(), err, "failed to read uploaded audio")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	mimeType := header.Header.Get("Content-Type")

	id, err := a.svc.Submit(r.Context(), audio, header.Filename, mimeType)
	if err != nil {
		if errors.Is(err, incident.ErrEmptyPayload) {
			writeError(w, http.StatusBadRequest, "empty audio file")
			return
		}
		a.logger.Error(r.Context(), err, "failed to submit call")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("callpoint.incident.id", id))

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
