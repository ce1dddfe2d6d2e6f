package callapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/callpoint/internal/incident"
	"github.com/linnemanlabs/callpoint/internal/notify/dispatch"
)

// IncidentService defines the business operations callapi needs.
type IncidentService interface {
	Submit(ctx context.Context, audio []byte, filename, mimeType string) (string, error)
	Get(ctx context.Context, id string) (*incident.Record, bool, error)
	List(ctx context.Context) ([]*incident.Record, error)
	Confirm(ctx context.Context, id string) (*incident.Record, error)
	Delete(ctx context.Context, id string) error
}

// Dispatcher forwards operator messages to the dispatch collaborator.
type Dispatcher interface {
	Send(ctx context.Context, msg *dispatch.Message) error
}

// maxUploadBytes caps a single call recording. A ten-minute webm/opus call
// is well under this.
const maxUploadBytes = 32 << 20

// API holds dependencies for HTTP handlers.
type API struct {
	logger     log.Logger
	svc        IncidentService
	dispatcher Dispatcher
}

// New creates a new API handler.
func New(logger log.Logger, svc IncidentService, dispatcher Dispatcher) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("incident service is required"))
	}
	return &API{
		logger:     logger,
		svc:        svc,
		dispatcher: dispatcher,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calls", a.handleSubmitCall)
		r.Get("/calls/{id}", a.handleGetCall)
		r.Get("/incidents", a.handleListIncidents)
		r.Delete("/incidents/{id}", a.handleDeleteIncident)
		r.Post("/confirm", a.handleConfirm)
		r.Post("/dispatch", a.handleDispatch)
	})
}

func (a *API) handleGetCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("callpoint.incident.id", id))

	rec, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get incident", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		// Unknown ids answer as still-processing stubs so a poller that
		// races the submit write never sees a hard failure.
		writeJSON(w, http.StatusOK, &incident.Record{ID: id, Status: incident.StatusProcessing})
		return
	}

	span.SetAttributes(attribute.String("callpoint.incident.status", string(rec.Status)))
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
