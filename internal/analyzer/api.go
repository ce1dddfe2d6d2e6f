// Package analyzer implements the analysis collaborator consumed by the
// intake server: audio in, transcript + classification + coordinates out.
// It chains an external transcription service, an LLM classifier, and the
// geocoding service; any stage failure is the job's failure.
package analyzer

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// Geocoder resolves the classifier's address line to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*incident.Location, error)
}

const maxUploadBytes = 32 << 20

// API holds dependencies for the analyzer's HTTP handlers.
type API struct {
	logger      log.Logger
	transcriber Transcriber
	classifier  Classifier
	geocoder    Geocoder
}

// New creates a new analyzer API handler.
func New(logger log.Logger, transcriber Transcriber, classifier Classifier, geocoder Geocoder) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if transcriber == nil || classifier == nil || geocoder == nil {
		panic(xerrors.New("transcriber, classifier and geocoder are required"))
	}
	return &API{
		logger:      logger,
		transcriber: transcriber,
		classifier:  classifier,
		geocoder:    geocoder,
	}
}

// RegisterRoutes attaches analyzer endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.handleRoot)
	r.Post("/location", a.handleLocation)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "callpoint analyzer ready"})
}

// handleLocation runs the full analysis chain for one recording. Coordinates
// are returned as strings, which the intake server's normalization layer
// parses tolerantly.
func (a *API) handleLocation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to read uploaded audio")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transcript, err := a.transcriber.Transcribe(r.Context(), audio, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		a.logger.Error(r.Context(), err, "transcription failed")
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	cls, err := a.classifier.Classify(r.Context(), transcript)
	if err != nil {
		a.logger.Error(r.Context(), err, "classification failed")
		writeError(w, http.StatusBadGateway, "classification failed")
		return
	}

	loc, err := a.geocoder.Resolve(r.Context(), cls.Address)
	if err != nil {
		a.logger.Error(r.Context(), err, "geocoding failed", "address", cls.Address)
		writeError(w, http.StatusBadGateway, "geocoding failed")
		return
	}

	a.logger.Info(r.Context(), "call analyzed",
		"incident_type", cls.Incident,
		"address", loc.Address,
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"Address":    loc.Address,
		"Incident":   cls.Incident,
		"lat":        strconv.FormatFloat(loc.Lat, 'f', -1, 64),
		"long":       strconv.FormatFloat(loc.Lng, 'f', -1, 64),
		"transcript": transcript,
	})
}
