package incident

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Sentinel errors surfaced synchronously to API callers.
var (
	ErrNotFound     = errors.New("incident not found")
	ErrEmptyPayload = errors.New("empty audio payload")
)

// putRetries bounds the read-merge-retry loop on version conflicts. Two
// writers contend on a record at most (job runner vs. operator action), so
// conflicts resolve in one retry in practice.
const putRetries = 5

// Analyzer is the external analysis collaborator: one call per submitted
// payload, returning a normalized analysis or an error. Never retried.
type Analyzer interface {
	Analyze(ctx context.Context, audio []byte, filename, mimeType string) (*Analysis, error)
}

// Service owns the incident lifecycle: submission, async analysis dispatch,
// reads, confirmation, and deletion.
type Service struct {
	store    Store
	analyzer Analyzer
	logger   log.Logger
	metrics  *Metrics
}

// NewService creates a new incident service.
func NewService(store Store, analyzer Analyzer, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit accepts an audio payload, inserts a processing stub, and returns the
// new record's ID immediately. Analysis runs asynchronously; its outcome
// (success or failure) becomes record state, never an error to this caller.
func (s *Service) Submit(ctx context.Context, audio []byte, filename, mimeType string) (string, error) {
	if len(audio) == 0 {
		s.metrics.ObserveSubmit("rejected")
		return "", ErrEmptyPayload
	}

	id := NewJobID()
	rec := &Record{
		ID:        id,
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.metrics.ObserveSubmit("error")
		return "", fmt.Errorf("store processing stub: %w", err)
	}
	s.metrics.ObserveSubmit("accepted")

	s.logger.Info(ctx, "call submitted",
		"incident_id", id,
		"filename", filename,
		"mime_type", mimeType,
		"bytes", len(audio),
	)

	// Detach from the request context so a closed connection cannot cancel
	// an analysis already in flight.
	go s.runAnalysis(context.WithoutCancel(ctx), id, audio, filename, mimeType)

	return id, nil
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// Confirm transitions a record to done and stamps ConfirmedAt. Returns
// ErrNotFound for unknown IDs; the store is left unchanged on any failure.
func (s *Service) Confirm(ctx context.Context, id string) (*Record, error) {
	for attempt := 0; attempt < putRetries; attempt++ {
		cur, ok, err := s.store.Get(ctx, id)
		if err != nil {
			s.metrics.ObserveConfirm("error")
			return nil, err
		}
		if !ok {
			s.metrics.ObserveConfirm("not_found")
			return nil, ErrNotFound
		}

		now := time.Now().UTC()
		cur.Status = StatusDone
		cur.ConfirmedAt = &now

		err = s.store.Put(ctx, cur)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			s.metrics.ObserveConfirm("error")
			return nil, err
		}

		s.metrics.ObserveConfirm("confirmed")
		s.logger.Info(ctx, "incident confirmed", "incident_id", id)
		return cur, nil
	}
	s.metrics.ObserveConfirm("error")
	return nil, fmt.Errorf("confirm %s: %w", id, ErrVersionConflict)
}

// Delete removes a record. Returns ErrNotFound for unknown IDs.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "incident deleted", "incident_id", id)
	return nil
}

// runAnalysis drives the fixed submit → analyze → write pipeline for one job.
// Every outcome lands in the store as a needs_confirmation record; done is
// reserved for operator confirmation.
func (s *Service) runAnalysis(ctx context.Context, id string, audio []byte, filename, mimeType string) {
	L := s.logger.With("incident_id", id)
	start := time.Now()

	patch := &Record{ID: id, Status: StatusNeedsConfirmation}

	res, err := s.analyzer.Analyze(ctx, audio, filename, mimeType)
	if err != nil {
		L.Error(ctx, err, "analysis failed")
		s.metrics.ObserveAnalysis("failed", time.Since(start).Seconds())
		patch.Error = diagnostic(err)
	} else {
		s.metrics.ObserveAnalysis("analyzed", time.Since(start).Seconds())
		patch.Transcript = res.Transcript
		patch.EmergencyType = res.EmergencyType
		patch.Confidence = res.Confidence
		patch.Location = res.Location
		patch.Notes = res.Notes
		if patch.EmergencyType == "" {
			patch.EmergencyType = "Unknown"
		}
		if patch.Transcript == "" {
			patch.Transcript = "Emergency at " + addressOrUnknown(res.Location)
		}
	}

	if err := s.mergePut(ctx, patch); err != nil {
		L.Error(ctx, err, "failed to persist analysis outcome")
		return
	}

	L.Info(ctx, "analysis recorded",
		"outcome", analysisOutcome(patch),
		"duration", time.Since(start).Seconds(),
		"has_location", patch.Location != nil,
	)
}

// mergePut applies patch over the stored record with bounded retries on
// version conflicts. Fields already present survive unless the patch
// explicitly replaces them.
func (s *Service) mergePut(ctx context.Context, patch *Record) error {
	for attempt := 0; attempt < putRetries; attempt++ {
		cur, _, err := s.store.Get(ctx, patch.ID)
		if err != nil {
			return err
		}
		next := Merge(cur, patch)
		if next.CreatedAt.IsZero() {
			next.CreatedAt = time.Now().UTC()
		}

		err = s.store.Put(ctx, next)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("merge put %s: %w", patch.ID, ErrVersionConflict)
}

func analysisOutcome(patch *Record) string {
	if patch.Error != "" {
		return "failed"
	}
	return "analyzed"
}

func addressOrUnknown(loc *Location) string {
	if loc != nil && loc.Address != "" {
		return loc.Address
	}
	return "unknown location"
}

// diagnostic shortens an analysis error to a record-sized string.
func diagnostic(err error) string {
	const limit = 256
	msg := err.Error()
	if len(msg) > limit {
		msg = msg[:limit-3] + "..."
	}
	return msg
}
