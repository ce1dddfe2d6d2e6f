package console

import (
	"context"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// Poll cadence is a tunable, not a correctness parameter. The defaults match
// a ten-minute analysis budget at a five-second tick.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 120
)

// ErrPollTimeout means the per-job polling window was exhausted before the
// job reached a terminal state. The view record is marked timed_out; an
// analysis already in flight server-side is not cancelled.
var ErrPollTimeout = errors.New("console: poll attempts exhausted")

// Poller keeps a View reconciled with the server.
type Poller struct {
	client      *Client
	view        *View
	logger      log.Logger
	interval    time.Duration
	maxAttempts int
}

// NewPoller creates a poller over the given client and view.
func NewPoller(client *Client, view *View, logger log.Logger, interval time.Duration, maxAttempts int) *Poller {
	if logger == nil {
		logger = log.Nop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{
		client:      client,
		view:        view,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Run polls the incident list until ctx is done, reconciling each snapshot
// into the view. Transient fetch errors are logged and skipped; the next
// tick retries.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tickList(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tickList(ctx)
		}
	}
}

func (p *Poller) tickList(ctx context.Context) {
	recs, err := p.client.ListIncidents(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn(ctx, "incident list fetch failed, will retry", "error", err)
		}
		return
	}
	p.view.Reconcile(recs)
}

// PollJob tracks one in-flight submission: it re-fetches the record each
// tick, merges it field-by-field into the view, and stops once the job is
// done with a location. Exhausting the attempt budget marks the view record
// timed_out and returns ErrPollTimeout; stopping never cancels the analysis
// itself.
func (p *Poller) PollJob(ctx context.Context, id string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempts := 0; attempts < p.maxAttempts; attempts++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		rec, err := p.client.GetCall(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn(ctx, "job fetch failed, will retry", "incident_id", id, "error", err)
			continue
		}

		p.view.MergeByID(rec)

		if rec.Status == incident.StatusDone && rec.Location != nil {
			p.logger.Info(ctx, "job finalized", "incident_id", id)
			return nil
		}
	}

	p.view.SetStatus(id, incident.StatusTimedOut)
	p.logger.Warn(ctx, "job polling timed out", "incident_id", id, "attempts", p.maxAttempts)
	return ErrPollTimeout
}
