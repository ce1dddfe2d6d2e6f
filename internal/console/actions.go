package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// Geocoder resolves a free-form address to coordinates, first/best result.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*incident.Location, error)
}

// ErrNoPlacement means a manual placement request carried neither usable
// coordinates nor an address.
var ErrNoPlacement = errors.New("console: coordinates or address required")

// Console binds the client, the local view, and the geocoding collaborator
// into the operator actions.
type Console struct {
	client   *Client
	view     *View
	geocoder Geocoder
	logger   log.Logger
}

// New creates a Console.
func New(client *Client, view *View, geocoder Geocoder, logger log.Logger) *Console {
	if logger == nil {
		logger = log.Nop()
	}
	return &Console{
		client:   client,
		view:     view,
		geocoder: geocoder,
		logger:   logger,
	}
}

// View exposes the local view for rendering.
func (c *Console) View() *View {
	return c.view
}

// Confirm finalizes a record server-side and merges the response into the
// view. On failure the view is untouched and the error is returned to the
// caller; the transition is never partially applied.
func (c *Console) Confirm(ctx context.Context, id string) (*incident.Record, error) {
	rec, err := c.client.Confirm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("confirm %s: %w", id, err)
	}

	c.view.MergeByID(rec)
	c.view.ClearPendingManual(id)
	c.logger.Info(ctx, "incident confirmed", "incident_id", id)
	return rec, nil
}

// ManualPlacement is an operator request to drop a marker by hand.
// Coordinates take precedence; an address is geocoded when they are absent.
type ManualPlacement struct {
	Lat     *float64
	Lng     *float64
	Address string
}

// PlaceManual synthesizes a client-local record in needs_confirmation and
// inserts it at the front of the view (optimistic, pre-dating any server
// acknowledgment). A failed geocode surfaces the error and inserts nothing.
func (c *Console) PlaceManual(ctx context.Context, req ManualPlacement) (*incident.Record, error) {
	var loc *incident.Location

	switch {
	case req.Lat != nil && req.Lng != nil:
		loc = &incident.Location{Lat: *req.Lat, Lng: *req.Lng, Address: req.Address}
	case req.Address != "":
		if c.geocoder == nil {
			return nil, errors.New("console: no geocoder configured for address placement")
		}
		resolved, err := c.geocoder.Resolve(ctx, req.Address)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", req.Address, err)
		}
		loc = resolved
	default:
		return nil, ErrNoPlacement
	}

	rec := &incident.Record{
		ID:            incident.NewManualID(),
		Status:        incident.StatusNeedsConfirmation,
		CreatedAt:     time.Now().UTC(),
		EmergencyType: "Manual",
		Location:      loc,
	}
	if loc.Address != "" {
		rec.Transcript = "Operator note: " + loc.Address
	}

	c.view.InsertFront(rec)
	c.view.SetPendingManual(rec.ID)
	c.logger.Info(ctx, "manual marker placed", "incident_id", rec.ID, "lat", loc.Lat, "lng", loc.Lng)
	return rec.Clone(), nil
}

// Keep reverses an unconfirmed decision: ConfirmedAt is cleared, status
// stays as-is. Local-only.
func (c *Console) Keep(id string) {
	c.view.Keep(id)
}

// Delete removes the record from the local view and clears any
// pending-confirmation linkage. For server-assigned ids the authoritative
// copy is deleted best-effort; a server failure leaves the action local-only.
func (c *Console) Delete(ctx context.Context, id string) {
	c.view.Remove(id)

	if !incident.IsManualID(id) {
		if err := c.client.DeleteIncident(ctx, id); err != nil {
			c.logger.Warn(ctx, "server-side delete failed, record removed locally only", "incident_id", id, "error", err)
		}
	}
}
