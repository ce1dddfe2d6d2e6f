// Package pgstore provides a PostgreSQL implementation of incident.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/callpoint/internal/incident/pgstore")

//go:embed schema.sql
var schema string

// Store persists incident records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store over the given pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const incidentColumns = `id, status, created_at, transcript, emergency_type, confidence,
	lat, lng, address, caller_phone, flags, confirmed_at, notes, error, version`

// Get retrieves an incident record by ID.
func (s *Store) Get(ctx context.Context, id string) (*incident.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Put writes a full replacement of the record, guarded by its version. A
// stale version (or an insert racing an existing row) yields
// incident.ErrVersionConflict.
func (s *Store) Put(ctx context.Context, r *incident.Record) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	flags, err := marshalFlags(r.Flags)
	if err != nil {
		return err
	}
	lat, lng := splitLocation(r.Location)
	address := ""
	if r.Location != nil {
		address = r.Location.Address
	}

	var tag string
	if r.Version == 0 {
		query := `INSERT INTO incidents (` + incidentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
			ON CONFLICT (id) DO NOTHING`
		ct, err := s.pool.Exec(ctx, query,
			r.ID, r.Status, r.CreatedAt, r.Transcript, r.EmergencyType, r.Confidence,
			lat, lng, address, r.CallerPhone, flags, r.ConfirmedAt, r.Notes, r.Error)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("insert incident: %w", err)
		}
		tag = "insert"
		if ct.RowsAffected() == 0 {
			return incident.ErrVersionConflict
		}
	} else {
		query := `UPDATE incidents SET status = $2, transcript = $3, emergency_type = $4,
			confidence = $5, lat = $6, lng = $7, address = $8, caller_phone = $9,
			flags = $10, confirmed_at = $11, notes = $12, error = $13, version = version + 1
			WHERE id = $1 AND version = $14`
		ct, err := s.pool.Exec(ctx, query,
			r.ID, r.Status, r.Transcript, r.EmergencyType, r.Confidence,
			lat, lng, address, r.CallerPhone, flags, r.ConfirmedAt, r.Notes, r.Error, r.Version)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("update incident: %w", err)
		}
		tag = "update"
		if ct.RowsAffected() == 0 {
			return incident.ErrVersionConflict
		}
	}

	span.SetAttributes(attribute.String("callpoint.pgstore.write", tag))
	return nil
}

// List returns all incident records, unordered.
func (s *Store) List(ctx context.Context) ([]*incident.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []*incident.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return out, nil
}

// Delete removes a record. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "pgstore.Delete", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "DELETE"),
	))
	defer span.End()

	if _, err := s.pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete incident: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*incident.Record, error) {
	var (
		r           incident.Record
		lat, lng    *float64
		address     string
		flags       []byte
		confirmedAt *time.Time
	)
	err := row.Scan(&r.ID, &r.Status, &r.CreatedAt, &r.Transcript, &r.EmergencyType,
		&r.Confidence, &lat, &lng, &address, &r.CallerPhone, &flags, &confirmedAt,
		&r.Notes, &r.Error, &r.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan incident: %w", err)
	}

	if lat != nil && lng != nil {
		r.Location = &incident.Location{Lat: *lat, Lng: *lng, Address: address}
	}
	r.ConfirmedAt = confirmedAt
	if len(flags) > 0 {
		var f incident.Flags
		if err := json.Unmarshal(flags, &f); err != nil {
			return nil, fmt.Errorf("unmarshal flags: %w", err)
		}
		r.Flags = &f
	}
	return &r, nil
}

func marshalFlags(f *incident.Flags) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal flags: %w", err)
	}
	return b, nil
}

func splitLocation(loc *incident.Location) (lat, lng *float64) {
	if loc == nil {
		return nil, nil
	}
	la, ln := loc.Lat, loc.Lng
	return &la, &ln
}
