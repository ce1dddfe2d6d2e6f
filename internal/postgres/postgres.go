// Package postgres owns connection-pool construction for the intake server,
// wiring otel query tracing and slow-query logging into pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/go-core/log"
)

// slowQueryThreshold controls which queries get a structured log line.
const slowQueryThreshold = 250 * time.Millisecond

type ctxKey string

const ctxKeyStart ctxKey = "pgx.start"

// NewPool builds a pgx pool with tracing enabled and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.ConnConfig.Tracer = &loggingTracer{inner: otelpgx.NewTracer()}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// loggingTracer wraps another pgx.QueryTracer (otelpgx) and adds a
// structured log line for slow or failed queries.
type loggingTracer struct {
	inner pgx.QueryTracer
}

func (t *loggingTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	// Let the inner tracer (otelpgx) create its span first.
	ctx = t.inner.TraceQueryStart(ctx, conn, data)
	return context.WithValue(ctx, ctxKeyStart, time.Now())
}

func (t *loggingTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	t.inner.TraceQueryEnd(ctx, conn, data)

	start, ok := ctx.Value(ctxKeyStart).(time.Time)
	if !ok {
		return
	}
	dur := time.Since(start)
	if data.Err == nil && dur < slowQueryThreshold {
		return
	}

	L := log.FromContext(ctx)
	if data.Err != nil {
		L.Error(ctx, data.Err, "query failed", "duration_ms", dur.Milliseconds())
		return
	}
	L.Warn(ctx, "slow query", "duration_ms", dur.Milliseconds())
}
