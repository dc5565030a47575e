// Package database owns all access to PostgreSQL.
//
// The driver handle here is a single *pgx.Conn, which is not safe for
// concurrent use. Instead of a pool, the package runs one long-lived worker
// goroutine (Runner) that executes every unit of database work in order;
// request goroutines submit work and block for the result. The Client wraps
// the connection itself and repairs it when it breaks.
//
// It handles:
//   - building a DSN from config
//   - dialing and recycling the single pgx connection
//   - scoped connection acquisition with typed failure classification
//   - wiring query tracing/logging (pgx tracelog)
//   - optional New Relic instrumentation (nrpgx5)
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
	loggerConfig "github.com/tutoriapp/backend/internal/logger"
)

// Querier is the query surface handed to units of work. *pgx.Conn satisfies
// it; tests substitute fakes.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// driverConn is the slice of *pgx.Conn the client manages.
type driverConn interface {
	Querier
	Close(ctx context.Context) error
	IsClosed() bool
}

// dialFunc establishes a fresh connection. The default dials PostgreSQL with
// the config-derived DSN; tests inject stubs.
type dialFunc func(ctx context.Context) (driverConn, error)

// Client wraps the single database connection and its connected/disconnected
// state.
//
// State transitions only ever happen on the runner's worker goroutine: every
// path that connects or disconnects runs inside a submitted unit of work or
// inside the worker's own shutdown sequence. The mutex exists for the benefit
// of readers (health reporting, tests); it is not what serializes access.
type Client struct {
	dial dialFunc
	log  *zerolog.Logger

	mu   sync.Mutex
	conn driverConn // nil when disconnected
}

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig. This type acts as an adapter so
// both the New Relic tracer and the local tracelog tracer can observe the
// same connection.
type multiTracer struct {
	tracers []any
}

// TraceQueryStart implements the pgx tracer interface. It calls every chained
// tracer that supports query-start tracing, threading the context through.
func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

// TraceQueryEnd implements the pgx tracer interface.
func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// dsnFromConfig builds the PostgreSQL connection string. Host and port are
// joined safely (IPv6 gets brackets) and the password is URL-escaped so it
// cannot break the URL structure.
func dsnFromConfig(cfg *config.Config) string {
	hostPort := net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	encodedPassword := url.QueryEscape(cfg.Database.Password)

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		encodedPassword,
		hostPort,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

// NewClient prepares the connection factory without dialing anything yet; the
// first unit of work (or Runner.Init) establishes the connection.
//
// Behavior:
//   - Build DSN safely (URL-escape password)
//   - Parse DSN into a pgx connection config
//   - Attach New Relic tracer if available
//   - In local env: attach SQL tracelogger (and chain tracers if both exist)
func NewClient(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Client, error) {
	connConfig, err := pgx.ParseConfig(dsnFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	if cfg.Database.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = time.Duration(cfg.Database.ConnectTimeout) * time.Second
	}

	// New Relic PostgreSQL instrumentation takes the single tracer slot.
	if loggerService != nil && loggerService.GetApplication() != nil {
		connConfig.Tracer = nrpgx5.NewTracer()
	}

	// In local env, enable SQL query logging using pgx tracelog + zerolog.
	// Very noisy, which is why it stays out of every other env.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)

		localTracer := &tracelog.TraceLog{
			// pgxzero adapts zerolog to the pgx tracelog.Logger interface.
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		}

		if connConfig.Tracer != nil {
			connConfig.Tracer = &multiTracer{
				tracers: []any{connConfig.Tracer, localTracer},
			}
		} else {
			connConfig.Tracer = localTracer
		}
	}

	client := &Client{
		log: logger,
		dial: func(ctx context.Context) (driverConn, error) {
			conn, err := pgx.ConnectConfig(ctx, connConfig)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}

	return client, nil
}

// WithConn runs body with a live connection, connecting first if needed.
//
// Contract:
//   - The connection is deliberately left open after body returns, so the
//     next unit of work skips the dial.
//   - If the initial connect fails, the client gets exactly one repair cycle
//     (best-effort disconnect, then reconnect); if that also fails, the
//     driver error comes back wrapped in ErrConnect.
//   - If body fails with a connection-class error, the client disconnects and
//     reconnects once, both best-effort with failures logged and swallowed,
//     and body's ORIGINAL error is returned unchanged. Body is never retried.
//   - Any other failure from body propagates immediately and costs nothing.
func (c *Client) WithConn(ctx context.Context, body func(ctx context.Context, q Querier) error) error {
	q, err := c.ensureConnected(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("initial connect failed, recycling once")
		if derr := c.Disconnect(ctx); derr != nil {
			c.log.Warn().Err(derr).Msg("best-effort disconnect failed")
		}
		q, err = c.ensureConnected(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConnect, err)
		}
	}

	err = body(ctx, q)
	if err == nil {
		return nil
	}
	if !IsConnectionError(err) {
		return err
	}

	// One recycle, then surface the original failure untouched.
	c.log.Warn().Err(err).Msg("connection fault during unit of work, recycling connection")
	if derr := c.Disconnect(ctx); derr != nil {
		c.log.Warn().Err(derr).Msg("best-effort disconnect failed")
	}
	if _, cerr := c.ensureConnected(ctx); cerr != nil {
		c.log.Warn().Err(cerr).Msg("reconnect after connection fault failed")
	}
	return err
}

// Ping verifies the connection end to end, dialing first when disconnected.
func (c *Client) Ping(ctx context.Context) error {
	return c.WithConn(ctx, func(ctx context.Context, q Querier) error {
		_, err := q.Exec(ctx, "select 1")
		return err
	})
}

// IsConnected reports whether the client currently holds a usable connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Disconnect closes and releases the current connection, if any. The handle
// is dropped even when close reports an error.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	return conn.Close(ctx)
}

// Close disconnects with a lifecycle log line. Used at shutdown.
func (c *Client) Close(ctx context.Context) error {
	c.log.Info().Msg("closing database connection")
	return c.Disconnect(ctx)
}

// ensureConnected returns the live connection, dialing when there is none.
// A handle the driver reports closed counts as disconnected.
func (c *Client) ensureConnected(ctx context.Context) (Querier, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil && !conn.IsClosed() {
		return conn, nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info().Msg("connected to the database")
	return conn, nil
}
