package database

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for the runner and client lifecycle.
//
// ErrRunnerStartTimeout and ErrConnect are startup-class: when they surface
// during boot the process should give up rather than limp along without a
// database. ErrRunnerStopTimeout is shutdown-class and deliberately non-fatal;
// callers log it and move on.
var (
	// ErrRunnerStartTimeout means the worker goroutine did not signal
	// readiness within the configured startup window.
	ErrRunnerStartTimeout = errors.New("database: runner did not become ready in time")

	// ErrRunnerStopTimeout means the worker goroutine did not finish draining
	// and exit within the configured shutdown window. The goroutine is
	// abandoned; it still disconnects on its own when it eventually drains.
	ErrRunnerStopTimeout = errors.New("database: runner did not stop in time")

	// ErrConnect wraps the driver error left after the connect-repair cycle
	// also failed. errors.Is(err, ErrConnect) identifies it; the driver cause
	// stays reachable through errors.As/Unwrap.
	ErrConnect = errors.New("database: could not establish connection")
)

// ErrorClass partitions failures seen while running a unit of work.
//
// Connection-class errors mean the link to the server is suspect and the
// scope guard should recycle it (disconnect + one reconnect). Everything
// else is operation-class: the server processed the request and answered,
// so the error belongs to the caller verbatim and the connection stays up.
type ErrorClass int

const (
	ClassOperation ErrorClass = iota
	ClassConnection
)

// SQLSTATE values that indicate the connection itself failed rather than the
// statement. Class 08 is "connection exception"; the 57P0x codes are server
// shutdown/termination; 53300 is the server refusing new connections.
var connectionSQLStates = map[string]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// Classify inspects err through typed checks only; no message matching.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOperation
	}

	// Cancellation belongs to the caller, not the link. A deadline blown by
	// the caller must not trigger a reconnect storm.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassOperation
	}

	// A PgError means the server answered. Statement failures (constraints,
	// syntax, missing rows upstream) are the caller's problem; only the
	// connection-exception states count against the link.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || connectionSQLStates[pgErr.Code] {
			return ClassConnection
		}
		return ClassOperation
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassConnection
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassConnection
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ClassConnection
	}

	// The driver reports errors raised before a request ever hit the wire
	// (closed or poisoned connection handles) as safe to retry.
	if pgconn.SafeToRetry(err) {
		return ClassConnection
	}

	return ClassOperation
}

// IsConnectionError reports whether err should cost the client its
// connection.
func IsConnectionError(err error) bool {
	return Classify(err) == ClassConnection
}
