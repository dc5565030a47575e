// Package logger configure the application's logging,
// monitoring, and observability.
//
// It uses *ZeroLog* for logging and integrates with
// *New Relic* to instrument the codebase, forwarding logs,
// metrics, and traces for debugging
package logger

import (
	"io"
	"os"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
)

// LoggerService owns the New Relic application handle.
//
// It is nil-safe to pass around: a service with no application behaves as
// "observability disabled" and every consumer checks GetApplication() for nil
// before recording anything.
type LoggerService struct {
	app *newrelic.Application
	cfg *config.ObservabilityConfig
}

// GetApplication returns the New Relic application instance, or nil when the
// agent is not configured.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.app
}

// Shutdown flushes pending telemetry. Blocks at most until the agent decides
// it is done; safe to call with the agent disabled.
func (s *LoggerService) Shutdown() {
	if s == nil || s.app == nil {
		return
	}
	s.app.Shutdown(0)
}

// New builds the root application logger and the LoggerService.
//
// Behavior summary:
//   - Log level comes from observability config (with env-based defaulting).
//   - "console" format writes human-friendly output to stderr; anything else
//     writes JSON to stdout.
//   - When a New Relic license key is configured, the agent is started and,
//     if app log forwarding is enabled, the JSON stream is wrapped with the
//     zerologWriter integration so log lines carry trace linking metadata.
//
// A missing license key is not an error; the service is returned with a nil
// application and all instrumentation downgrades to no-ops.
func New(cfg *config.Config) (*zerolog.Logger, *LoggerService, error) {
	obs := cfg.Observability

	level, err := zerolog.ParseLevel(obs.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	service := &LoggerService{cfg: obs}

	if obs.NewRelic.LicenseKey != "" {
		opts := []newrelic.ConfigOption{
			newrelic.ConfigAppName(obs.ServiceName),
			newrelic.ConfigLicense(obs.NewRelic.LicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(obs.NewRelic.AppLogForwardingEnabled),
			newrelic.ConfigDistributedTracerEnabled(obs.NewRelic.DistributedTracingEnabled),
		}
		if obs.NewRelic.DebugLogging {
			opts = append(opts, newrelic.ConfigDebugLogger(os.Stdout))
		}

		app, err := newrelic.NewApplication(opts...)
		if err != nil {
			return nil, nil, err
		}
		service.app = app
	}

	var out io.Writer
	switch {
	case obs.Logging.Format == "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	case service.app != nil && obs.NewRelic.AppLogForwardingEnabled:
		// zerologWriter parses the JSON stream and forwards each line to the
		// agent, decorated with linking metadata.
		out = zerologWriter.New(os.Stdout, service.app)
	default:
		out = os.Stdout
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", obs.ServiceName).
		Str("env", obs.Environment).
		Logger()

	return &log, service, nil
}

// WithTraceContext returns a child logger carrying the transaction's trace
// and span ids, so log lines can be joined with APM traces.
func WithTraceContext(l zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return l
	}

	md := txn.GetTraceMetadata()
	ctx := l.With()
	if md.TraceID != "" {
		ctx = ctx.Str("trace.id", md.TraceID)
	}
	if md.SpanID != "" {
		ctx = ctx.Str("span.id", md.SpanID)
	}
	return ctx.Logger()
}

// NewPgxLogger builds the dedicated logger pgx's tracelog adapter writes
// SQL statements to. Console output on purpose: it only runs in local env.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// GetPgxTraceLogLevel maps the application log level onto pgx's tracelog
// levels. Debug logs full statements; anything quieter only surfaces
// warnings and errors from the driver.
func GetPgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelInfo
	}
}
