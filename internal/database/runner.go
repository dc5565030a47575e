package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/config"
)

// Default bounds for the worker lifecycle, used when config leaves the knobs
// unset (tests construct the runner directly).
const (
	defaultStartTimeout = 5 * time.Second
	defaultStopTimeout  = 2 * time.Second
)

// Op is a unit of database work. It runs on the runner's worker goroutine,
// under the submitter's context, and its result or error is handed back to
// the submitter verbatim.
type Op func(ctx context.Context) (any, error)

type result struct {
	value any
	err   error
}

// call pairs an op with its one-shot result channel. The channel is buffered
// so the worker never blocks on a submitter that stopped waiting.
type call struct {
	ctx context.Context
	op  Op
	out chan result
}

// loopHandle is one incarnation of the worker goroutine.
//
// calls is unbuffered: a submission is handed directly to the worker, so
// "queued" work is exactly the set of submitters parked on the send. stop
// asks the worker to drain and exit; done is closed once it has.
type loopHandle struct {
	calls    chan *call
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (h *loopHandle) requestStop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Runner serializes all database work onto one long-lived worker goroutine.
//
// The worker owns the Client's connection: connect and disconnect only ever
// run there, either inside a submitted op's scope guard or in the worker's
// own shutdown sequence. Request goroutines interact with the database
// exclusively through Submit.
//
// The worker starts lazily on first use and survives across requests. After
// Close, the next Submit transparently brings up a fresh worker, so the
// runner is restartable. There is exactly one Runner per process, built in
// server.New and injected; the type itself holds no global state.
type Runner struct {
	client *Client
	log    *zerolog.Logger

	startTimeout time.Duration
	stopTimeout  time.Duration

	mu          sync.Mutex
	loop        *loopHandle
	initialized bool
	starts      int

	initMu sync.Mutex
}

// NewRunner wires a runner around client. Timeout knobs come from the
// database config; zero values fall back to the package defaults.
func NewRunner(client *Client, cfg *config.Config, logger *zerolog.Logger) *Runner {
	r := &Runner{
		client:       client,
		log:          logger,
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
	}
	if cfg != nil {
		if cfg.Database.RunnerStartTimeout > 0 {
			r.startTimeout = time.Duration(cfg.Database.RunnerStartTimeout) * time.Second
		}
		if cfg.Database.RunnerStopTimeout > 0 {
			r.stopTimeout = time.Duration(cfg.Database.RunnerStopTimeout) * time.Second
		}
	}
	return r
}

// Client exposes the wrapped client for units of work composed outside this
// package.
func (r *Runner) Client() *Client {
	return r.client
}

// Submit runs op on the worker goroutine and blocks until it finishes,
// returning its result or error untouched.
//
// The worker is created on demand. ctx bounds the wait and is the context op
// runs under; if the caller gives up, the op still runs to completion on the
// worker and its result is dropped. A worker that stopped between lookup and
// hand-off is replaced transparently.
func (r *Runner) Submit(ctx context.Context, op Op) (any, error) {
	for {
		h, err := r.ensureLoop()
		if err != nil {
			return nil, err
		}

		c := &call{ctx: ctx, op: op, out: make(chan result, 1)}

		select {
		case h.calls <- c:
			select {
			case res := <-c.out:
				return res.value, res.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		case <-h.done:
			// Stale handle; start over with a fresh worker.
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Ping submits a connectivity probe through the scope guard. Health checks
// use it so they exercise the same path real queries take.
func (r *Runner) Ping(ctx context.Context) error {
	_, err := r.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, r.client.Ping(ctx)
	})
	return err
}

// Init brings the worker up and verifies connectivity once per lifecycle.
//
// Safe under concurrent first requests: callers serialize on initMu and only
// the first performs the probe. After Close, Init arms again. A failure here
// is startup-class; the caller decides whether to abort boot.
func (r *Runner) Init(ctx context.Context) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	r.mu.Lock()
	done := r.initialized
	r.mu.Unlock()
	if done {
		return nil
	}

	if err := r.Ping(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()

	r.log.Info().Msg("database runner initialized")
	return nil
}

// Running reports whether a worker goroutine is currently alive.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loop == nil {
		return false
	}
	select {
	case <-r.loop.done:
		return false
	default:
		return true
	}
}

// Starts returns how many worker goroutines this runner has created.
func (r *Runner) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Close stops the worker: it drains already-queued work, disconnects the
// client on the worker goroutine, then exits. The join is bounded by the
// stop timeout; on timeout the goroutine is abandoned (it still finishes its
// sequence on its own) and ErrRunnerStopTimeout is returned for logging.
//
// The handle stays installed until the join resolves, so a submission racing
// Close lands on the draining worker instead of spawning a second one that
// would share the connection. Only after the join (or its timeout) is the
// handle released; the next Submit or Init then starts clean.
//
// Close with no live worker is a no-op, and Close is idempotent.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	h := r.loop
	r.initialized = false
	r.mu.Unlock()

	if h == nil {
		return nil
	}

	h.requestStop()

	release := func() {
		r.mu.Lock()
		if r.loop == h {
			r.loop = nil
		}
		r.mu.Unlock()
	}

	select {
	case <-h.done:
		release()
		r.log.Info().Msg("database runner stopped")
		return nil
	case <-time.After(r.stopTimeout):
		release()
		r.log.Error().Msg("database runner did not stop in time, abandoning worker")
		return ErrRunnerStopTimeout
	case <-ctx.Done():
		release()
		return ctx.Err()
	}
}

// ensureLoop returns the live worker handle, creating one under the mutex if
// there is none (or the previous one exited). The creator waits for the
// worker to signal readiness, bounded by the start timeout; on timeout the
// orphan is told to stop and ErrRunnerStartTimeout surfaces.
func (r *Runner) ensureLoop() (*loopHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loop != nil {
		select {
		case <-r.loop.done:
			r.loop = nil
		default:
			return r.loop, nil
		}
	}

	h := &loopHandle{
		calls: make(chan *call),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	ready := make(chan struct{})

	go r.run(h, ready)

	select {
	case <-ready:
	case <-time.After(r.startTimeout):
		h.requestStop()
		return nil, ErrRunnerStartTimeout
	}

	r.loop = h
	r.starts++
	r.log.Debug().Int("starts", r.starts).Msg("database worker started")
	return h, nil
}

// run is the worker body. One op at a time, in hand-off order; on stop it
// drains whatever submitters already queued, closes the database connection
// as its final act, and exits.
func (r *Runner) run(h *loopHandle, ready chan<- struct{}) {
	defer close(h.done)
	close(ready)

	for {
		select {
		case c := <-h.calls:
			c.out <- r.execute(c)
		case <-h.stop:
			for {
				select {
				case c := <-h.calls:
					c.out <- r.execute(c)
				default:
					// Disconnect happens here, on the worker, before the
					// loop is considered stopped.
					if err := r.client.Close(context.Background()); err != nil {
						r.log.Warn().Err(err).Msg("disconnect during runner shutdown failed")
					}
					return
				}
			}
		}
	}
}

// execute runs one op, converting a panic into an error for the submitter so
// the worker goroutine survives.
func (r *Runner) execute(c *call) (res result) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error().Interface("panic", v).Msg("database op panicked")
			res = result{err: fmt.Errorf("database: op panicked: %v", v)}
		}
	}()

	value, err := c.op(c.ctx)
	return result{value: value, err: err}
}
