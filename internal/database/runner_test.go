package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn implements driverConn without a real server. onExec, when set,
// decides the outcome of Exec calls; closeErr is what Close reports.
type fakeConn struct {
	mu       sync.Mutex
	closed   bool
	onExec   func(sql string) error
	closeErr error
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	handler := f.onExec
	f.mu.Unlock()
	if handler != nil {
		if err := handler(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeConn: Query not supported")
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (f *fakeConn) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeConn) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestLogger() *zerolog.Logger {
	log := zerolog.Nop()
	return &log
}

func newTestClient(dial dialFunc) *Client {
	return &Client{dial: dial, log: newTestLogger()}
}

func newTestRunner(dial dialFunc) *Runner {
	return NewRunner(newTestClient(dial), nil, newTestLogger())
}

// healthyDial hands out fresh working connections and counts how often it is
// asked for one.
func healthyDial(dials *int32) dialFunc {
	return func(ctx context.Context) (driverConn, error) {
		atomic.AddInt32(dials, 1)
		return &fakeConn{}, nil
	}
}

func TestSubmitConcurrentResultsStayIsolated(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	const n = 32
	results := make([]any, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Submit(context.Background(), func(ctx context.Context) (any, error) {
				return i * 7, nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, i*7, results[i], "result for submitter %d leaked from another op", i)
	}
}

func TestSubmitSerializesSharedState(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	// Deliberately unsynchronized: the worker must be the only goroutine
	// touching it.
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
				counter++
				return counter, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestEnsureLoopConcurrentCreatesExactlyOneWorker(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	const n = 20
	handles := make([]*loopHandle, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = r.ensureLoop()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, r.Starts())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, handles[0], handles[i])
	}
}

func TestRunnerRestartsAfterClose(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))

	_, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "first", nil
	})
	require.NoError(t, err)
	require.True(t, r.Running())

	require.NoError(t, r.Close(context.Background()))
	assert.False(t, r.Running())

	// A fresh worker comes up transparently on the next submission.
	out, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", out)
	assert.Equal(t, 2, r.Starts())

	require.NoError(t, r.Close(context.Background()))
}

func TestCloseWithoutWorkerIsNoOp(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))

	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 0, r.Starts())
	assert.False(t, r.Running())

	// Idempotent: closing again changes nothing.
	require.NoError(t, r.Close(context.Background()))
}

func TestCloseDrainsQueuedWork(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))

	started := make(chan struct{})
	release := make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
		firstDone <- err
	}()
	<-started

	// The worker is busy, so this submitter parks on the hand-off.
	type outcome struct {
		value any
		err   error
	}
	secondDone := make(chan outcome, 1)
	go func() {
		out, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return "drained", nil
		})
		secondDone <- outcome{value: out, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- r.Close(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-firstDone)
	second := <-secondDone
	require.NoError(t, second.err)
	assert.Equal(t, "drained", second.value)
	require.NoError(t, <-closeDone)
	assert.False(t, r.Running())
}

func TestSubmitReturnsOpErrorVerbatim(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	sentinel := errors.New("boom")
	out, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, sentinel
	})

	assert.Nil(t, out)
	// Identity, not just equality: nothing may wrap or rewrite op errors.
	assert.Same(t, sentinel, err)
}

func TestSubmitRecoversPanickedOp(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	_, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op panicked")

	// The worker must survive a panicking op.
	assert.True(t, r.Running())
	out, err := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestSubmitHonorsCallerContext(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))

	release := make(chan struct{})
	started := make(chan struct{})

	blockerDone := make(chan struct{})
	go func() {
		defer close(blockerDone)
		_, _ = r.Submit(context.Background(), func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := r.Submit(ctx, func(ctx context.Context) (any, error) {
			return nil, nil
		})
		waiterDone <- err
	}()

	cancel()
	select {
	case err := <-waiterDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("submit did not observe context cancellation")
	}

	close(release)
	<-blockerDone
	require.NoError(t, r.Close(context.Background()))
}

func TestInitIsIdempotentUnderConcurrency(t *testing.T) {
	var dials int32
	r := newTestRunner(healthyDial(&dials))
	defer r.Close(context.Background())

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Init(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Starts())
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials), "init must connect exactly once")

	// Close then Init again: the flag re-arms.
	require.NoError(t, r.Close(context.Background()))
	require.NoError(t, r.Init(context.Background()))
	assert.Equal(t, 2, r.Starts())
}

func TestCloseDisconnectsClientOnWorker(t *testing.T) {
	var dials int32
	r := newTestRunner(healthyDial(&dials))

	require.NoError(t, r.Init(context.Background()))
	require.True(t, r.Client().IsConnected())

	require.NoError(t, r.Close(context.Background()))
	assert.False(t, r.Client().IsConnected(), "close must disconnect before the worker exits")
}

func TestCallReturnsTypedResults(t *testing.T) {
	r := newTestRunner(healthyDial(new(int32)))
	defer r.Close(context.Background())

	type row struct{ Name string }

	got, err := Call(context.Background(), r, func(ctx context.Context, q Querier) (*row, error) {
		return &row{Name: "algebra"}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "algebra", got.Name)

	sentinel := errors.New("no such row")
	missing, err := Call(context.Background(), r, func(ctx context.Context, q Querier) (*row, error) {
		return nil, sentinel
	})
	assert.Nil(t, missing)
	assert.Same(t, sentinel, err)
}
