package database

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectionFault() error {
	return &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
}

func TestWithConnLeavesConnectionOpen(t *testing.T) {
	var dials int32
	c := newTestClient(healthyDial(&dials))

	body := func(ctx context.Context, q Querier) error { return nil }

	require.NoError(t, c.WithConn(context.Background(), body))
	assert.True(t, c.IsConnected(), "connection must stay open after the body returns")

	// The second unit of work reuses the connection instead of dialing.
	require.NoError(t, c.WithConn(context.Background(), body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

func TestWithConnConnectionFaultRecyclesOnce(t *testing.T) {
	var dials int32
	conns := make([]*fakeConn, 0, 2)
	dial := func(ctx context.Context) (driverConn, error) {
		atomic.AddInt32(&dials, 1)
		conn := &fakeConn{}
		conns = append(conns, conn)
		return conn, nil
	}
	c := newTestClient(dial)

	fault := connectionFault()
	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		return fault
	})

	// The original error comes back untouched...
	assert.Same(t, fault, err)

	// ...after exactly one disconnect + reconnect cycle.
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
	require.Len(t, conns, 2)
	assert.True(t, conns[0].IsClosed(), "faulted connection must be closed")
	assert.False(t, conns[1].IsClosed())
	assert.True(t, c.IsConnected())
}

func TestWithConnOperationErrorLeavesConnectionAlone(t *testing.T) {
	var dials int32
	c := newTestClient(healthyDial(&dials))

	opErr := errors.New("duplicate key value violates unique constraint")
	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		return opErr
	})

	assert.Same(t, opErr, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials), "operation errors must not trigger reconnects")
	assert.True(t, c.IsConnected())
}

func TestWithConnInitialConnectGetsOneRepair(t *testing.T) {
	var dials int32
	dial := func(ctx context.Context) (driverConn, error) {
		if atomic.AddInt32(&dials, 1) == 1 {
			return nil, connectionFault()
		}
		return &fakeConn{}, nil
	}
	c := newTestClient(dial)

	ran := false
	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestWithConnConnectFailureAfterRepairIsStartupClass(t *testing.T) {
	var dials int32
	dial := func(ctx context.Context) (driverConn, error) {
		atomic.AddInt32(&dials, 1)
		return nil, connectionFault()
	}
	c := newTestClient(dial)

	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		t.Fatal("body must not run without a connection")
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	// One initial attempt plus one repair, never more.
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
	assert.False(t, c.IsConnected())
}

func TestWithConnReconnectFailureStillReturnsOriginalError(t *testing.T) {
	var dials int32
	dial := func(ctx context.Context) (driverConn, error) {
		if atomic.AddInt32(&dials, 1) == 1 {
			return &fakeConn{}, nil
		}
		return nil, errors.New("server went away")
	}
	c := newTestClient(dial)

	fault := connectionFault()
	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		return fault
	})

	// The failed best-effort reconnect is swallowed; the body's error wins.
	assert.Same(t, fault, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
	assert.False(t, c.IsConnected())
}

func TestWithConnDisconnectFailureIsSwallowed(t *testing.T) {
	var dials int32
	dial := func(ctx context.Context) (driverConn, error) {
		atomic.AddInt32(&dials, 1)
		return &fakeConn{closeErr: errors.New("close exploded")}, nil
	}
	c := newTestClient(dial)

	fault := connectionFault()
	err := c.WithConn(context.Background(), func(ctx context.Context, q Querier) error {
		return fault
	})

	assert.Same(t, fault, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestWithConnRedialsWhenDriverReportsClosed(t *testing.T) {
	var dials int32
	c := newTestClient(healthyDial(&dials))

	require.NoError(t, c.Ping(context.Background()))
	require.True(t, c.IsConnected())

	// Simulate the driver killing the connection out from under us (e.g.
	// after a context cancellation mid-protocol).
	c.mu.Lock()
	c.conn.(*fakeConn).closed = true
	c.mu.Unlock()
	require.False(t, c.IsConnected())

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
	assert.True(t, c.IsConnected())
}

func TestDisconnectWithoutConnectionIsNoOp(t *testing.T) {
	c := newTestClient(healthyDial(new(int32)))

	require.NoError(t, c.Disconnect(context.Background()))
	assert.False(t, c.IsConnected())
}
