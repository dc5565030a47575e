package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassOperation},
		{"context canceled", context.Canceled, ClassOperation},
		{"context deadline", context.DeadlineExceeded, ClassOperation},
		{"wrapped cancellation", fmt.Errorf("query aborted: %w", context.Canceled), ClassOperation},
		{"no rows", pgx.ErrNoRows, ClassOperation},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ClassOperation},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, ClassOperation},
		{"syntax error", &pgconn.PgError{Code: "42601"}, ClassOperation},
		{"connection exception", &pgconn.PgError{Code: "08000"}, ClassConnection},
		{"connection failure", &pgconn.PgError{Code: "08006"}, ClassConnection},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ClassConnection},
		{"crash shutdown", &pgconn.PgError{Code: "57P02"}, ClassConnection},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, ClassConnection},
		{"too many connections", &pgconn.PgError{Code: "53300"}, ClassConnection},
		{"net op error", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, ClassConnection},
		{"eof", io.EOF, ClassConnection},
		{"unexpected eof", io.ErrUnexpectedEOF, ClassConnection},
		{"connection refused", syscall.ECONNREFUSED, ClassConnection},
		{"broken pipe", fmt.Errorf("write failed: %w", syscall.EPIPE), ClassConnection},
		{"plain application error", errors.New("course has no seats left"), ClassOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(io.EOF))
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(pgx.ErrNoRows))
}
