package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyPinger fails with err for the first n pings, then succeeds.
type flakyPinger struct {
	failures int32
	err      error
	calls    atomic.Int32
}

func (f *flakyPinger) PingContext(ctx context.Context) error {
	if f.calls.Add(1) <= f.failures {
		return f.err
	}
	return nil
}

func TestProbeWaitsThroughRefusedConnections(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	pinger := &flakyPinger{failures: 3, err: refused}
	probe := NewProbe("database", pinger, time.Millisecond, 0, zap.NewNop())

	var transitions []ProbeState
	probe.OnChange(func(s ProbeState) { transitions = append(transitions, s) })

	assert.Equal(t, StateWaiting, probe.State())
	require.NoError(t, probe.Wait(context.Background()))

	assert.Equal(t, int32(4), pinger.calls.Load())
	assert.True(t, probe.Ready())
	assert.Equal(t, []ProbeState{StateReady}, transitions)
}

func TestProbeReturnsNonTransientErrors(t *testing.T) {
	authErr := &pgconn.PgError{Code: "42501", Message: "permission denied for schema public"}
	pinger := &flakyPinger{failures: 100, err: fmt.Errorf("ping: %w", authErr)}
	probe := NewProbe("database", pinger, time.Millisecond, 0, zap.NewNop())

	err := probe.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, int32(1), pinger.calls.Load())
	assert.Equal(t, StateWaiting, probe.State())
}

func TestProbeStopsOnCancel(t *testing.T) {
	pinger := &flakyPinger{failures: 1 << 30, err: syscall.ECONNREFUSED}
	probe := NewProbe("database", pinger, 5*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := probe.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, pinger.calls.Load(), int32(1))
	assert.False(t, probe.Ready())
}

func TestProbePingTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	pinger := PingerFunc(func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	probe := NewProbe("database", pinger, time.Millisecond, 5*time.Millisecond, zap.NewNop())

	require.NoError(t, probe.Wait(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProbeWaitsForDatabaseCreation(t *testing.T) {
	pinger := &flakyPinger{failures: 3, err: &pgconn.PgError{Code: "3D000", Message: `database "recipe" does not exist`}}
	probe := NewProbe("database", pinger, time.Millisecond, 0, zap.NewNop())

	require.NoError(t, probe.Wait(context.Background()))
	assert.Equal(t, int32(4), pinger.calls.Load())
	assert.True(t, probe.Ready())
}

func TestIsUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("no route to host")}, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "db"}, true},
		{"starting up", &pgconn.PgError{Code: "57P03"}, true},
		{"role not created yet", &pgconn.PgError{Code: "28P01"}, true},
		{"database not created yet", fmt.Errorf("ping: %w", &pgconn.PgError{Code: "3D000"}), true},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"mysql unknown database", &mysql.MySQLError{Number: 1049, Message: "Unknown database 'recipe'"}, true},
		{"mysql syntax error", &mysql.MySQLError{Number: 1064}, false},
		{"other", errors.New("unsupported driver"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUnavailable(tc.err))
		})
	}
}

func TestGormPingerAgainstSQLite(t *testing.T) {
	db := OpenTestDB(t)
	probe := NewProbe("database", GormPinger(db), time.Millisecond, time.Second, zap.NewNop())
	require.NoError(t, probe.Wait(context.Background()))
	assert.Equal(t, "READY", probe.State().String())
}
