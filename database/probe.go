package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProbeState is the readiness of a backing store.
type ProbeState int32

const (
	StateWaiting ProbeState = iota
	StateReady
)

func (s ProbeState) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateReady:
		return "READY"
	default:
		return fmt.Sprintf("ProbeState(%d)", int32(s))
	}
}

// Pinger is anything whose availability can be checked with a round trip.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// GormPinger pings the pool underneath a gorm handle.
func GormPinger(db *gorm.DB) Pinger {
	return PingerFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// Probe blocks until its Pinger succeeds. It never gives up on unavailable errors;
// only context cancellation or an error that is not an availability problem ends it early.
type Probe struct {
	name        string
	pinger      Pinger
	interval    time.Duration
	pingTimeout time.Duration
	logger      *zap.Logger

	state     atomic.Int32
	mu        sync.Mutex
	listeners []func(ProbeState)
}

// NewProbe creates a probe in the WAITING state.
func NewProbe(name string, pinger Pinger, interval, pingTimeout time.Duration, logger *zap.Logger) *Probe {
	if interval <= 0 {
		interval = time.Second
	}
	return &Probe{
		name:        name,
		pinger:      pinger,
		interval:    interval,
		pingTimeout: pingTimeout,
		logger:      logger.Named("probe").With(zap.String("target", name)),
	}
}

// OnChange registers a callback invoked on every state transition.
func (p *Probe) OnChange(fn func(ProbeState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// State returns the current state; safe for concurrent use.
func (p *Probe) State() ProbeState {
	return ProbeState(p.state.Load())
}

// Ready reports whether the probe has reached READY.
func (p *Probe) Ready() bool {
	return p.State() == StateReady
}

func (p *Probe) transition(s ProbeState) {
	if ProbeState(p.state.Swap(int32(s))) == s {
		return
	}
	p.mu.Lock()
	listeners := append([]func(ProbeState){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Wait runs the WAITING -> READY loop.
func (p *Probe) Wait(ctx context.Context) error {
	p.logger.Info("waiting for " + p.name)
	attempts := 0
	for {
		attempts++
		err := p.ping(ctx)
		if err == nil {
			p.transition(StateReady)
			p.logger.Info(p.name+" available", zap.Int("attempts", attempts))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsUnavailable(err) {
			p.logger.Error(p.name+" check failed", zap.Error(err))
			return fmt.Errorf("%s check failed: %w", p.name, err)
		}

		p.logger.Info(p.name+" unavailable, retrying",
			zap.Duration("interval", p.interval),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Probe) ping(ctx context.Context) error {
	if p.pingTimeout <= 0 {
		return p.pinger.PingContext(ctx)
	}
	pingCtx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()
	err := p.pinger.PingContext(pingCtx)
	// A per-attempt timeout is an availability problem, not a caller cancellation.
	if err != nil && ctx.Err() == nil && errors.Is(pingCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("ping timed out: %w", errUnavailable)
	}
	return err
}

var errUnavailable = errors.New("database unavailable")

// Server errors that occur while a database container is still coming up: the server
// is starting or shutting down, the database or role has not been created yet, or the
// connection slots are taken. They are retried like network errors.
var (
	retryablePgCodes = map[string]bool{
		"57P01": true, // admin_shutdown
		"57P02": true, // crash_shutdown
		"57P03": true, // cannot_connect_now
		"53300": true, // too_many_connections
		"3D000": true, // invalid_catalog_name
		"28000": true, // invalid_authorization_specification
		"28P01": true, // invalid_password
	}
	retryableMySQLErrors = map[uint16]bool{
		1040: true, // ER_CON_COUNT_ERROR
		1045: true, // ER_ACCESS_DENIED_ERROR
		1049: true, // ER_BAD_DB_ERROR
		1053: true, // ER_SERVER_SHUTDOWN
	}
)

// IsUnavailable reports whether err means the server cannot be used yet, as opposed
// to an error that retrying cannot fix.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errUnavailable) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	// Anything that failed while establishing a postgres connection.
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryablePgCodes[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08") // connection_exception class
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return retryableMySQLErrors[myErr.Number]
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
