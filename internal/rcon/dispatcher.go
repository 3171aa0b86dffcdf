// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package rcon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

const breakerName = "rcon"

// ErrRateLimited is returned when the per-minute command budget is
// exhausted.
var ErrRateLimited = errors.New("rcon: rate limit exceeded")

// Executor runs a single already-sanitized command.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Dispatcher is the safe path to the game console: it sanitizes,
// rate-limits and circuit-breaks commands before they reach the wire.
type Dispatcher struct {
	exec    Executor
	client  *Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// NewDispatcher builds a dispatcher backed by a real RCON client.
func NewDispatcher(cfg *config.RCONConfig) *Dispatcher {
	client := NewClient(cfg)
	d := newDispatcherWithExecutor(client, cfg.CommandsPerMin)
	d.client = client
	return d
}

func newDispatcherWithExecutor(exec Executor, perMin int) *Dispatcher {
	if perMin <= 0 {
		perMin = 10
	}

	d := &Dispatcher{
		exec:    exec,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
	}

	d.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateToFloat(gobreaker.StateClosed))
	return d
}

// Dispatch validates and runs a raw console command, returning the
// server's response.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) (string, error) {
	command, err := Sanitize(raw)
	if err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			metrics.RecordRCONRejected(rej.Reason)
		}
		logging.Warn().Err(err).Msg("RCON command rejected")
		return "", err
	}

	if !d.limiter.Allow() {
		metrics.RecordRCONRejected(ReasonRateLimited)
		logging.Warn().Str("command", firstToken(command)).Msg("RCON command rate limited")
		return "", ErrRateLimited
	}

	start := time.Now()
	response, err := d.breaker.Execute(func() (string, error) {
		return d.exec.Execute(ctx, command)
	})

	d.recordBreakerResult(err)
	metrics.RecordRCONCommand(firstToken(command), time.Since(start), err)

	if err != nil {
		logging.Error().Err(err).Str("command", firstToken(command)).Msg("RCON command failed")
		return "", err
	}
	return response, nil
}

// State reports the circuit breaker state for diagnostics.
func (d *Dispatcher) State() string {
	return stateToString(d.breaker.State())
}

// Close releases the underlying connection if the dispatcher owns one.
func (d *Dispatcher) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *Dispatcher) recordBreakerResult(err error) {
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(float64(d.breaker.Counts().ConsecutiveFailures))
	}
}

func firstToken(command string) string {
	if fields := strings.Fields(command); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return command
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
