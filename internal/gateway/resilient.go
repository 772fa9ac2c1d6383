package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/metrics"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/patterns"
)

// Resilient runs every call of the wrapped gateway through a bulkhead, a
// circuit breaker and a per-call timeout. Client errors (not found, conflict,
// missing relation) pass through without counting as breaker failures.
type Resilient struct {
	next     Gateway
	breaker  *patterns.CircuitBreakerWrapper
	bulkhead *patterns.Bulkhead
	timeout  time.Duration
}

// ResilienceOptions configures NewResilient
type ResilienceOptions struct {
	Service      string
	Timeout      time.Duration
	BulkheadSize int
	BulkheadWait time.Duration
	Breaker      patterns.BreakerSettings
}

// NewResilient wraps next
func NewResilient(next Gateway, opts ResilienceOptions) *Resilient {
	if opts.BulkheadWait <= 0 {
		opts.BulkheadWait = patterns.DefaultBulkheadWait
	}
	if opts.Timeout == 0 {
		opts.Timeout = patterns.DefaultTimeout
	}
	if opts.Breaker == (patterns.BreakerSettings{}) {
		opts.Breaker = patterns.DefaultBreakerSettings
	}
	return &Resilient{
		next:     next,
		breaker:  patterns.NewCircuitBreaker("Gateway", opts.Service, opts.Breaker),
		bulkhead: patterns.NewBulkhead(opts.BulkheadSize, opts.BulkheadWait, "gateway", opts.Service),
		timeout:  opts.Timeout,
	}
}

// State reports the breaker state for status endpoints
func (r *Resilient) State() string {
	return r.breaker.GetState()
}

// Insert implements Gateway
func (r *Resilient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	var out Row
	err := r.call(ctx, table, OpInsert, func(ctx context.Context) error {
		var err error
		out, err = r.next.Insert(ctx, table, row)
		return err
	})
	return out, err
}

// Update implements Gateway
func (r *Resilient) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	var out []Row
	err := r.call(ctx, table, OpUpdate, func(ctx context.Context) error {
		var err error
		out, err = r.next.Update(ctx, table, patch, filters...)
		return err
	})
	return out, err
}

// Select implements Gateway
func (r *Resilient) Select(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	var out []Row
	err := r.call(ctx, table, OpSelect, func(ctx context.Context) error {
		var err error
		out, err = r.next.Select(ctx, table, filters...)
		return err
	})
	return out, err
}

// clientFailure smuggles a client error past the breaker's failure counter
type clientFailure struct{ err error }

func (r *Resilient) call(ctx context.Context, table, op string, fn func(context.Context) error) error {
	start := time.Now()

	err := r.bulkhead.Execute(ctx, func() error {
		res, cbErr := r.breaker.Execute(func() (interface{}, error) {
			callCtx, cancel := patterns.WithTimeout(ctx, r.timeout)
			defer cancel()

			if err := fn(callCtx); err != nil {
				if IsClientError(err) {
					return clientFailure{err: err}, nil
				}
				return nil, err
			}
			return nil, nil
		})
		if cbErr != nil {
			return cbErr
		}
		if cf, ok := res.(clientFailure); ok {
			return cf.err
		}
		return nil
	})

	result := "ok"
	switch {
	case err == nil:
	case IsClientError(err):
		result = "client_error"
	default:
		result = "error"
	}
	metrics.GatewayCallDuration.WithLabelValues(table, op, result).Observe(time.Since(start).Seconds())

	if errors.Is(err, patterns.ErrCircuitOpen) || errors.Is(err, patterns.ErrBulkheadFull) {
		return fmt.Errorf("%s %s: %w: %v", op, table, ErrUnavailable, err)
	}
	return err
}
