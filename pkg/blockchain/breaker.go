package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/config"
)

// BreakerGateway decorates a LedgerGateway with a circuit breaker. Only
// transport failures count against the breaker; ErrNotFound, rejections and
// caller cancellations are ordinary outcomes.
type BreakerGateway struct {
	next LedgerGateway
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerGateway wraps next. Zero fields of cfg take config.Breaker defaults.
func NewBreakerGateway(name string, next LedgerGateway, cfg config.Breaker) *BreakerGateway {
	cfg = cfg.WithDefaults()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isLedgerOutcome,
	}
	return &BreakerGateway{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the current breaker state.
func (b *BreakerGateway) State() gobreaker.State { return b.cb.State() }

// Query forwards to the wrapped gateway unless the breaker is open.
func (b *BreakerGateway) Query(ctx context.Context, call ReadCall) ([][]byte, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Query(ctx, call)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	out, _ := v.([][]byte)
	return out, nil
}

// Submit forwards to the wrapped gateway unless the breaker is open.
func (b *BreakerGateway) Submit(ctx context.Context, stx *SignedTransaction) (*Receipt, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Submit(ctx, stx)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	r, _ := v.(*Receipt)
	return r, nil
}

func isLedgerOutcome(err error) bool {
	var rejected *RejectedError
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedResult),
		errors.Is(err, context.Canceled),
		errors.As(err, &rejected):
		return true
	}
	return false
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
