package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBrokerUnavailable is returned while the breaker is open.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

// BreakerSettings configures NewBreakerPublisher.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerPublisher stops calling a failing broker for a while so event
// publishing doesn't add a broker timeout to every request.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(next Publisher, s BreakerSettings) *BreakerPublisher {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "publisher",
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Publisher breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerPublisher{next: next, cb: cb}
}

func (p *BreakerPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.PublishEvent(ctx, topic, key, event)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBrokerUnavailable
	}
	return err
}
