package adapter

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Observer receives call outcomes of outbound adapters. The Prometheus
// metrics implement it.
type Observer interface {
	ExternalCall(service, method string, took time.Duration, err error)
	BreakerState(service string, state int)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) ExternalCall(string, string, time.Duration, error) {}
func (NopObserver) BreakerState(string, int)                          {}

// BreakerConfig tunes a circuit breaker around one external service.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed through while half-open
	Interval         time.Duration // closed-state counting window
	Timeout          time.Duration // open-state duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for name.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      4,
	}
}

// NewBreaker builds a circuit breaker that trips on the failure ratio and
// reports its state changes.
func NewBreaker(cfg BreakerConfig, observer Observer, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			observer.BreakerState(name, int(to))
		},
	})
}
