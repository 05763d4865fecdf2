package services

import (
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/metrics"
	"github.com/sony/gobreaker"
)

// Clock returns the current server time. Services take one so tests can pin timestamps.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// NewBreaker opens after more than three consecutive failures and probes again after
// timeout.
func NewBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	metrics.SetBreakerState(name, float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
			metrics.SetBreakerState(name, float64(to))
		},
	})
}

// runGuarded executes fn through cb when one is configured.
func runGuarded(cb *gobreaker.CircuitBreaker, fn func() error) error {
	if cb == nil {
		return fn()
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
