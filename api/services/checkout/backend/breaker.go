package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// newBreaker opens after five consecutive server-side failures and probes
// again after 30 seconds. Client errors (4xx) and calls the caller cancelled
// do not count against it.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && !se.Temporary()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("backend circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}
