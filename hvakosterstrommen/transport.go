package hvakosterstrommen

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

type rateLimitedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

// NewRateLimitedTransport limits outgoing requests to requestsPerSecond.
// A non-positive rate disables limiting.
func NewRateLimitedTransport(requestsPerSecond float64, burst int, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if requestsPerSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedTransport{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		next:    next,
	}
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.RoundTrip(req)
}
