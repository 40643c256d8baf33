package crawler

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/jaeles-project/sitemirror/core"
)

var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
	520:                            {},
	521:                            {},
	522:                            {},
	523:                            {},
	524:                            {},
}

// retryTransport retries GET requests that failed or got a retryable
// status, with exponential backoff and 10% jitter.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newRetryTransport(base http.RoundTripper, maxRetries int, baseDelay time.Duration) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base, maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: 30 * time.Second}
}

func (rt *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || rt.maxRetries <= 0 {
		return rt.base.RoundTrip(req)
	}

	for attempt := 0; ; attempt++ {
		resp, err := rt.base.RoundTrip(req)
		if attempt >= rt.maxRetries || !shouldRetry(err, resp) {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}

		delay := rt.delay(attempt)
		core.Logger.Debugf("Retrying %s in %s (attempt %d)", req.URL, delay, attempt+1)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

func shouldRetry(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	_, ok := retryableStatus[resp.StatusCode]
	return ok
}

func (rt *retryTransport) delay(attempt int) time.Duration {
	d := rt.maxDelay
	if attempt < 16 {
		d = rt.baseDelay << attempt
	}
	if d <= 0 || d > rt.maxDelay {
		d = rt.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/10 + 1))
	return d + jitter
}
