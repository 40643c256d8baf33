package crawler

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flakyServer(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRetryTransportRecovers(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusServiceUnavailable)
	client := &http.Client{Transport: newRetryTransport(nil, 3, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryTransportGivesUp(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusBadGateway)
	client := &http.Client{Transport: newRetryTransport(nil, 2, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryTransportSkipsPermanentErrors(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusNotFound)
	client := &http.Client{Transport: newRetryTransport(nil, 3, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryDelayIsCapped(t *testing.T) {
	rt := newRetryTransport(nil, 3, time.Second)
	assert.GreaterOrEqual(t, rt.delay(0), time.Second)
	assert.LessOrEqual(t, rt.delay(40), rt.maxDelay+rt.maxDelay/10)
}
