package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveEndpoint_AlwaysOK(t *testing.T) {
	s := New()

	rec := httptest.NewRecorder()
	s.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	s := New()

	rec := httptest.NewRecorder()
	s.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	s := New()
	s.SetReady(true)

	var healthy atomic.Bool
	s.AddReadinessCheck("backoffice", time.Second, func(_ context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("connection refused")
	})
	s.Start(context.Background(), 10*time.Millisecond)
	defer s.Stop()

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec.Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	s.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Contains(t, rec.Body.String(), "connection refused")

	healthy.Store(true)
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec.Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)
}

func TestStop_HaltsBackgroundLoop(t *testing.T) {
	s := New()
	var calls atomic.Int64
	s.AddReadinessCheck("counter", time.Second, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})
	s.Start(context.Background(), 5*time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	s.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}
