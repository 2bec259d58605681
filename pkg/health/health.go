// Package health provides liveness and readiness probe endpoints. Readiness
// checks run periodically in the background; probe handlers only read the
// latest result.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports whether a dependency is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(checkCtx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.healthy.Store(false)
		return
	}
	c.lastErr.Store(nil)
	c.healthy.Store(true)
}

// Service manages probe state for the terminal server.
type Service struct {
	ready atomic.Bool

	mu     sync.Mutex
	checks []*check
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a Service in the not-ready state; call SetReady(true) once
// initialization finishes.
func New() *Service {
	return &Service{}
}

// AddReadinessCheck registers a named dependency check. Checks start healthy
// and flip on the first observed failure.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	s.mu.Lock()
	s.checks = append(s.checks, c)
	s.mu.Unlock()
}

// Start launches the background check loop.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	checks := make([]*check, len(s.checks))
	copy(checks, s.checks)
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			for _, c := range checks {
				c.run(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the background loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// SetReady flips the readiness gate, independent of individual checks.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint answers 200 while the process is serving requests.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok", nil)
}

// ReadyEndpoint answers 200 when the service is ready and every readiness
// check is healthy, 503 otherwise with the failing checks listed.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := map[string]string{}
	s.mu.Lock()
	for _, c := range s.checks {
		if !c.healthy.Load() {
			msg := "unhealthy"
			if p := c.lastErr.Load(); p != nil {
				msg = *p
			}
			failures[c.name] = msg
		}
	}
	s.mu.Unlock()

	if !s.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready", failures)
		return
	}
	if len(failures) > 0 {
		writeStatus(w, http.StatusServiceUnavailable, "unhealthy", failures)
		return
	}
	writeStatus(w, http.StatusOK, "ok", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string, failures map[string]string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	e.Str(status)
	if len(failures) > 0 {
		e.FieldStart("checks")
		e.ObjStart()
		for name, msg := range failures {
			e.FieldStart(name)
			e.Str(msg)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
