package interceptor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// Registration controls which worker answers requests for one origin.
// Without an active worker requests go straight to the network.
type Registration struct {
	network http.RoundTripper
	logger  *slog.Logger

	mu      sync.RWMutex
	active  *Worker
	waiting *Worker
}

// NewRegistration returns an empty registration.
func NewRegistration(network http.RoundTripper, logger *slog.Logger) *Registration {
	if network == nil {
		network = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registration{network: network, logger: logger}
}

// Register installs w. It activates immediately when w skips waiting or
// nothing is active yet; otherwise it waits for ReleaseClients. A worker that
// fails to install leaves the current one in control.
func (r *Registration) Register(ctx context.Context, w *Worker) error {
	if w == nil {
		return errors.New("worker is nil")
	}
	if err := w.Install(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting != nil && r.waiting != w {
		r.waiting.retire()
	}
	r.waiting = w
	if w.SkipWaiting() || r.active == nil {
		return r.promoteLocked(ctx)
	}
	r.logger.Info("worker waiting for clients to release", slog.String("cache", w.CacheName()))
	return nil
}

// ReleaseClients signals that no page is held by the active worker any more,
// letting a waiting worker take over.
func (r *Registration) ReleaseClients(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting == nil {
		return nil
	}
	return r.promoteLocked(ctx)
}

// promoteLocked activates the waiting worker and claims every client for it.
func (r *Registration) promoteLocked(ctx context.Context) error {
	next := r.waiting
	if err := next.Activate(ctx); err != nil {
		return err
	}
	if r.active != nil && r.active != next {
		r.active.retire()
	}
	r.active = next
	r.waiting = nil
	return nil
}

// Active returns the worker currently in control, if any.
func (r *Registration) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Waiting returns the installed worker that has not taken over yet.
func (r *Registration) Waiting() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// RoundTrip hands req to the active worker.
func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if active := r.Active(); active != nil {
		return active.RoundTrip(req)
	}
	return r.network.RoundTrip(req)
}

var _ http.RoundTripper = (*Registration)(nil)
