package pipeline

import (
	"context"
	"time"
)

// Surface is a named display the host can render lines to.
type Surface interface {
	Name() string
	Print(line string) error
}

// SurfaceWaiter polls for the existence of a named display surface
// from a background worker with a timeout. Redirected caught messages
// use it; on timeout the caller falls back to the default surface.
type SurfaceWaiter struct {
	host    Host
	name    string
	timeout time.Duration
	focus   bool
}

// NewSurfaceWaiter builds a waiter for the named surface.
func NewSurfaceWaiter(host Host, name string, timeout time.Duration, focus bool) *SurfaceWaiter {
	return &SurfaceWaiter{host: host, name: name, timeout: timeout, focus: focus}
}

// Ensure returns the surface, opening it and waiting for it to appear
// when necessary. It returns false on timeout.
func (w *SurfaceWaiter) Ensure(ctx context.Context) (Surface, bool) {
	if s, ok := w.host.FindSurface(w.name); ok {
		return s, true
	}
	w.host.OpenSurface(w.name, w.focus)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	found := make(chan Surface, 1)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			if s, ok := w.host.FindSurface(w.name); ok {
				found <- s
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	select {
	case s := <-found:
		return s, true
	case <-ctx.Done():
		return nil, false
	}
}
