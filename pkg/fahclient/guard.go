// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"io"
	"sync"
)

// ResourceGuard is a single-slot holder for a connection resource shared
// between the read loop and command senders.
//
// The holder is either empty or holds exactly one live resource. Execute
// runs a delegate against the resource only while it is still held;
// executing against a released guard is defined as a safe no-op, because
// release races are expected during shutdown. Release uses a test-and-clear
// under the same lock, so the resource is disposed exactly once and a
// delegate never starts after Release has completed.
type ResourceGuard[R io.Closer] struct {
	mu       sync.Mutex
	resource R
	held     bool
}

// NewResourceGuard creates a guard holding r.
func NewResourceGuard[R io.Closer](r R) *ResourceGuard[R] {
	return &ResourceGuard[R]{resource: r, held: true}
}

// IsAvailable reports whether the guard still holds its resource.
func (g *ResourceGuard[R]) IsAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// Execute runs fn against the held resource.
//
// Returns fn's error, or nil without running fn when the resource has
// already been released. Never panics or errors for a released guard.
func (g *ResourceGuard[R]) Execute(fn func(R) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		return nil
	}
	return fn(g.resource)
}

// Release clears the holder and closes the resource.
//
// Safe to call more than once and concurrently with Execute: the clear is
// atomic with respect to Execute's check, so the resource closes exactly
// once and no delegate observes a closed resource through the guard.
func (g *ResourceGuard[R]) Release() {
	g.mu.Lock()
	held := g.held
	resource := g.resource
	g.held = false
	var zero R
	g.resource = zero
	g.mu.Unlock()

	if held {
		_ = resource.Close()
	}
}
