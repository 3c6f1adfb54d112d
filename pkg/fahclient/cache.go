// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"fmt"
	"sync"
)

// typeRegistry maps message keys to typed projection factories. A registry
// of constructors keeps dispatch open for new message types without any
// reflection.
var typeRegistry = map[string]func() TypedMessage{
	KeyInfo:           func() TypedMessage { return new(Info) },
	KeyOptions:        func() TypedMessage { return new(Options) },
	KeySlots:          func() TypedMessage { return new(SlotCollection) },
	KeySlotOptions:    func() TypedMessage { return new(SlotOptions) },
	KeyUnits:          func() TypedMessage { return new(UnitCollection) },
	KeySimulationInfo: func() TypedMessage { return new(SimulationInfo) },
	KeyLogRestart:     func() TypedMessage { return new(LogRestart) },
	KeyLogUpdate:      func() TypedMessage { return new(LogUpdate) },
}

// MessageUpdate describes a cache change notification.
//
// Typed is a freshly constructed (unfilled) projection for recognized keys
// and nil for unrecognized ones; unrecognized messages are still cached and
// retrievable by raw key.
type MessageUpdate struct {
	Key   string
	Typed TypedMessage
}

// UpdateHandler receives cache change notifications. Notifications for one
// connection are never raised concurrently with each other; the read loop
// is the single producer.
type UpdateHandler func(MessageUpdate)

// MessageCache holds the most recent Message per type key.
//
// Lifecycle: populated incrementally as messages arrive, cleared on
// disconnect, never persisted across connections. "Latest wins": replacing
// an entry is atomic, so a reader always sees a complete message, never a
// partially applied one.
type MessageCache struct {
	mu       sync.RWMutex
	messages map[string]*Message
}

// NewMessageCache creates an empty cache.
func NewMessageCache() *MessageCache {
	return &MessageCache{messages: make(map[string]*Message)}
}

// Update stores msg as the latest for its key and returns the notification
// describing the change.
func (c *MessageCache) Update(msg *Message) MessageUpdate {
	c.mu.Lock()
	c.messages[msg.Key] = msg
	c.mu.Unlock()

	update := MessageUpdate{Key: msg.Key}
	if factory, ok := typeRegistry[msg.Key]; ok {
		update.Typed = factory()
	}
	return update
}

// Lookup returns the latest raw message for a key, or nil if none arrived
// since the last clear.
func (c *MessageCache) Lookup(key string) *Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[key]
}

// Keys returns the keys currently cached.
func (c *MessageCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	return keys
}

// ClearBuffer drops every cached message. Called on disconnect.
func (c *MessageCache) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make(map[string]*Message)
}

// Materialize fills a fresh typed projection from the latest message for
// key. Returns ErrUnknownMessageKey when no projection is registered for the
// key, and (nil, nil) when the key is known but no message has arrived.
func (c *MessageCache) Materialize(key string) (TypedMessage, error) {
	factory, ok := typeRegistry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageKey, key)
	}
	msg := c.Lookup(key)
	if msg == nil {
		return nil, nil
	}
	typed := factory()
	if err := typed.Fill(msg); err != nil {
		return nil, err
	}
	return typed, nil
}

// GetMessage materializes the latest message of a typed projection.
//
// Returns (nil, nil) when no message for the projection's key has arrived;
// callers must treat nil as "no data yet", not as an error. A malformed
// payload surfaces the projection's structured Fill error.
func GetMessage[T any, P interface {
	*T
	TypedMessage
}](c *MessageCache) (P, error) {
	typed := P(new(T))
	msg := c.Lookup(typed.Key())
	if msg == nil {
		return nil, nil
	}
	if err := typed.Fill(msg); err != nil {
		return nil, err
	}
	return typed, nil
}
