// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package events provides a small typed publish/subscribe bus with
// named topics and an explicit subscribe/unsubscribe lifecycle.
//
// Dispatch is synchronous: Publish invokes every subscriber on the
// calling goroutine before returning. Handlers that need to do slow
// work should hand off to their own goroutine.
package events

import "sync"

// Topic names an event channel on the bus.
type Topic string

// Handler receives the payload published to a topic.
type Handler func(payload any)

// Bus is a topic-keyed pub/sub dispatcher. The zero value is not
// usable; call New.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[int]Handler
	next int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns its
// unsubscribe func. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers payload to every handler subscribed to the topic.
// Handlers run synchronously in unspecified order.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
}

// SubscriberCount returns the number of handlers on a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
