// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package queue implements the client-side mutation pipeline: an
// in-memory FIFO of mutating requests that deduplicates by logical
// identity, delivers at most one mutation at a time, and replays held
// entries when connectivity returns.
//
// The queue is purely in-memory. A process restart discards pending
// entries; that is a documented limitation of the design, not a bug.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// Operation names a queueable mutation. The names feed the logical key,
// so they must stay stable.
type Operation string

const (
	OpAssign   Operation = "assign-apprentice"
	OpUnassign Operation = "unassign-apprentice"
	OpPromote  Operation = "promote-apprentice"
)

// Endpoint delivers one mutation to the ledger and returns its result.
type Endpoint func(ctx context.Context, args []any) (any, error)

// Connectivity answers whether the ledger is currently reachable.
type Connectivity interface {
	IsOnline() bool
}

// alwaysOnline is the fallback when no monitor is wired.
type alwaysOnline struct{}

func (alwaysOnline) IsOnline() bool { return true }

// LogicalKey derives the deduplication identity of a mutation from its
// operation name and argument list.
func LogicalKey(op Operation, args []any) string {
	payload, err := json.Marshal(args)
	if err != nil {
		// Arguments are ints and role tokens; marshalling cannot
		// realistically fail, but fall back to something unique-ish.
		payload = []byte(fmt.Sprintf("%v", args))
	}
	return string(op) + "@" + string(payload)
}

// Pending is the future for one enqueued mutation. It settles exactly
// once, with a result or a terminal error; settled entries are never
// retried.
type Pending struct {
	id   string
	key  string
	op   Operation
	args []any

	done   chan struct{}
	result any
	err    error
}

// ID returns the entry's unique id, used for log correlation.
func (p *Pending) ID() string { return p.id }

// Key returns the entry's logical key.
func (p *Pending) Key() string { return p.key }

// Done is closed when the entry settles.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the entry settles or ctx is done. Cancelling ctx
// abandons the wait only; the delivery itself cannot be cancelled.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Config configures a Queue.
type Config struct {
	// Endpoints maps operations to their delivery funcs. Required.
	Endpoints map[Operation]Endpoint

	// Connectivity gates immediate flushing on enqueue. Optional;
	// defaults to always-online.
	Connectivity Connectivity

	// Logger overrides slog.Default().
	Logger *slog.Logger
}

// Queue serializes delivery of mutating requests against the ledger.
// At most one delivery is in flight at any time, globally, and entries
// drain strictly in FIFO enqueue order.
type Queue struct {
	endpoints map[Operation]Endpoint
	conn      Connectivity
	logger    *slog.Logger

	mu       sync.Mutex
	entries  []*Pending
	flushing bool
}

// New creates a Queue.
func New(cfg Config) *Queue {
	if cfg.Connectivity == nil {
		cfg.Connectivity = alwaysOnline{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Queue{
		endpoints: cfg.Endpoints,
		conn:      cfg.Connectivity,
		logger:    cfg.Logger,
	}
}

// Enqueue appends a mutation and returns its future. If an entry with
// the same logical key is still pending the call fails with
// DUPLICATE_REQUEST. When currently online, enqueuing triggers a flush.
func (q *Queue) Enqueue(op Operation, args ...any) (*Pending, error) {
	if _, ok := q.endpoints[op]; !ok {
		return nil, fmt.Errorf("unknown operation %q", op)
	}

	entry := &Pending{
		id:   uuid.New().String(),
		key:  LogicalKey(op, args),
		op:   op,
		args: args,
		done: make(chan struct{}),
	}

	q.mu.Lock()
	for _, existing := range q.entries {
		if existing.key == entry.key {
			q.mu.Unlock()
			return nil, roster.NewError(roster.CodeDuplicateRequest,
				"mutation already queued: %s", entry.key)
		}
	}
	q.entries = append(q.entries, entry)
	q.mu.Unlock()

	q.logger.Info("queueing mutation", "id", entry.id, "key", entry.key)

	if q.conn.IsOnline() {
		q.Flush()
	}
	return entry, nil
}

// Flush starts draining pending entries. No-op when a drain is already
// running or the queue is empty. Draining happens on its own goroutine;
// callers observe completion through each entry's future.
func (q *Queue) Flush() {
	q.mu.Lock()
	if q.flushing || len(q.entries) == 0 {
		q.mu.Unlock()
		return
	}
	q.flushing = true
	q.mu.Unlock()

	go q.drain()
}

// HandleTransition reacts to a connectivity edge. Wire it to a
// netmon-style monitor: the monitor only fires on actual flips, so a
// steady online signal never retriggers a flush here.
func (q *Queue) HandleTransition(online bool) {
	if online {
		q.Flush()
	}
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// drain processes entries strictly in FIFO order, one at a time.
// Failures are terminal for their entry; the drain continues with the
// next one regardless.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.flushing = false
			q.mu.Unlock()
			return
		}
		entry := q.entries[0]
		q.mu.Unlock()

		q.logger.Info("flushing mutation", "id", entry.id, "key", entry.key)

		// Delivery is not cancellable once started; the endpoint's own
		// transport timeout bounds it.
		result, err := q.endpoints[entry.op](context.Background(), entry.args)

		// Remove before settling so a caller reacting to the result can
		// immediately re-enqueue the same logical mutation.
		q.mu.Lock()
		q.entries = q.entries[1:]
		q.mu.Unlock()

		if err != nil {
			q.logger.Error("mutation failed", "id", entry.id, "key", entry.key, "error", err)
			entry.err = fmt.Errorf("mutation %s failed: %w", entry.op, err)
		} else {
			q.logger.Info("mutation flushed", "id", entry.id, "key", entry.key)
			entry.result = result
		}
		close(entry.done)
	}
}
