// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package appstate keeps the client-side projection of roster and
// assignment state.
//
// The three snapshots mirror the last successful fetch and are mutated
// only after a queued mutation settles against the remote ledger —
// there is no speculative local apply. Presentation layers subscribe to
// the change topics and never mutate snapshots directly.
package appstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/holoroster/pkg/events"
	"github.com/AleutianAI/holoroster/pkg/netmon"
	"github.com/AleutianAI/holoroster/pkg/queue"
	"github.com/AleutianAI/holoroster/pkg/roster"
)

// Change and lifecycle topics published on the state bus.
const (
	TopicMastersChanged     events.Topic = "masters-changed"
	TopicApprenticesChanged events.Topic = "apprentices-changed"
	TopicAssignmentsChanged events.Topic = "assignments-changed"
	TopicInit               events.Topic = "init"
	TopicInitError          events.Topic = "init-error"
)

// Fetcher provides the three read views the projection initializes
// from. ledgerclient.Client satisfies it.
type Fetcher interface {
	UnassignedMasters(ctx context.Context) ([]roster.Person, error)
	UnassignedApprentices(ctx context.Context) ([]roster.Person, error)
	Assignments(ctx context.Context) ([]roster.Assignment, error)
}

// Mutator delivers the three mutations. ledgerclient.Client satisfies
// it.
type Mutator interface {
	Assign(ctx context.Context, masterID, apprenticeID int) error
	Unassign(ctx context.Context, masterID, apprenticeID int) error
	Promote(ctx context.Context, apprenticeID int, role string) (roster.Person, error)
}

// Endpoints builds the mutation queue's endpoint table over a Mutator.
func Endpoints(m Mutator) map[queue.Operation]queue.Endpoint {
	return map[queue.Operation]queue.Endpoint{
		queue.OpAssign: func(ctx context.Context, args []any) (any, error) {
			masterID, apprenticeID, err := intPair(args)
			if err != nil {
				return nil, err
			}
			return nil, m.Assign(ctx, masterID, apprenticeID)
		},
		queue.OpUnassign: func(ctx context.Context, args []any) (any, error) {
			masterID, apprenticeID, err := intPair(args)
			if err != nil {
				return nil, err
			}
			return nil, m.Unassign(ctx, masterID, apprenticeID)
		},
		queue.OpPromote: func(ctx context.Context, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("promote expects 2 args, got %d", len(args))
			}
			id, ok := args[0].(int)
			if !ok {
				return nil, fmt.Errorf("promote: apprentice id is %T, want int", args[0])
			}
			role, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("promote: role is %T, want string", args[1])
			}
			return m.Promote(ctx, id, role)
		},
	}
}

func intPair(args []any) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected 2 args, got %d", len(args))
	}
	a, ok := args[0].(int)
	if !ok {
		return 0, 0, fmt.Errorf("arg 0 is %T, want int", args[0])
	}
	b, ok := args[1].(int)
	if !ok {
		return 0, 0, fmt.Errorf("arg 1 is %T, want int", args[1])
	}
	return a, b, nil
}

// Config configures a State.
type Config struct {
	// Fetcher loads the three views at init. Required.
	Fetcher Fetcher

	// Queue delivers mutations. Required.
	Queue *queue.Queue

	// Bus receives change and lifecycle events. Optional; a private
	// bus is created when nil.
	Bus *events.Bus

	// Logger overrides slog.Default().
	Logger *slog.Logger
}

// State is the application state projection: unassigned masters,
// unassigned apprentices, and resolved assignments.
type State struct {
	fetcher Fetcher
	queue   *queue.Queue
	bus     *events.Bus
	logger  *slog.Logger

	mu          sync.Mutex
	masters     []roster.Person
	apprentices []roster.Person
	assignments []roster.Assignment
}

// New creates a State with empty snapshots. Call Init to populate.
func New(cfg Config) *State {
	if cfg.Bus == nil {
		cfg.Bus = events.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &State{
		fetcher: cfg.Fetcher,
		queue:   cfg.Queue,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
	}
}

// Bus exposes the event bus for presentation-layer subscriptions.
func (s *State) Bus() *events.Bus { return s.bus }

// Queue exposes the mutation queue, for wiring connectivity
// transitions and inspecting pending work.
func (s *State) Queue() *queue.Queue { return s.queue }

// BindMonitor routes connectivity transitions from the monitor into
// the mutation queue, so coming back online replays held mutations.
// Returns the unsubscribe function.
func (s *State) BindMonitor(m *netmon.Monitor) func() {
	return m.OnTransition(s.queue.HandleTransition)
}

// Masters returns a copy of the unassigned-masters snapshot.
func (s *State) Masters() []roster.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]roster.Person{}, s.masters...)
}

// Apprentices returns a copy of the unassigned-apprentices snapshot.
func (s *State) Apprentices() []roster.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]roster.Person{}, s.apprentices...)
}

// Assignments returns a copy of the assignments snapshot.
func (s *State) Assignments() []roster.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]roster.Assignment{}, s.assignments...)
}

// PendingCount reports queued-but-unsettled mutations.
func (s *State) PendingCount() int { return s.queue.Len() }

// Init fetches the three views concurrently. On full success all three
// snapshots are replaced and the three change events plus "init" fire;
// on any failure "init-error" fires and the snapshots stay untouched.
func (s *State) Init(ctx context.Context) error {
	var (
		masters     []roster.Person
		apprentices []roster.Person
		assignments []roster.Assignment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		masters, err = s.fetcher.UnassignedMasters(gctx)
		return err
	})
	g.Go(func() (err error) {
		apprentices, err = s.fetcher.UnassignedApprentices(gctx)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = s.fetcher.Assignments(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("state init failed", "error", err)
		s.bus.Publish(TopicInitError, err)
		return fmt.Errorf("failed to initialize application state: %w", err)
	}

	s.mu.Lock()
	s.masters = masters
	s.apprentices = apprentices
	s.assignments = assignments
	s.mu.Unlock()

	s.bus.Publish(TopicMastersChanged, nil)
	s.bus.Publish(TopicApprenticesChanged, nil)
	s.bus.Publish(TopicAssignmentsChanged, nil)
	s.bus.Publish(TopicInit, nil)
	return nil
}

// AssignApprentice queues an assign mutation and, once it settles,
// moves both people out of the unassigned snapshots and records the
// assignment. On failure the snapshots are untouched.
func (s *State) AssignApprentice(ctx context.Context, master, apprentice roster.Person) error {
	pending, err := s.queue.Enqueue(queue.OpAssign, master.ID, apprentice.ID)
	if err != nil {
		return err
	}
	if _, err := pending.Wait(ctx); err != nil {
		return fmt.Errorf("failed to assign apprentice: %w", err)
	}

	s.mu.Lock()
	s.masters = removeByID(s.masters, master.ID)
	s.apprentices = removeByID(s.apprentices, apprentice.ID)
	s.assignments = append(s.assignments, roster.Assignment{Master: master, Apprentice: apprentice})
	s.mu.Unlock()

	s.bus.Publish(TopicMastersChanged, nil)
	s.bus.Publish(TopicApprenticesChanged, nil)
	s.bus.Publish(TopicAssignmentsChanged, nil)
	return nil
}

// UnassignApprentice queues an unassign mutation and, once it settles,
// removes the matching assignment entry and pushes both people back
// into the unassigned snapshots. A locally-absent assignment is a
// no-op after the remote settle.
func (s *State) UnassignApprentice(ctx context.Context, master, apprentice roster.Person) error {
	pending, err := s.queue.Enqueue(queue.OpUnassign, master.ID, apprentice.ID)
	if err != nil {
		return err
	}
	if _, err := pending.Wait(ctx); err != nil {
		return fmt.Errorf("failed to unassign apprentice: %w", err)
	}

	s.mu.Lock()
	found := false
	kept := make([]roster.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if a.Master.ID == master.ID && a.Apprentice.ID == apprentice.ID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if found {
		s.assignments = kept
		s.masters = append(s.masters, master)
		s.apprentices = append(s.apprentices, apprentice)
	}
	s.mu.Unlock()

	if !found {
		s.logger.Info("unassign settled but assignment not in local snapshot",
			"masterID", master.ID, "apprenticeID", apprentice.ID)
		return nil
	}

	s.bus.Publish(TopicMastersChanged, nil)
	s.bus.Publish(TopicApprenticesChanged, nil)
	s.bus.Publish(TopicAssignmentsChanged, nil)
	return nil
}

// PromoteApprentice queues a promote mutation and, once it settles,
// moves the updated person from the apprentice snapshot to the master
// snapshot. Returns the updated person.
func (s *State) PromoteApprentice(ctx context.Context, apprentice roster.Person, role string) (roster.Person, error) {
	pending, err := s.queue.Enqueue(queue.OpPromote, apprentice.ID, role)
	if err != nil {
		return roster.Person{}, err
	}
	result, err := pending.Wait(ctx)
	if err != nil {
		return roster.Person{}, fmt.Errorf("failed to promote apprentice: %w", err)
	}
	updated, ok := result.(roster.Person)
	if !ok {
		return roster.Person{}, fmt.Errorf("promote settled with unexpected result %T", result)
	}

	s.mu.Lock()
	s.apprentices = removeByID(s.apprentices, apprentice.ID)
	s.masters = append(s.masters, updated)
	s.mu.Unlock()

	s.bus.Publish(TopicApprenticesChanged, nil)
	s.bus.Publish(TopicMastersChanged, nil)
	return updated, nil
}

// removeByID filters one person out of a snapshot by identity.
func removeByID(people []roster.Person, id int) []roster.Person {
	out := make([]roster.Person, 0, len(people))
	for _, p := range people {
		if p.ID == id {
			continue
		}
		out = append(out, p)
	}
	return out
}
