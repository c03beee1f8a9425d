// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package roster

import (
	"fmt"
	"log/slog"
	"sync"
)

// Assignment pairs exactly one master with exactly one apprentice,
// resolved to full person records.
type Assignment struct {
	Master     Person `json:"master"`
	Apprentice Person `json:"apprentice"`
}

// pair is the stored relation. Keyed by master: at most one apprentice
// per master.
type pair struct {
	masterID     int
	apprenticeID int
}

// Persister receives ledger mutations for durable storage. All calls
// happen while the ledger holds its own lock; implementations must not
// call back into the ledger.
type Persister interface {
	PutMember(p Person) error
	PutAssignment(masterID, apprenticeID int) error
	DeleteAssignment(masterID int) error
}

// Ledger is the canonical roster plus assignment state. All operations
// are serialized by an internal mutex: the ledger is single-writer with
// respect to assign/unassign/promote.
//
// Invariants:
//   - every id stored in an assignment resolved to a person of the
//     expected role when the assignment was created
//   - a master keys at most one assignment
//   - promoting a person drops every assignment referencing them as
//     apprentice
//   - role changes are strictly forward in the progression
type Ledger struct {
	mu      sync.Mutex
	members []Person    // insertion order
	index   map[int]int // id -> position in members
	pairs   []pair      // insertion order
	persist Persister   // optional write-through
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPersister enables write-through persistence of mutations.
func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persist = p }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a ledger seeded with the given members and no
// assignments. Members with duplicate ids are rejected.
func NewLedger(members []Person, opts ...Option) (*Ledger, error) {
	l := &Ledger{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reset(members); err != nil {
		return nil, err
	}
	return l, nil
}

// Reset replaces all ledger state. Intended for tests and re-seeding;
// the persister is not replayed.
func (l *Ledger) Reset(members []Person) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := make(map[int]int, len(members))
	for i, m := range members {
		if _, dup := index[m.ID]; dup {
			return fmt.Errorf("duplicate member id %d", m.ID)
		}
		index[m.ID] = i
	}
	l.members = append([]Person(nil), members...)
	l.index = index
	l.pairs = nil
	return nil
}

// RestoreAssignment installs a persisted relation pair without invoking
// the persister. Used when loading state at startup.
func (l *Ledger) RestoreAssignment(masterID, apprenticeID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(masterID, RoleMaster); err != nil {
		return err
	}
	if _, err := l.lookup(apprenticeID, RoleApprentice); err != nil {
		return err
	}
	for _, p := range l.pairs {
		if p.masterID == masterID {
			return NewError(CodeAlreadyAssigned, "master %d already has an apprentice", masterID)
		}
	}
	l.pairs = append(l.pairs, pair{masterID: masterID, apprenticeID: apprenticeID})
	return nil
}

// AddMembers appends members whose ids are not yet present. Existing
// members are left untouched. Returns the number added.
func (l *Ledger) AddMembers(members []Person) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, m := range members {
		if _, ok := l.index[m.ID]; ok {
			continue
		}
		if l.persist != nil {
			if err := l.persist.PutMember(m); err != nil {
				return added, fmt.Errorf("persist member %d: %w", m.ID, err)
			}
		}
		l.index[m.ID] = len(l.members)
		l.members = append(l.members, m)
		added++
	}
	return added, nil
}

// Masters returns the master roster in insertion order.
func (l *Ledger) Masters() []Person {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byRole(RoleMaster)
}

// Apprentices returns the apprentice roster in insertion order.
func (l *Ledger) Apprentices() []Person {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byRole(RoleApprentice)
}

// UnassignedMasters returns masters that do not key an assignment.
func (l *Ledger) UnassignedMasters() []Person {
	l.mu.Lock()
	defer l.mu.Unlock()

	assigned := make(map[int]bool, len(l.pairs))
	for _, p := range l.pairs {
		assigned[p.masterID] = true
	}
	out := []Person{}
	for _, m := range l.byRole(RoleMaster) {
		if !assigned[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// UnassignedApprentices returns apprentices not referenced by an
// assignment.
func (l *Ledger) UnassignedApprentices() []Person {
	l.mu.Lock()
	defer l.mu.Unlock()

	assigned := make(map[int]bool, len(l.pairs))
	for _, p := range l.pairs {
		assigned[p.apprenticeID] = true
	}
	out := []Person{}
	for _, a := range l.byRole(RoleApprentice) {
		if !assigned[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// Assignments resolves every stored pair to full person records, in
// insertion order.
func (l *Ledger) Assignments() ([]Assignment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Assignment{}
	for _, p := range l.pairs {
		mi, ok := l.index[p.masterID]
		if !ok {
			return nil, NewError(CodeInconsistent, "assignment references unknown master %d", p.masterID)
		}
		ai, ok := l.index[p.apprenticeID]
		if !ok {
			return nil, NewError(CodeInconsistent, "assignment references unknown apprentice %d", p.apprenticeID)
		}
		out = append(out, Assignment{Master: l.members[mi], Apprentice: l.members[ai]})
	}
	return out, nil
}

// Assign stores the master/apprentice pair. Re-assigning the identical
// pair is accepted silently; a conflicting pair fails with
// ALREADY_ASSIGNED; unresolved ids fail with NOT_FOUND.
func (l *Ledger) Assign(masterID, apprenticeID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(masterID, RoleMaster); err != nil {
		return err
	}
	if _, err := l.lookup(apprenticeID, RoleApprentice); err != nil {
		return err
	}
	for _, p := range l.pairs {
		if p.masterID != masterID {
			continue
		}
		if p.apprenticeID == apprenticeID {
			// Idempotent re-assign of the identical pair.
			return nil
		}
		return NewError(CodeAlreadyAssigned, "master %d already has an apprentice", masterID)
	}
	if l.persist != nil {
		if err := l.persist.PutAssignment(masterID, apprenticeID); err != nil {
			return fmt.Errorf("persist assignment: %w", err)
		}
	}
	l.pairs = append(l.pairs, pair{masterID: masterID, apprenticeID: apprenticeID})
	return nil
}

// Unassign removes the pair when it matches exactly. A missing
// assignment or a mismatched apprentice is a logged no-op, not an
// error, to tolerate stale client state.
func (l *Ledger) Unassign(masterID, apprenticeID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(masterID, RoleMaster); err != nil {
		return err
	}
	for i, p := range l.pairs {
		if p.masterID != masterID {
			continue
		}
		if p.apprenticeID != apprenticeID {
			l.logger.Info("unassign skipped, apprentice not assigned to master",
				"masterID", masterID, "apprenticeID", apprenticeID)
			return nil
		}
		if l.persist != nil {
			if err := l.persist.DeleteAssignment(masterID); err != nil {
				return fmt.Errorf("persist unassign: %w", err)
			}
		}
		l.pairs = append(l.pairs[:i], l.pairs[i+1:]...)
		return nil
	}
	l.logger.Info("unassign skipped, master not assigned", "masterID", masterID)
	return nil
}

// Promote moves a person forward in the role progression. On success
// the role mutates, the display name is retitled, and every assignment
// referencing the person as apprentice is dropped. Returns the updated
// person.
func (l *Ledger) Promote(id int, roleToken string) (Person, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return Person{}, NewError(CodeNotFound, "no member exists for id %d", id)
	}
	role, err := ParseRole(roleToken)
	if err != nil {
		return Person{}, err
	}
	current := l.members[i].Role
	switch {
	case role.rank() < current.rank():
		return Person{}, NewError(CodeInvalidTransition, "member %d cannot be demoted to %s", id, role)
	case role.rank() == current.rank():
		return Person{}, NewError(CodeInvalidTransition, "member %d already holds role %s", id, role)
	}

	updated := l.members[i]
	updated.Role = role
	updated.Name = retitle(updated.Name, role)
	if l.persist != nil {
		if err := l.persist.PutMember(updated); err != nil {
			return Person{}, fmt.Errorf("persist member %d: %w", id, err)
		}
	}
	l.members[i] = updated

	kept := make([]pair, 0, len(l.pairs))
	for _, p := range l.pairs {
		if p.apprenticeID == id {
			if l.persist != nil {
				if err := l.persist.DeleteAssignment(p.masterID); err != nil {
					return Person{}, fmt.Errorf("persist unassign: %w", err)
				}
			}
			continue
		}
		kept = append(kept, p)
	}
	l.pairs = kept
	return updated, nil
}

// Size returns the number of members holding the given role.
func (l *Ledger) Size(role Role) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byRole(role))
}

// AssignmentCount returns the number of stored pairs.
func (l *Ledger) AssignmentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pairs)
}

// lookup resolves an id to a person of the expected role. Callers must
// hold l.mu.
func (l *Ledger) lookup(id int, role Role) (Person, error) {
	i, ok := l.index[id]
	if !ok || l.members[i].Role != role {
		return Person{}, NewError(CodeNotFound, "no %s exists for id %d", role, id)
	}
	return l.members[i], nil
}

// byRole filters members by role preserving insertion order. Callers
// must hold l.mu.
func (l *Ledger) byRole(role Role) []Person {
	out := []Person{}
	for _, m := range l.members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
