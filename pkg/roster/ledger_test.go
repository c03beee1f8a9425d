// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMembers() []Person {
	return []Person{
		{ID: 1, Name: "Darth Hildenbrand", Role: RoleMaster},
		{ID: 2, Name: "Darth Headrick", Role: RoleMaster},
		{ID: 3, Name: "Apprentice Bushnell", Role: RoleApprentice},
		{ID: 4, Name: "Apprentice Cloud", Role: RoleApprentice},
	}
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(seedMembers())
	require.NoError(t, err)
	return l
}

func TestNewLedgerRejectsDuplicateIDs(t *testing.T) {
	_, err := NewLedger([]Person{
		{ID: 1, Name: "Darth Vickers", Role: RoleMaster},
		{ID: 1, Name: "Apprentice Kasper", Role: RoleApprentice},
	})
	require.Error(t, err)
}

func TestRosterFiltersByRole(t *testing.T) {
	l := newTestLedger(t)

	masters := l.Masters()
	require.Len(t, masters, 2)
	assert.Equal(t, []int{1, 2}, ids(masters))

	apprentices := l.Apprentices()
	require.Len(t, apprentices, 2)
	assert.Equal(t, []int{3, 4}, ids(apprentices))
}

func TestAssignRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Assign(1, 3))
	got, err := l.Assignments()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Master.ID)
	assert.Equal(t, 3, got[0].Apprentice.ID)

	require.NoError(t, l.Unassign(1, 3))
	got, err = l.Assignments()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, l.UnassignedMasters(), 2)
	assert.Len(t, l.UnassignedApprentices(), 2)
}

func TestAssignIdenticalPairIsIdempotent(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Assign(1, 3))
	require.NoError(t, l.Assign(1, 3))

	got, err := l.Assignments()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAssignConflictFailsAndKeepsOriginal(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Assign(1, 3))
	err := l.Assign(1, 4)
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyAssigned, CodeOf(err))

	got, err := l.Assignments()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Apprentice.ID)
}

func TestAssignUnknownIDs(t *testing.T) {
	l := newTestLedger(t)

	assert.Equal(t, CodeNotFound, CodeOf(l.Assign(99, 3)))
	assert.Equal(t, CodeNotFound, CodeOf(l.Assign(1, 99)))
	// A master id in the apprentice position does not resolve.
	assert.Equal(t, CodeNotFound, CodeOf(l.Assign(1, 2)))
}

func TestUnassignMismatchesAreSilentNoOps(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Assign(1, 3))

	// Master has no assignment.
	require.NoError(t, l.Unassign(2, 4))
	// Pair does not match the stored apprentice.
	require.NoError(t, l.Unassign(1, 4))

	got, err := l.Assignments()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUnassignUnknownMaster(t *testing.T) {
	l := newTestLedger(t)
	assert.Equal(t, CodeNotFound, CodeOf(l.Unassign(99, 3)))
}

func TestUnassignedViewsExcludeAssigned(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Assign(1, 3))

	assert.Equal(t, []int{2}, ids(l.UnassignedMasters()))
	assert.Equal(t, []int{4}, ids(l.UnassignedApprentices()))
}

func TestPromoteDropsAssignmentsAndRetitles(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Assign(1, 3))

	updated, err := l.Promote(3, "master")
	require.NoError(t, err)
	assert.Equal(t, RoleMaster, updated.Role)
	assert.Equal(t, "Darth Bushnell", updated.Name)

	got, err := l.Assignments()
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, []int{1, 2, 3}, ids(l.Masters()))
	assert.Equal(t, []int{4}, ids(l.Apprentices()))
}

func TestPromoteInvalidTransitions(t *testing.T) {
	l := newTestLedger(t)

	// Same-role re-grant, twice.
	_, err := l.Promote(3, "apprentice")
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))
	_, err = l.Promote(3, "apprentice")
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))

	// Demotion of an existing master.
	_, err = l.Promote(1, "apprentice")
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))

	// Promoting twice: the second grant is a same-role re-grant.
	_, err = l.Promote(3, "master")
	require.NoError(t, err)
	_, err = l.Promote(3, "master")
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))
}

func TestPromoteBadInputs(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Promote(3, "emperor")
	assert.Equal(t, CodeInvalidRole, CodeOf(err))

	_, err = l.Promote(99, "master")
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestResetClearsAssignments(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Assign(1, 3))

	require.NoError(t, l.Reset(seedMembers()))
	got, err := l.Assignments()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddMembersSkipsExisting(t *testing.T) {
	l := newTestLedger(t)

	added, err := l.AddMembers([]Person{
		{ID: 1, Name: "Darth Hildenbrand", Role: RoleMaster},
		{ID: 5, Name: "Apprentice Conaway", Role: RoleApprentice},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []int{3, 4, 5}, ids(l.Apprentices()))
}

func TestRestoreAssignment(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.RestoreAssignment(1, 3))
	got, err := l.Assignments()
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, CodeAlreadyAssigned, CodeOf(l.RestoreAssignment(1, 4)))
	assert.Equal(t, CodeNotFound, CodeOf(l.RestoreAssignment(99, 4)))
}

func TestRetitle(t *testing.T) {
	assert.Equal(t, "Darth Cloud", retitle("Apprentice Cloud", RoleMaster))
	assert.Equal(t, "Darth Solo", retitle("Solo", RoleMaster))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("master")
	require.NoError(t, err)
	assert.Equal(t, RoleMaster, role)

	_, err = ParseRole("padawan")
	assert.Equal(t, CodeInvalidRole, CodeOf(err))
}

func ids(people []Person) []int {
	out := []int{}
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}
