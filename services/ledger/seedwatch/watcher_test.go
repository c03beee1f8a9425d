// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package seedwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

type recordingHub struct {
	mu     sync.Mutex
	events []any
}

func (h *recordingHub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, v)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func writeSeed(t *testing.T, path, payload string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
}

func TestReloadAddsOnlyNewMembers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "members.json")
	writeSeed(t, path, `[
		{"id": 1, "name": "Darth Hildenbrand", "role": "master"},
		{"id": 5, "name": "Apprentice Bushnell", "role": "apprentice"}
	]`)

	ledger, err := roster.NewLedger([]roster.Person{
		{ID: 1, Name: "Darth Hildenbrand", Role: roster.RoleMaster},
	})
	require.NoError(t, err)

	w, err := NewWatcher(path, ledger, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.Equal(t, 1, w.Reload())
	assert.Equal(t, 1, ledger.Size(roster.RoleApprentice))

	// Same file again: nothing new.
	assert.Equal(t, 0, w.Reload())
}

func TestReloadToleratesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "members.json")
	writeSeed(t, path, `{not json`)

	ledger, err := roster.NewLedger(nil)
	require.NoError(t, err)

	w, err := NewWatcher(path, ledger, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.Equal(t, 0, w.Reload())
}

func TestWatcherPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "members.json")
	writeSeed(t, path, `[{"id": 1, "name": "Darth Hildenbrand", "role": "master"}]`)

	ledger, err := roster.NewLedger(nil)
	require.NoError(t, err)

	hub := &recordingHub{}
	w, err := NewWatcher(path, ledger, hub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher a moment to install.
	time.Sleep(100 * time.Millisecond)

	writeSeed(t, path, `[
		{"id": 1, "name": "Darth Hildenbrand", "role": "master"},
		{"id": 5, "name": "Apprentice Bushnell", "role": "apprentice"}
	]`)

	require.Eventually(t, func() bool {
		return ledger.Size(roster.RoleApprentice) == 1
	}, 3*time.Second, 25*time.Millisecond)

	require.Eventually(t, func() bool { return hub.count() >= 1 },
		3*time.Second, 25*time.Millisecond)
}
