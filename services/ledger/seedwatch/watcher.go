// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package seedwatch reloads the member seed file when it changes on
// disk, so new members can be added to a running ledger without a
// restart. Existing members are never modified by a reload.
package seedwatch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/datatypes"
	"github.com/AleutianAI/holoroster/services/ledger/storage"
)

// Broadcaster pushes a change event to connected subscribers.
type Broadcaster interface {
	Broadcast(v any)
}

// Watcher watches one seed file for writes.
type Watcher struct {
	path    string
	ledger  *roster.Ledger
	hub     Broadcaster
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given seed file.
func NewWatcher(path string, ledger *roster.Ledger, hub Broadcaster) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    path,
		ledger:  ledger,
		hub:     hub,
		watcher: watcher,
	}, nil
}

// Start begins watching the seed file. Blocks until the context is
// cancelled; run it in a goroutine.
//
// The parent directory is watched rather than the file itself so that
// editors replacing the file atomically (write to temp, rename) are
// still observed.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		slog.Warn("failed to watch seed directory", "dir", dir, "error", err)
		return
	}
	slog.Info("watching seed file for changes", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("seed watcher error", "error", err)

		case <-ctx.Done():
			slog.Info("seed watcher stopping")
			return
		}
	}
}

// handleEvent reloads the seed file on writes that touch it.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if added := w.Reload(); added > 0 && w.hub != nil {
		w.hub.Broadcast(datatypes.ChangeEvent{Event: "roster-reloaded", Added: added})
	}
}

// Reload reads the seed file and appends any members not yet on the
// ledger. Returns the number added; errors are logged, not returned,
// because a half-written file will trigger another event once the
// writer finishes.
func (w *Watcher) Reload() int {
	members, err := storage.LoadSeedFile(w.path)
	if err != nil {
		slog.Warn("failed to reload seed file", "path", w.path, "error", err)
		return 0
	}
	added, err := w.ledger.AddMembers(members)
	if err != nil {
		slog.Error("failed to apply reloaded seed", "path", w.path, "error", err)
		return added
	}
	if added > 0 {
		slog.Info("seed reload added members", "path", w.path, "added", added)
	}
	return added
}
