// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage persists roster members and the assignment relation
// in BadgerDB so the ledger service survives restarts.
//
// The ledger itself stays in memory; this store is its write-through
// persister and the source of truth at startup. In-memory mode exists
// for tests.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// Key prefixes. Member and assignment ids are zero-padded so badger's
// lexicographic key order matches numeric id order.
const (
	memberPrefix     = "member/"
	assignmentPrefix = "assignment/"
)

// Config holds configuration for the ledger store.
type Config struct {
	// Path is the directory for BadgerDB files. Required unless
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations. If nil, BadgerDB's
	// internal logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults for the given directory.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the BadgerDB-backed ledger store. It satisfies
// roster.Persister.
type Store struct {
	db *badger.DB
}

// Open creates and opens the store. Callers must Close it.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage: path is required for persistent databases")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("storage: create directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutMember stores or replaces one member record.
func (s *Store) PutMember(p roster.Person) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: marshal member %d: %w", p.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(p.ID), payload)
	})
}

// Members loads every member, ordered by id.
func (s *Store) Members() ([]roster.Person, error) {
	var out []roster.Person
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(memberPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p roster.Person
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return fmt.Errorf("storage: decode member %s: %w", it.Item().Key(), err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutAssignment stores the relation pair for a master.
func (s *Store) PutAssignment(masterID, apprenticeID int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(assignmentKey(masterID), []byte(strconv.Itoa(apprenticeID)))
	})
}

// DeleteAssignment removes the relation pair for a master. Deleting an
// absent pair is not an error.
func (s *Store) DeleteAssignment(masterID int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(assignmentKey(masterID))
	})
}

// AssignmentPair is one persisted relation.
type AssignmentPair struct {
	MasterID     int
	ApprenticeID int
}

// Assignments loads every persisted pair, ordered by master id.
func (s *Store) Assignments() ([]AssignmentPair, error) {
	var out []AssignmentPair
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(assignmentPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			masterID, err := strconv.Atoi(key[len(assignmentPrefix):])
			if err != nil {
				return fmt.Errorf("storage: bad assignment key %q: %w", key, err)
			}
			var apprenticeID int
			err = it.Item().Value(func(val []byte) error {
				apprenticeID, err = strconv.Atoi(string(val))
				return err
			})
			if err != nil {
				return fmt.Errorf("storage: decode assignment %q: %w", key, err)
			}
			out = append(out, AssignmentPair{MasterID: masterID, ApprenticeID: apprenticeID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Empty reports whether the store holds no members.
func (s *Store) Empty() (bool, error) {
	empty := true
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(memberPrefix)
		it.Seek(prefix)
		empty = !it.ValidForPrefix(prefix)
		return nil
	})
	return empty, err
}

func memberKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%08d", memberPrefix, id))
}

func assignmentKey(masterID int) []byte {
	return []byte(fmt.Sprintf("%s%08d", assignmentPrefix, masterID))
}
