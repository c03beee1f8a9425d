// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package netmon tracks ledger reachability by polling its heartbeat
// endpoint.
//
// The monitor keeps a boolean online state and publishes a transition
// event only when that boolean flips. A steady online signal never
// re-fires; consumers that replay work on reconnect can rely on the
// edge-triggered contract.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/holoroster/pkg/events"
)

// topicTransition is the internal bus topic for online/offline flips.
const topicTransition events.Topic = "connectivity-transition"

// defaultInterval is the heartbeat poll cadence.
const defaultInterval = 5 * time.Second

// defaultProbeTimeout bounds a single heartbeat probe.
const defaultProbeTimeout = 2 * time.Second

// Prober performs one reachability check against the ledger.
type Prober interface {
	Heartbeat(ctx context.Context) error
}

// Transition is an edge event: the online boolean changed.
type Transition struct {
	Online bool
	At     time.Time
}

// Config configures a Monitor.
type Config struct {
	// Prober checks ledger reachability. Required.
	Prober Prober

	// Interval is the poll cadence. Default: 5s.
	Interval time.Duration

	// ProbeTimeout bounds a single probe. Default: 2s.
	ProbeTimeout time.Duration

	// Logger overrides slog.Default().
	Logger *slog.Logger
}

// Monitor polls the ledger heartbeat and exposes a synchronous online
// query plus edge-triggered transition subscriptions.
//
// A fresh monitor starts offline; the first successful probe flips it
// online and fires the first transition.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	bus          *events.Bus

	mu     sync.Mutex
	online bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Monitor. It does not start polling; call Start.
func New(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Monitor{
		prober:       cfg.Prober,
		interval:     cfg.Interval,
		probeTimeout: cfg.ProbeTimeout,
		logger:       cfg.Logger,
		bus:          events.New(),
	}
}

// IsOnline reports the last observed connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnTransition subscribes to online/offline flips. The handler runs on
// the polling goroutine (or the Check caller); returns an unsubscribe
// func.
func (m *Monitor) OnTransition(fn func(online bool)) (unsubscribe func()) {
	return m.bus.Subscribe(topicTransition, func(payload any) {
		if tr, ok := payload.(Transition); ok {
			fn(tr.Online)
		}
	})
}

// Check runs a single probe and applies any resulting transition.
// Returns the observed online state.
func (m *Monitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.prober.Heartbeat(probeCtx)
	online := err == nil
	m.apply(online)
	return online
}

// Start begins polling until ctx is cancelled or Stop is called.
// Starting an already-started monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go m.loop(ctx, done)
}

// Stop halts polling and waits for the poll loop to exit. The last
// observed state is retained.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// apply records the observed state and publishes a transition when the
// boolean flipped.
func (m *Monitor) apply(online bool) {
	m.mu.Lock()
	changed := online != m.online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return
	}
	m.logger.Info("connectivity transition", "online", online)
	m.bus.Publish(topicTransition, Transition{Online: online, At: time.Now()})
}
