// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/holoroster/services/ledger/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans change events out to connected websocket subscribers.
// Writes are serialized under the hub mutex; a failed write drops the
// subscriber.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: map[string]*websocket.Conn{}}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast pushes v to every subscriber. Subscribers whose write
// fails are closed and removed.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ws := range h.conns {
		if err := ws.WriteJSON(v); err != nil {
			slog.Warn("dropping event subscriber", "subscriberId", id, "error", err)
			_ = ws.Close()
			delete(h.conns, id)
		}
	}
}

func (h *Hub) add(id string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = ws
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// HandleEventsWebSocket upgrades the connection and registers the
// subscriber with the hub until the peer disconnects.
func HandleEventsWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		metrics := observability.InitMetrics()
		subscriberID := uuid.New().String()
		slog.Info("event subscriber connected", "subscriberId", subscriberID)

		if err := ws.WriteJSON(map[string]any{
			"action":       "subscribed",
			"subscriberId": subscriberID,
		}); err != nil {
			slog.Warn("failed to greet event subscriber", "error", err)
			return
		}

		hub.add(subscriberID, ws)
		metrics.EventSubscribers.Inc()
		defer func() {
			hub.remove(subscriberID)
			metrics.EventSubscribers.Dec()
		}()

		// Subscribers never send payloads; the read loop only detects
		// disconnects.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Info("event subscriber disconnected",
					"subscriberId", subscriberID, "error", err.Error())
				return
			}
		}
	}
}
