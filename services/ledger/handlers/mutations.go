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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/datatypes"
	"github.com/AleutianAI/holoroster/services/ledger/observability"
)

// updateRosterGauges refreshes the size and assignment gauges after a
// mutation settles.
func updateRosterGauges(m *observability.LedgerMetrics, ledger *roster.Ledger) {
	m.RosterSize.WithLabelValues(string(roster.RoleMaster)).Set(float64(ledger.Size(roster.RoleMaster)))
	m.RosterSize.WithLabelValues(string(roster.RoleApprentice)).Set(float64(ledger.Size(roster.RoleApprentice)))
	m.AssignmentsActive.Set(float64(ledger.AssignmentCount()))
}

// AssignApprentice pairs an apprentice with a master. Repeating an
// identical pairing succeeds without effect; pairing a busy master
// with someone else is a conflict.
func AssignApprentice(ledger *roster.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics := observability.InitMetrics()

		masterID, ok := pathID(c, "masterID")
		if !ok {
			return
		}
		apprenticeID, ok := pathID(c, "apprenticeID")
		if !ok {
			return
		}

		err := ledger.Assign(masterID, apprenticeID)
		metrics.MutationDurationSeconds.WithLabelValues("assign").
			Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("assign rejected",
				"masterID", masterID, "apprenticeID", apprenticeID, "error", err)
			metrics.MutationsTotal.WithLabelValues("assign", "error").Inc()
			writeError(c, err)
			return
		}

		metrics.MutationsTotal.WithLabelValues("assign", "success").Inc()
		updateRosterGauges(metrics, ledger)
		hub.Broadcast(datatypes.ChangeEvent{
			Event:        "assign",
			MasterID:     masterID,
			ApprenticeID: apprenticeID,
		})
		c.JSON(http.StatusCreated, gin.H{
			"status":       "assigned",
			"masterId":     masterID,
			"apprenticeId": apprenticeID,
		})
	}
}

// UnassignApprentice dissolves a pairing. Dissolving a pairing that
// does not exist succeeds without effect.
func UnassignApprentice(ledger *roster.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics := observability.InitMetrics()

		masterID, ok := pathID(c, "masterID")
		if !ok {
			return
		}
		apprenticeID, ok := pathID(c, "apprenticeID")
		if !ok {
			return
		}

		err := ledger.Unassign(masterID, apprenticeID)
		metrics.MutationDurationSeconds.WithLabelValues("unassign").
			Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("unassign rejected",
				"masterID", masterID, "apprenticeID", apprenticeID, "error", err)
			metrics.MutationsTotal.WithLabelValues("unassign", "error").Inc()
			writeError(c, err)
			return
		}

		metrics.MutationsTotal.WithLabelValues("unassign", "success").Inc()
		updateRosterGauges(metrics, ledger)
		hub.Broadcast(datatypes.ChangeEvent{
			Event:        "unassign",
			MasterID:     masterID,
			ApprenticeID: apprenticeID,
		})
		c.JSON(http.StatusOK, gin.H{
			"status":       "unassigned",
			"masterId":     masterID,
			"apprenticeId": apprenticeID,
		})
	}
}

// PromoteApprentice changes a member's role. Only forward transitions
// are allowed; a promoted apprentice loses any pairing and is retitled.
// The updated member record is returned so clients can project it.
func PromoteApprentice(ledger *roster.Ledger, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics := observability.InitMetrics()

		apprenticeID, ok := pathID(c, "apprenticeID")
		if !ok {
			return
		}

		var req datatypes.PromoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid request body: " + err.Error(),
				"code":  roster.CodeUnknown,
			})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid role: " + err.Error(),
				"code":  roster.CodeInvalidRole,
			})
			return
		}

		updated, err := ledger.Promote(apprenticeID, req.Role)
		metrics.MutationDurationSeconds.WithLabelValues("promote").
			Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("promote rejected",
				"memberID", apprenticeID, "role", req.Role, "error", err)
			metrics.MutationsTotal.WithLabelValues("promote", "error").Inc()
			writeError(c, err)
			return
		}

		metrics.MutationsTotal.WithLabelValues("promote", "success").Inc()
		updateRosterGauges(metrics, ledger)
		hub.Broadcast(datatypes.ChangeEvent{
			Event:    "promote",
			MemberID: updated.ID,
		})
		c.JSON(http.StatusOK, updated)
	}
}
