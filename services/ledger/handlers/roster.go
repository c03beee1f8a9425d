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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Heartbeat answers connectivity probes with an empty 200. Clients use
// HEAD so no body is ever written.
func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// people guarantees a JSON array, never null, for empty rosters.
func people(members []roster.Person) []roster.Person {
	if members == nil {
		return []roster.Person{}
	}
	return members
}

// ListMasters returns every master, in insertion order.
func ListMasters(ledger *roster.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, people(ledger.Masters()))
	}
}

// ListUnassignedMasters returns masters with no current apprentice.
func ListUnassignedMasters(ledger *roster.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, people(ledger.UnassignedMasters()))
	}
}

// ListApprentices returns every apprentice, in insertion order.
func ListApprentices(ledger *roster.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, people(ledger.Apprentices()))
	}
}

// ListUnassignedApprentices returns apprentices not paired with any
// master.
func ListUnassignedApprentices(ledger *roster.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, people(ledger.UnassignedApprentices()))
	}
}

// ListAssignments returns the resolved master/apprentice pairs.
func ListAssignments(ledger *roster.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		assignments, err := ledger.Assignments()
		if err != nil {
			slog.Error("failed to resolve assignments", "error", err)
			writeError(c, err)
			return
		}
		if assignments == nil {
			assignments = []roster.Assignment{}
		}
		c.JSON(http.StatusOK, assignments)
	}
}
