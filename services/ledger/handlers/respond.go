// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP and websocket handlers for the
// ledger service.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// statusForCode maps ledger error codes to HTTP status codes.
func statusForCode(code roster.Code) int {
	switch code {
	case roster.CodeNotFound:
		return http.StatusNotFound
	case roster.CodeInvalidRole:
		return http.StatusBadRequest
	case roster.CodeAlreadyAssigned, roster.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a ledger error as a JSON body carrying both the
// message and the machine-readable code clients rebuild errors from.
func writeError(c *gin.Context, err error) {
	code := roster.CodeOf(err)
	c.JSON(statusForCode(code), gin.H{"error": err.Error(), "code": code})
}

// pathID parses an integer path parameter. On failure it writes a 400
// response and reports false.
func pathID(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid %s %q", name, raw),
			"code":  roster.CodeUnknown,
		})
		return 0, false
	}
	return id, true
}
