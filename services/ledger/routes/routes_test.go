// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/handlers"
)

func newTestRouter(t *testing.T) (*gin.Engine, *roster.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger, err := roster.NewLedger([]roster.Person{
		{ID: 1, Name: "Darth Hildenbrand", Role: roster.RoleMaster},
		{ID: 2, Name: "Darth Headrick", Role: roster.RoleMaster},
		{ID: 5, Name: "Apprentice Bushnell", Role: roster.RoleApprentice},
		{ID: 6, Name: "Apprentice Cadenhead", Role: roster.RoleApprentice},
	})
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, ledger, handlers.NewHub())
	return router, ledger
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodePeople(t *testing.T, rec *httptest.ResponseRecorder) []roster.Person {
	t.Helper()
	var people []roster.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &people))
	return people
}

func TestHealthAndHeartbeat(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = doRequest(router, http.MethodHead, "/v1/heartbeat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestListRosterViews(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/v1/masters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	masters := decodePeople(t, rec)
	require.Len(t, masters, 2)
	assert.Equal(t, "Darth Hildenbrand", masters[0].Name)

	rec = doRequest(router, http.MethodGet, "/v1/apprentices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodePeople(t, rec), 2)

	rec = doRequest(router, http.MethodGet, "/v1/assignments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/5", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/assignments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var assignments []roster.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assignments))
	require.Len(t, assignments, 1)
	assert.Equal(t, 1, assignments[0].Master.ID)
	assert.Equal(t, 5, assignments[0].Apprentice.ID)

	rec = doRequest(router, http.MethodGet, "/v1/masters/unassigned", "")
	require.Equal(t, http.StatusOK, rec.Code)
	unassigned := decodePeople(t, rec)
	require.Len(t, unassigned, 1)
	assert.Equal(t, 2, unassigned[0].ID)

	rec = doRequest(router, http.MethodGet, "/v1/apprentices/unassigned", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodePeople(t, rec), 1)

	rec = doRequest(router, http.MethodDelete, "/v1/masters/1/apprentice/5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/assignments", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAssignConflictAndNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/5", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same pairing again is accepted without effect.
	rec = doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/5", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// A different apprentice for a busy master is a conflict.
	rec = doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/6", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), string(roster.CodeAlreadyAssigned))

	rec = doRequest(router, http.MethodPost, "/v1/masters/99/apprentice/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(roster.CodeNotFound))

	rec = doRequest(router, http.MethodPost, "/v1/masters/abc/apprentice/5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnassignMismatchIsSilent(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/5", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Wrong apprentice id: no-op, still 200, pairing survives.
	rec = doRequest(router, http.MethodDelete, "/v1/masters/1/apprentice/6", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/assignments", "")
	var assignments []roster.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assignments))
	assert.Len(t, assignments, 1)

	// Unknown master is still an error.
	rec = doRequest(router, http.MethodDelete, "/v1/masters/99/apprentice/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromoteApprentice(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/v1/masters/1/apprentice/5", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPatch, "/v1/apprentices/5/role", `{"role": "master"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var promoted roster.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &promoted))
	assert.Equal(t, "Darth Bushnell", promoted.Name)
	assert.Equal(t, roster.RoleMaster, promoted.Role)

	// Promotion dissolves the pairing.
	rec = doRequest(router, http.MethodGet, "/v1/assignments", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = doRequest(router, http.MethodGet, "/v1/masters", "")
	assert.Len(t, decodePeople(t, rec), 3)
}

func TestPromoteRejections(t *testing.T) {
	router, _ := newTestRouter(t)

	// Demotion is not a forward transition.
	rec := doRequest(router, http.MethodPatch, "/v1/apprentices/1/role", `{"role": "apprentice"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), string(roster.CodeInvalidTransition))

	rec = doRequest(router, http.MethodPatch, "/v1/apprentices/5/role", `{"role": "emperor"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(roster.CodeInvalidRole))

	rec = doRequest(router, http.MethodPatch, "/v1/apprentices/99/role", `{"role": "master"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodPatch, "/v1/apprentices/5/role", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
