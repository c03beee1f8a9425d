// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledgerclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/services/ledger/handlers"
	"github.com/AleutianAI/holoroster/services/ledger/routes"
)

// newTestClient spins up a real ledger service and a client against it.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger, err := roster.NewLedger([]roster.Person{
		{ID: 1, Name: "Darth Hildenbrand", Role: roster.RoleMaster},
		{ID: 2, Name: "Darth Headrick", Role: roster.RoleMaster},
		{ID: 5, Name: "Apprentice Bushnell", Role: roster.RoleApprentice},
	})
	require.NoError(t, err)

	router := gin.New()
	routes.SetupRoutes(router, ledger, handlers.NewHub())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return New(server.URL)
}

func TestHeartbeat(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Heartbeat(context.Background()))
}

func TestHeartbeatTransportFailure(t *testing.T) {
	client := New("http://127.0.0.1:1")
	err := client.Heartbeat(context.Background())
	require.Error(t, err)
	assert.Equal(t, roster.CodeTransportFailure, roster.CodeOf(err))
}

func TestRosterViews(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	masters, err := client.Masters(ctx)
	require.NoError(t, err)
	require.Len(t, masters, 2)
	assert.Equal(t, "Darth Hildenbrand", masters[0].Name)

	apprentices, err := client.Apprentices(ctx)
	require.NoError(t, err)
	require.Len(t, apprentices, 1)

	assignments, err := client.Assignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Assign(ctx, 1, 5))

	assignments, err := client.Assignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 1, assignments[0].Master.ID)
	assert.Equal(t, 5, assignments[0].Apprentice.ID)

	unassigned, err := client.UnassignedMasters(ctx)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, 2, unassigned[0].ID)

	free, err := client.UnassignedApprentices(ctx)
	require.NoError(t, err)
	assert.Empty(t, free)

	require.NoError(t, client.Unassign(ctx, 1, 5))

	assignments, err = client.Assignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestAssignErrorsCarryCodes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.Assign(ctx, 99, 5)
	require.Error(t, err)
	assert.Equal(t, roster.CodeNotFound, roster.CodeOf(err))

	require.NoError(t, client.Assign(ctx, 1, 5))
	err = client.Assign(ctx, 1, 99)
	require.Error(t, err)
	assert.Equal(t, roster.CodeNotFound, roster.CodeOf(err))
}

func TestPromote(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	updated, err := client.Promote(ctx, 5, "master")
	require.NoError(t, err)
	assert.Equal(t, "Darth Bushnell", updated.Name)
	assert.Equal(t, roster.RoleMaster, updated.Role)

	_, err = client.Promote(ctx, 5, "master")
	require.Error(t, err)
	assert.Equal(t, roster.CodeInvalidTransition, roster.CodeOf(err))

	_, err = client.Promote(ctx, 1, "emperor")
	require.Error(t, err)
	assert.Equal(t, roster.CodeInvalidRole, roster.CodeOf(err))
}

func TestDecodeErrorFallsBackOnGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL)
	_, err := client.Masters(context.Background())
	require.Error(t, err)
	assert.Equal(t, roster.CodeTransportFailure, roster.CodeOf(err))
	assert.Contains(t, err.Error(), "502")
}
