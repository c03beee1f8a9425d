// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ledgerclient is the HTTP JSON client for the ledger service.
//
// Ledger-side failures come back as structured bodies
// ({"error": …, "code": …}) and are rebuilt into roster errors so
// callers can branch on roster.CodeOf. Connection-level failures are
// reported as TRANSPORT_FAILURE.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// defaultTimeout bounds a single request when the caller's context
// carries no deadline.
const defaultTimeout = 10 * time.Second

// Client talks to one ledger service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the ledger at baseURL (scheme + host, no
// trailing slash required).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Heartbeat probes ledger reachability.
func (c *Client) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/v1/heartbeat", nil)
	if err != nil {
		return transportErr("heartbeat", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr("heartbeat", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return roster.NewError(roster.CodeTransportFailure, "heartbeat: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Masters returns the full master roster.
func (c *Client) Masters(ctx context.Context) ([]roster.Person, error) {
	return c.getPeople(ctx, "/v1/masters")
}

// UnassignedMasters returns masters without an apprentice.
func (c *Client) UnassignedMasters(ctx context.Context) ([]roster.Person, error) {
	return c.getPeople(ctx, "/v1/masters/unassigned")
}

// Apprentices returns the full apprentice roster.
func (c *Client) Apprentices(ctx context.Context) ([]roster.Person, error) {
	return c.getPeople(ctx, "/v1/apprentices")
}

// UnassignedApprentices returns apprentices without a master.
func (c *Client) UnassignedApprentices(ctx context.Context) ([]roster.Person, error) {
	return c.getPeople(ctx, "/v1/apprentices/unassigned")
}

// Assignments returns all resolved master/apprentice pairs.
func (c *Client) Assignments(ctx context.Context) ([]roster.Assignment, error) {
	var out []roster.Assignment
	if err := c.doJSON(ctx, http.MethodGet, "/v1/assignments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assign stores a master/apprentice pair.
func (c *Client) Assign(ctx context.Context, masterID, apprenticeID int) error {
	path := fmt.Sprintf("/v1/masters/%d/apprentice/%d", masterID, apprenticeID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// Unassign removes a master/apprentice pair. Mismatches are server-side
// no-ops.
func (c *Client) Unassign(ctx context.Context, masterID, apprenticeID int) error {
	path := fmt.Sprintf("/v1/masters/%d/apprentice/%d", masterID, apprenticeID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// Promote changes an apprentice's role and returns the updated person.
func (c *Client) Promote(ctx context.Context, apprenticeID int, role string) (roster.Person, error) {
	path := fmt.Sprintf("/v1/apprentices/%d/role", apprenticeID)
	body := map[string]string{"role": role}
	var updated roster.Person
	if err := c.doJSON(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return roster.Person{}, err
	}
	return updated, nil
}

func (c *Client) getPeople(ctx context.Context, path string) ([]roster.Person, error) {
	var out []roster.Person
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doJSON performs one request. in (optional) is marshalled as the JSON
// body; out (optional) receives the decoded 2xx response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportErr(path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportErr(path, err)
	}
	return nil
}

// errorBody is the structured error envelope the ledger service emits.
type errorBody struct {
	Error string      `json:"error"`
	Code  roster.Code `json:"code"`
}

// decodeError rebuilds a roster error from a non-2xx response.
func decodeError(path string, resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return transportErr(path, err)
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
		return roster.NewError(roster.CodeTransportFailure,
			"%s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return roster.NewError(body.Code, "%s", body.Error)
}

func transportErr(op string, err error) error {
	return roster.NewError(roster.CodeTransportFailure, "%s: %v", op, err)
}
