// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the ledger
// service.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// ledgerValidate is the shared validator instance for ledger datatypes.
var ledgerValidate = validator.New()

// PromoteRequest is the body of PATCH /v1/apprentices/:apprenticeID/role.
type PromoteRequest struct {
	// Role is the target role token. Only forward transitions are
	// accepted by the ledger; the handler rejects unknown tokens
	// before the ledger sees them.
	Role string `json:"role" validate:"required,oneof=apprentice master"`
}

// Validate checks the request fields after JSON binding.
func (r *PromoteRequest) Validate() error {
	return ledgerValidate.Struct(r)
}

// ChangeEvent is one websocket notification pushed to subscribers when
// the roster or the assignment relation changes.
type ChangeEvent struct {
	// Event names the mutation: "assign", "unassign", "promote", or
	// "roster-reloaded".
	Event string `json:"event"`

	// MasterID and ApprenticeID identify the affected pair for assign
	// and unassign events.
	MasterID     int `json:"masterId,omitempty"`
	ApprenticeID int `json:"apprenticeId,omitempty"`

	// MemberID identifies the promoted member for promote events.
	MemberID int `json:"memberId,omitempty"`

	// Added carries the number of new members for roster-reloaded
	// events.
	Added int `json:"added,omitempty"`
}
