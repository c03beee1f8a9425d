// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package roster holds the domain model for the master/apprentice
// roster and the invariant-enforcing assignment ledger.
package roster

import "strings"

// Role is the role a person holds. Progression is strictly forward:
// apprentice -> master, never backward and never a same-role re-grant.
type Role string

const (
	RoleApprentice Role = "apprentice"
	RoleMaster     Role = "master"
)

// roleProgression orders roles from junior to senior.
var roleProgression = []Role{RoleApprentice, RoleMaster}

// roleTitles maps a role to its display-name prefix.
var roleTitles = map[Role]string{
	RoleApprentice: "Apprentice",
	RoleMaster:     "Darth",
}

// ParseRole validates a role token.
func ParseRole(s string) (Role, error) {
	for _, r := range roleProgression {
		if Role(s) == r {
			return r, nil
		}
	}
	return "", NewError(CodeInvalidRole, "unrecognized role %q", s)
}

// rank returns the role's position in the progression, or -1.
func (r Role) rank() int {
	for i, candidate := range roleProgression {
		if r == candidate {
			return i
		}
	}
	return -1
}

// Person is a roster member. IDs are unique and immutable once assigned.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// retitle rewrites the role prefix of a display name, keeping the
// surname. "Apprentice Cloud" promoted to master becomes "Darth Cloud".
// Names without a prefix are returned with the title prepended.
func retitle(name string, role Role) string {
	title := roleTitles[role]
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return title + " " + name
	}
	return title + " " + strings.Join(fields[1:], " ")
}
