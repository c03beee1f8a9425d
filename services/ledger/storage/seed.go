// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AleutianAI/holoroster/pkg/roster"
)

// LoadSeedFile reads a JSON array of members from disk. The file is
// optional bootstrap data; callers decide whether to apply it.
func LoadSeedFile(path string) ([]roster.Person, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read seed file: %w", err)
	}
	var members []roster.Person
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("storage: parse seed file %s: %w", path, err)
	}
	for _, m := range members {
		if _, err := roster.ParseRole(string(m.Role)); err != nil {
			return nil, fmt.Errorf("storage: seed member %d: %w", m.ID, err)
		}
	}
	return members, nil
}
