// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/pkg/ux"
)

func parseID(raw, what string) int {
	id, err := strconv.Atoi(raw)
	if err != nil {
		fail("invalid "+what, fmt.Errorf("%q is not a member id", raw))
	}
	return id
}

// pickMember runs an interactive select over the given people.
func pickMember(title string, people []roster.Person) int {
	options := make([]huh.Option[int], 0, len(people))
	for _, p := range people {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%d)", p.Name, p.ID), p.ID))
	}

	var picked int
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title(title).
			Options(options...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		fail("selection aborted", err)
	}
	return picked
}

func runAssign(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	client := newClient()

	var masterID, apprenticeID int
	if len(args) == 2 {
		masterID = parseID(args[0], "master id")
		apprenticeID = parseID(args[1], "apprentice id")
	} else if len(args) == 0 && ux.InteractiveStdout() {
		masters, err := client.UnassignedMasters(ctx)
		if err != nil {
			fail("failed to fetch unassigned masters", err)
		}
		apprentices, err := client.UnassignedApprentices(ctx)
		if err != nil {
			fail("failed to fetch unassigned apprentices", err)
		}
		if len(masters) == 0 || len(apprentices) == 0 {
			ux.Warning("nobody left to pair: every master or every apprentice is taken")
			return
		}
		masterID = pickMember("Choose a master", masters)
		apprenticeID = pickMember("Choose an apprentice", apprentices)
	} else {
		fail("assign needs ids", fmt.Errorf("pass masterID and apprenticeID, or run interactively"))
	}

	if err := client.Assign(ctx, masterID, apprenticeID); err != nil {
		fail("assign rejected", err)
	}
	logger.Info("assigned apprentice", "masterID", masterID, "apprenticeID", apprenticeID)
	ux.Success(fmt.Sprintf("apprentice %d assigned to master %d", apprenticeID, masterID))
}

func runUnassign(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	masterID := parseID(args[0], "master id")
	apprenticeID := parseID(args[1], "apprentice id")

	if err := newClient().Unassign(ctx, masterID, apprenticeID); err != nil {
		fail("unassign rejected", err)
	}
	logger.Info("unassigned apprentice", "masterID", masterID, "apprenticeID", apprenticeID)
	ux.Success(fmt.Sprintf("apprentice %d unassigned from master %d", apprenticeID, masterID))
}

func runPromote(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	apprenticeID := parseID(args[0], "apprentice id")

	updated, err := newClient().Promote(ctx, apprenticeID, string(roster.RoleMaster))
	if err != nil {
		fail("promote rejected", err)
	}
	logger.Info("promoted apprentice", "memberID", updated.ID, "name", updated.Name)
	ux.Success(fmt.Sprintf("promoted to master: %s", updated.Name))
}
