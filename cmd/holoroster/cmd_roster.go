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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/holoroster/pkg/ledgerclient"
	"github.com/AleutianAI/holoroster/pkg/roster"
	"github.com/AleutianAI/holoroster/pkg/ux"
)

const requestTimeout = 10 * time.Second

func newClient() *ledgerclient.Client {
	return ledgerclient.New(config.ServerURL)
}

func fail(msg string, err error) {
	logger.Error(msg, "error", err)
	ux.Error(fmt.Sprintf("%s: %v", msg, err))
	os.Exit(1)
}

func printPeople(heading string, people []roster.Person) {
	ux.Title(heading)
	if len(people) == 0 {
		ux.Info("  (none)")
		return
	}
	for _, p := range people {
		ux.Item(fmt.Sprintf("%-3d %s", p.ID, p.Name))
	}
}

func runRoster(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	client := newClient()

	var (
		masters, apprentices []roster.Person
		err                  error
	)
	if onlyUnassigned {
		masters, err = client.UnassignedMasters(ctx)
	} else {
		masters, err = client.Masters(ctx)
	}
	if err != nil {
		fail("failed to fetch masters", err)
	}
	if onlyUnassigned {
		apprentices, err = client.UnassignedApprentices(ctx)
	} else {
		apprentices, err = client.Apprentices(ctx)
	}
	if err != nil {
		fail("failed to fetch apprentices", err)
	}

	printPeople("Masters", masters)
	printPeople("Apprentices", apprentices)
}

func runAssignments(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	assignments, err := newClient().Assignments(ctx)
	if err != nil {
		fail("failed to fetch assignments", err)
	}

	ux.Title("Assignments")
	if len(assignments) == 0 {
		ux.Info("  (none)")
		return
	}
	for _, a := range assignments {
		ux.Item(fmt.Sprintf("%s %s %s",
			a.Master.Name, ux.IconArrow.Render(), a.Apprentice.Name))
	}
}
