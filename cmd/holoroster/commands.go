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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverFlag     string
	plainOutput    bool
	onlyUnassigned bool

	rootCmd = &cobra.Command{
		Use:   "holoroster",
		Short: "A cli to inspect and mutate the master/apprentice assignment ledger",
		Long: `Holoroster manages a roster of masters and apprentices and
the assignments between them, backed by the ledger service.`,
	}

	// --- Roster views ---
	rosterCmd = &cobra.Command{
		Use:   "roster",
		Short: "List masters and apprentices",
		Run:   runRoster, // Defined in cmd_roster.go
	}
	assignmentsCmd = &cobra.Command{
		Use:   "assignments",
		Short: "List active master/apprentice assignments",
		Run:   runAssignments, // Defined in cmd_roster.go
	}

	// --- Mutations ---
	assignCmd = &cobra.Command{
		Use:   "assign [masterID apprenticeID]",
		Short: "Assign an apprentice to a master (interactive when ids are omitted)",
		Args:  cobra.RangeArgs(0, 2),
		Run:   runAssign, // Defined in cmd_mutate.go
	}
	unassignCmd = &cobra.Command{
		Use:   "unassign <masterID> <apprenticeID>",
		Short: "Dissolve a master/apprentice assignment",
		Args:  cobra.ExactArgs(2),
		Run:   runUnassign, // Defined in cmd_mutate.go
	}
	promoteCmd = &cobra.Command{
		Use:   "promote <apprenticeID>",
		Short: "Promote an apprentice to master",
		Args:  cobra.ExactArgs(1),
		Run:   runPromote, // Defined in cmd_mutate.go
	}

	// --- Events ---
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Stream roster change events from the ledger",
		Run:   runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "",
		"Ledger service URL (overrides config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Plain output suitable for scripting")

	rosterCmd.Flags().BoolVar(&onlyUnassigned, "unassigned", false,
		"Only list members without an assignment")

	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(assignmentsCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(unassignCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(watchCmd)
}
