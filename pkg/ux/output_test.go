// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"
)

func TestMachineModeToggle(t *testing.T) {
	t.Cleanup(func() { SetMachineMode(false) })

	if MachineMode() {
		t.Fatal("machine mode should start off")
	}
	SetMachineMode(true)
	if !MachineMode() {
		t.Error("machine mode should be on after SetMachineMode(true)")
	}
	SetMachineMode(false)
	if MachineMode() {
		t.Error("machine mode should be off again")
	}
}

func TestIconRenderContainsGlyph(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconPending, IconArrow} {
		if !strings.Contains(icon.Render(), string(icon)) {
			t.Errorf("rendered %q lost its glyph", string(icon))
		}
	}
}

func TestStylesRenderText(t *testing.T) {
	// Styles may or may not emit ANSI codes depending on the test
	// terminal; the text itself must always survive.
	out := Styles.Title.Render("Apprentice Roster")
	if !strings.Contains(out, "Apprentice Roster") {
		t.Errorf("styled output %q lost its text", out)
	}
}
