package testutil

import "testing"

// Given, When, and Then name the phases of a scenario as subtests so that
// failures read like a sentence in verbose output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }

func When(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "When", desc, fn) }

func Then(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Then", desc, fn) }

func step(t *testing.T, phase, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(phase+" "+desc, fn)
}
