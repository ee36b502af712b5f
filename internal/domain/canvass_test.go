package domain

import "testing"

func TestTerminal(t *testing.T) {
	if Terminal(ResponseContinuing) {
		t.Errorf("%q must continue into the question steps", ResponseContinuing)
	}
	for _, kind := range []string{"no_response", "moved", "refused", "inaccessible", ""} {
		if !Terminal(kind) {
			t.Errorf("Terminal(%q) = false; any non-continuing kind finalizes", kind)
		}
	}
}
