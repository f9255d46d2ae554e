package ui

import "testing"

func TestPaintHonoursEnabled(t *testing.T) {
	defer func(prev bool) { Enabled = prev }(Enabled)

	Enabled = true
	if got := Bold("x"); got != bold+"x"+reset {
		t.Errorf("Bold = %q", got)
	}
	if got := Value(""); got != "" {
		t.Errorf("empty text must stay empty, got %q", got)
	}

	Enabled = false
	if got := Title("SCRAPE"); got != "SCRAPE" {
		t.Errorf("disabled styling changed text: %q", got)
	}
	if got := Field("Businesses", "3"); got != "  Businesses: 3" {
		t.Errorf("Field = %q", got)
	}
}
