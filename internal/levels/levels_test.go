package levels

import "testing"

func TestProgressionIsFourLevels(t *testing.T) {
	if Count() != 4 {
		t.Fatalf("expected 4 levels, got %d", Count())
	}
}

func TestLevelsAreComplete(t *testing.T) {
	seen := make(map[string]bool)
	for i, lvl := range All() {
		if lvl.ID == "" {
			t.Errorf("level %d: empty ID", i)
		}
		if seen[lvl.ID] {
			t.Errorf("level %d: duplicate ID %q", i, lvl.ID)
		}
		seen[lvl.ID] = true
		if lvl.Title == "" || lvl.Scenario == "" || lvl.Objective == "" {
			t.Errorf("level %q: missing title, scenario, or objective", lvl.ID)
		}
		if lvl.OpeningLine == "" {
			t.Errorf("level %q: missing opening line", lvl.ID)
		}
		if len(lvl.PanicPhrases) == 0 {
			t.Errorf("level %q: no panic phrases", lvl.ID)
		}
	}
}

func TestGetBounds(t *testing.T) {
	if Get(-1) != nil {
		t.Error("Get(-1) should be nil")
	}
	if Get(Count()) != nil {
		t.Error("Get(Count()) should be nil")
	}
	if lvl := Get(0); lvl == nil || lvl.ID != "airport" {
		t.Errorf("expected first level to be airport, got %+v", lvl)
	}
	if !IsLast(Count() - 1) {
		t.Error("last index should report IsLast")
	}
	if IsLast(0) {
		t.Error("first index should not report IsLast")
	}
}
