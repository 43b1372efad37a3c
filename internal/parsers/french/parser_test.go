package french

import "testing"

func TestParser_Extract(t *testing.T) {
	parser := &Parser{}

	text := `- Marie Dupont : 41 ans
- Jean Dupont : 12 ans`

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	if cands[0].Name != "Marie Dupont" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Marie Dupont")
	}
	if !cands[0].HasAge || cands[0].Age != 41 {
		t.Errorf("Age = %v (has %v), want 41", cands[0].Age, cands[0].HasAge)
	}
	if cands[0].DOB != "" {
		t.Errorf("DOB = %q, want empty", cands[0].DOB)
	}

	if cands[1].Name != "Jean Dupont" {
		t.Errorf("Name = %q, want %q", cands[1].Name, "Jean Dupont")
	}
	if !cands[1].HasAge || cands[1].Age != 12 {
		t.Errorf("Age = %v (has %v), want 12", cands[1].Age, cands[1].HasAge)
	}
}

func TestParser_ExtractSingularAn(t *testing.T) {
	parser := &Parser{}

	cands := parser.Extract("- Lucas Dupont : 1 an")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if !cands[0].HasAge || cands[0].Age != 1 {
		t.Errorf("Age = %v (has %v), want 1", cands[0].Age, cands[0].HasAge)
	}
}

func TestParser_ExtractNoAgeList(t *testing.T) {
	parser := &Parser{}

	if cands := parser.Extract("John Smith 15.03.1990"); len(cands) != 0 {
		t.Errorf("expected no candidates, got %v", cands)
	}
}

func TestParser_QuickCheck(t *testing.T) {
	parser := &Parser{}

	tests := []struct {
		text string
		want bool
	}{
		{"- Marie Dupont : 41 ans", true},
		{"John Smith 15.03.1990", false},
	}

	for _, tt := range tests {
		if got := parser.QuickCheck(tt.text); got != tt.want {
			t.Errorf("QuickCheck(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
