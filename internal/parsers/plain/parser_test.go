package plain

import "testing"

func TestMixedLines_Extract(t *testing.T) {
	parser := &mixedLines{}

	text := `Olga Petrov 15/03/1990
Ivan Petrov`

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Name != "Olga Petrov" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Olga Petrov")
	}
	if cands[0].DOB != "15/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "15/03/1990")
	}
	if cands[1].Name != "Ivan Petrov" {
		t.Errorf("Name = %q, want %q", cands[1].Name, "Ivan Petrov")
	}
	if cands[1].DOB != "" {
		t.Errorf("DOB = %q, want empty", cands[1].DOB)
	}
}

func TestMixedLines_ExtractMonthFirstFallback(t *testing.T) {
	parser := &mixedLines{}

	// Impossible day-first, valid month-first.
	cands := parser.Extract("Olga Petrov 03/25/1990")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].DOB != "25/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "25/03/1990")
	}
}

func TestMixedLines_ExtractSkipsInstructions(t *testing.T) {
	parser := &mixedLines{}

	text := `Please provide full names of everyone
Olga Petrov`

	cands := parser.Extract(text)
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Name != "Olga Petrov" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Olga Petrov")
	}
}

func TestNameLines_Extract(t *testing.T) {
	parser := &nameLines{}

	text := `Olga Petrov
Ivan Petrov`

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Name != "Olga Petrov" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Olga Petrov")
	}
	if cands[1].Name != "Ivan Petrov" {
		t.Errorf("Name = %q, want %q", cands[1].Name, "Ivan Petrov")
	}
}

func TestIsNameLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Olga Petrov", true},
		{"Jean-Pierre Dubois", true},
		{"Olga", false},                    // single word
		{"Olga Petrov 15/03/1990", false},  // digits
		{"2nd floor reception", false},     // address boilerplate
		{"RMZ 12345", false},               // reference line
		{"please call on arrival", false},  // instruction
		{"Olga, Ivan", false},              // separators
		{"One Two Three Four Five", false}, // too many words
	}

	for _, tt := range tests {
		if got := isNameLine(tt.line); got != tt.want {
			t.Errorf("isNameLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
