package paren

import (
	"testing"

	"namesgen/internal/booking"
)

func TestSlashParen_Extract(t *testing.T) {
	parser := &slashParen{}

	text := `John Parker (15/03/1990)
Emma Parker (20/07/1985)`

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Name != "John Parker" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "John Parker")
	}
	if cands[0].DOB != "15/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "15/03/1990")
	}
	if cands[1].DOB != "20/07/1985" {
		t.Errorf("DOB = %q, want %q", cands[1].DOB, "20/07/1985")
	}
}

func TestYearFirstParen_Extract(t *testing.T) {
	parser := &yearFirstParen{}

	cands := parser.Extract("Kovacs Anna (1990.03.15)")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Name != "Kovacs Anna" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Kovacs Anna")
	}
	if cands[0].DOB != "15/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "15/03/1990")
	}
}

func TestCategoryParen_Extract(t *testing.T) {
	parser := &categoryParen{}

	text := "Tom Weber (adult) 15-03-1990 Mia Weber (child) 20-07-2015"

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].UnitHint != booking.UnitAdult {
		t.Errorf("UnitHint = %q, want %q", cands[0].UnitHint, booking.UnitAdult)
	}
	if cands[0].DOB != "15/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "15/03/1990")
	}
	if cands[1].UnitHint != booking.UnitChild {
		t.Errorf("UnitHint = %q, want %q", cands[1].UnitHint, booking.UnitChild)
	}
}

func TestCompactParen_Extract(t *testing.T) {
	parser := &compactParen{}

	cands := parser.Extract("John Smith (15Mar1990)")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].DOB != "15/03/1990" {
		t.Errorf("DOB = %q, want %q", cands[0].DOB, "15/03/1990")
	}
}

func TestBirthYearParen_Extract(t *testing.T) {
	parser := &birthYearParen{}

	cands := parser.Extract("Lena Meyer (1985)")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Name != "Lena Meyer" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "Lena Meyer")
	}
	if cands[0].BirthYear != 1985 {
		t.Errorf("BirthYear = %d, want 1985", cands[0].BirthYear)
	}
	if cands[0].DOB != "" {
		t.Errorf("DOB = %q, want empty", cands[0].DOB)
	}
}

func TestBirthYearParen_ExtractRejectsImplausibleYears(t *testing.T) {
	parser := &birthYearParen{}

	if cands := parser.Extract("Lena Meyer (3025)"); len(cands) != 0 {
		t.Errorf("expected no candidates for implausible year, got %v", cands)
	}
}

func TestDashList_Extract(t *testing.T) {
	parser := &dashList{}

	text := `- John Smith (15/03/1990),
- Jane Smith (20.07.1985),`

	cands := parser.Extract(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Name != "John Smith" {
		t.Errorf("Name = %q, want %q", cands[0].Name, "John Smith")
	}
	if cands[1].DOB != "20/07/1985" {
		t.Errorf("DOB = %q, want %q", cands[1].DOB, "20/07/1985")
	}
}

func TestSlashParen_QuickCheck(t *testing.T) {
	parser := &slashParen{}

	tests := []struct {
		text string
		want bool
	}{
		{"John Parker (15/03/1990)", true},
		{"John Parker (1985)", false},
		{"John Parker 15/03/1990", false},
	}

	for _, tt := range tests {
		if got := parser.QuickCheck(tt.text); got != tt.want {
			t.Errorf("QuickCheck(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
