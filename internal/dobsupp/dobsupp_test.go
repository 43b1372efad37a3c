package dobsupp

import "testing"

func TestByResellerViator(t *testing.T) {
	notes := "Q:Date of Birth\nA:09/05/1965, 28/11/2006, 17/11/1966"
	got := ByReseller(notes, "Viator.com")
	want := []string{"09/05/1965", "28/11/2006", "17/11/1966"}
	if len(got) != len(want) {
		t.Fatalf("ByReseller returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dob %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestByResellerViatorInline(t *testing.T) {
	got := ByReseller("Q:Date of Birth A:01/02/2003", "Viator")
	if len(got) != 1 || got[0] != "01/02/2003" {
		t.Errorf("ByReseller inline = %v, want [01/02/2003]", got)
	}
}

func TestViatorSkipsMalformedDates(t *testing.T) {
	got := ByReseller("Q:Date of Birth\nA:1/2/2003, 09/05/1965, unknown", "Viator")
	if len(got) != 1 || got[0] != "09/05/1965" {
		t.Errorf("ByReseller = %v, want only the strict DD/MM/YYYY date", got)
	}
}

func TestByResellerGYGLabels(t *testing.T) {
	notes := "Date of Birth: 15/03/1990\nsomething\nDate of Birth: 1988-07-02"
	got := ByReseller(notes, "GetYourGuide Deals")
	if len(got) != 2 || got[0] != "15/03/1990" || got[1] != "1988-07-02" {
		t.Errorf("ByReseller = %v, want slash date then ISO date", got)
	}
}

func TestByResellerUnknown(t *testing.T) {
	if got := ByReseller("Date of Birth: 15/03/1990", "Expedia"); got != nil {
		t.Errorf("ByReseller for unregistered reseller = %v, want nil", got)
	}
	if got := ByReseller("", "Viator"); got != nil {
		t.Errorf("ByReseller with empty notes = %v, want nil", got)
	}
}
