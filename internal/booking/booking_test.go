package booking

import (
	"testing"
	"time"
)

func TestParseUnitType(t *testing.T) {
	tests := []struct {
		in   string
		want UnitType
	}{
		{"Adult", UnitAdult},
		{"adults", UnitAdult},
		{" CHILD ", UnitChild},
		{"Infant", UnitInfant},
		{"youth", UnitYouth},
		{"Senior", UnitType("Senior")},
	}
	for _, tt := range tests {
		if got := ParseUnitType(tt.in); got != tt.want {
			t.Errorf("ParseUnitType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroup(t *testing.T) {
	rows := []SourceRow{
		{ID: "1", OrderRef: "GYG-ABC-123", UnitType: UnitAdult},
		{ID: "2", OrderRef: "gygabc123", UnitType: UnitChild},
		{ID: "3", OrderRef: "OTHER-1", UnitType: UnitAdult},
	}
	bookings := Group(rows)
	if len(bookings) != 2 {
		t.Fatalf("Group returned %d bookings, want 2", len(bookings))
	}
	if bookings[0].NormRef != "gygabc123" {
		t.Errorf("NormRef = %q, want %q", bookings[0].NormRef, "gygabc123")
	}
	if len(bookings[0].Rows) != 2 {
		t.Errorf("first booking has %d rows, want 2", len(bookings[0].Rows))
	}
	counts := bookings[0].UnitCounts()
	if counts[UnitAdult] != 1 || counts[UnitChild] != 1 {
		t.Errorf("UnitCounts = %v, want 1 Adult and 1 Child", counts)
	}
}

func TestAttachOpsReorders(t *testing.T) {
	bookings := Group([]SourceRow{
		{ID: "1", OrderRef: "AAA"},
		{ID: "2", OrderRef: "BBB"},
		{ID: "3", OrderRef: "CCC"},
	})
	ops := []OpsRow{
		{OrderRef: "ccc", PNR: "GC20240615AA0930"},
		{OrderRef: "AAA"},
	}
	ordered := AttachOps(bookings, ops)
	if len(ordered) != 3 {
		t.Fatalf("AttachOps returned %d bookings, want 3", len(ordered))
	}
	if ordered[0].NormRef != "ccc" || ordered[1].NormRef != "aaa" || ordered[2].NormRef != "bbb" {
		t.Errorf("order = %s, %s, %s; want ccc, aaa, bbb",
			ordered[0].NormRef, ordered[1].NormRef, ordered[2].NormRef)
	}
	if ordered[0].Ops == nil || ordered[0].Ops.PNR != "GC20240615AA0930" {
		t.Error("ops row not attached to matching booking")
	}
	if ordered[2].Ops != nil {
		t.Error("booking missing from ops sheet should have nil Ops")
	}
}

func TestNormalizeRef(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ABC-123 456", "abc123456"},
		{"abc_123.456", "abc123456"},
		{"GYG/XYZ 9", "gygxyz9"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRef(tt.in); got != tt.want {
			t.Errorf("NormalizeRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct{ in, want string }{
		{"9:30", "09:30"},
		{"14:30", "14:30"},
		{"09:05:00", "09:05"},
		{"2:30 PM", "14:30"},
		{"12:15 AM", "00:15"},
		{"1430", "14:30"},
		{"930", "09:30"},
		{"2575", ""},
		{"n/a", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTime(tt.in); got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguageAndTourType(t *testing.T) {
	if got := Language("ROMCOL-ENG"); got != "English" {
		t.Errorf("Language = %q, want English", got)
	}
	if got := Language("ROMARN-XYZ"); got != "XYZ" {
		t.Errorf("Language for unmapped code = %q, want XYZ", got)
	}
	if got := TourType("ROMARNSML-ENG"); got != "Arena Small" {
		t.Errorf("TourType = %q, want Arena Small", got)
	}
	if got := TourType("ROMCOL-SPA"); got != "Regular" {
		t.Errorf("TourType = %q, want Regular", got)
	}
	if got := TourType("UNKNOWN"); got != "" {
		t.Errorf("TourType for unknown code = %q, want empty", got)
	}
}

func TestIsEUCountry(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Italy", true},
		{"DE", true},
		{"United States", false},
		{"US", false},
		{"", false}, // blank country is non-EU
	}
	for _, tt := range tests {
		if got := IsEUCountry(tt.in); got != tt.want {
			t.Errorf("IsEUCountry(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResellerClassification(t *testing.T) {
	if !IsGYGStandard("GetYourGuide") {
		t.Error("GetYourGuide should be a standard GYG platform")
	}
	if IsGYGStandard("Get your Guide MDA") {
		t.Error("MDA platform should not classify as standard")
	}
	if !IsGYGMDA("get your guide mda") {
		t.Error("MDA platform not recognized")
	}
	if IsGYG("Viator") {
		t.Error("Viator should not classify as GYG")
	}
}

func TestParsePNR(t *testing.T) {
	pnr, ok := ParsePNR("GC20240615AA0930")
	if !ok {
		t.Fatal("ParsePNR failed for valid PNR")
	}
	if pnr.CompanyCode != "GC" || pnr.TicketType != "AA" || pnr.Time != "09:30" || pnr.Date != "20240615" {
		t.Errorf("ParsePNR = %+v", pnr)
	}

	pnr, ok = ParsePNR("mc-20250101-R-1415")
	if !ok {
		t.Fatal("ParsePNR failed for separated PNR")
	}
	if pnr.CompanyCode != "MC" || pnr.TicketType != "R" || pnr.Time != "14:15" {
		t.Errorf("ParsePNR = %+v", pnr)
	}

	if _, ok := ParsePNR("not a pnr"); ok {
		t.Error("ParsePNR accepted garbage")
	}
}

func TestTixNom(t *testing.T) {
	tests := []struct{ in, want string }{
		{"GC20240615AA0930", "(TIX NOM 09:30 ARENA24 G-CALL)"},
		{"M20240615R1415", "(TIX NOM 14:15 REG MDA)"},
		{"GC20240615UG1000", "(TIX NOM 10:00 UG G-CALL)"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TixNom(tt.in); got != tt.want {
			t.Errorf("TixNom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortByAge(t *testing.T) {
	ts := []Traveler{
		{Name: "A", Age: 40, HasAge: true},
		{Name: "B"},
		{Name: "C", Age: 8, HasAge: true},
		{Name: "D", Age: 22, HasAge: true},
	}
	SortByAge(ts)
	want := []string{"C", "D", "A", "B"}
	for i, name := range want {
		if ts[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, ts[i].Name, name)
		}
	}
}

func TestResultErrors(t *testing.T) {
	r := &Result{}
	r.AddError("duplicate names found")
	r.AddError("unit mismatch")
	r.AddError("duplicate names found")
	if got := r.ErrorText(); got != "duplicate names found | unit mismatch" {
		t.Errorf("ErrorText = %q", got)
	}
}

func TestBookingTravelDate(t *testing.T) {
	d := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	b := &Booking{Rows: []SourceRow{{}, {TravelDate: d, HasTravelDate: true}}}
	got, ok := b.TravelDate()
	if !ok || !got.Equal(d) {
		t.Errorf("TravelDate = %v, %v", got, ok)
	}
}
