package booking

import (
	"fmt"
	"regexp"
	"strings"
)

// Ticket PNRs encode company, date, ticket type and time, for example
// "GC20240615AA0930". Separators between the segments are tolerated.
var (
	pnrPattern    = regexp.MustCompile(`^([A-Za-z]+)(\d{8})(A{1,2}|R|UG)(\d{4})$`)
	pnrPatternAlt = regexp.MustCompile(`^([A-Za-z]+)[-\s]?(\d{8})[-\s]?(A{1,2}|R|UG)[-\s]?(\d{4})$`)
)

var ticketTypeMap = map[string]string{
	"AA":  "ARENA24",
	"A":   "ARENA",
	"R":   "REG",
	"UND": "Under Ground",
}

var companyCodeMap = map[string]string{
	"GC": "G-CALL", "CC": "C-CALL", "IC": "INF-CALL", "MC": "MDA-CALL",
	"TC": "T&T-CALL", "DMC": "DM-CALL", "OC": "O-CALL", "CLC": "CL-CALL",
	"RFTC": "RFT-CALL", "MTC": "MT-CALL", "GLC": "GL-CALL",
	"LIT": "LIT", "I": "INF", "G": "G", "GL": "GL", "LM": "LM", "LLM": "LLM",
	"M": "MDA", "RFT": "RFT", "CL": "CL", "T": "T&T", "MT": "MT",
	"DM": "DM", "O": "O",
}

// PNR is a parsed ticket PNR.
type PNR struct {
	CompanyCode string
	Date        string // YYYYMMDD
	TicketType  string
	Time        string // HH:MM
}

// ParsePNR splits a ticket PNR into its segments. The second return is
// false when the value does not follow the PNR format.
func ParsePNR(v string) (PNR, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return PNR{}, false
	}
	m := pnrPattern.FindStringSubmatch(s)
	if m == nil {
		m = pnrPatternAlt.FindStringSubmatch(s)
	}
	if m == nil {
		return PNR{}, false
	}
	return PNR{
		CompanyCode: strings.ToUpper(m[1]),
		Date:        m[2],
		TicketType:  strings.ToUpper(m[3]),
		Time:        m[4][:2] + ":" + m[4][2:],
	}, true
}

// TixNom builds the ticket-nomination marker for a PNR, for example
// "(TIX NOM 09:30 ARENA24 G-CALL)". Unparseable PNRs yield "".
func TixNom(pnrValue string) string {
	pnr, ok := ParsePNR(pnrValue)
	if !ok {
		return ""
	}
	ticket := pnr.TicketType
	if mapped, ok := ticketTypeMap[ticket]; ok {
		ticket = mapped
	}
	company := pnr.CompanyCode
	if mapped, ok := companyCodeMap[company]; ok {
		company = mapped
	}
	return fmt.Sprintf("(TIX NOM %s %s %s)", pnr.Time, ticket, company)
}
