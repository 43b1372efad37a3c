package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GYG reseller platforms that use the structured field grammar.
var gygStandardPlatforms = map[string]bool{
	"getyourguide":            true,
	"getyourguide ec":         true,
	"get your guide t&t":      true,
	"get your guide giano":    true,
	"get your guide infinity": true,
}

const gygMDAPlatform = "get your guide mda"

// IsGYGStandard reports whether the reseller is a GetYourGuide platform
// that delivers traveler data in labeled fields.
func IsGYGStandard(reseller string) bool {
	return gygStandardPlatforms[strings.ToLower(strings.TrimSpace(reseller))]
}

// IsGYGMDA reports whether the reseller is the GetYourGuide MDA
// platform, whose notes are free-form and need the pattern cascade.
func IsGYGMDA(reseller string) bool {
	return strings.ToLower(strings.TrimSpace(reseller)) == gygMDAPlatform
}

// IsGYG reports whether the reseller is any GetYourGuide platform.
func IsGYG(reseller string) bool {
	return IsGYGStandard(reseller) || IsGYGMDA(reseller)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeRef canonicalizes an order reference for matching across
// files: lowercase with every non-alphanumeric character removed, so
// "ABC-123 456" and "abc123/456" compare equal.
func NormalizeRef(ref string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(ref), "")
}

var (
	timeHHMM  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	timeAMPM  = regexp.MustCompile(`^(\d{1,2}):?(\d{0,2})\s*(AM|PM)$`)
	timePlain = regexp.MustCompile(`^\d{3,4}$`)
)

// NormalizeTime converts the tour time column to HH:MM. Accepted inputs
// are HH:MM, HH:MM:SS, 12-hour clock with AM/PM and bare 24-hour digits
// ("930", "1430"). Anything else comes back empty.
func NormalizeTime(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "", "nan", "n/a", "na":
		return ""
	}

	if m := timeHHMM.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", h, min)
	}

	if m := timeAMPM.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		switch {
		case m[3] == "PM" && h != 12:
			h += 12
		case m[3] == "AM" && h == 12:
			h = 0
		}
		return fmt.Sprintf("%02d:%02d", h, min)
	}

	if timePlain.MatchString(s) {
		var h, min int
		if len(s) == 3 {
			h, _ = strconv.Atoi(s[:1])
			min, _ = strconv.Atoi(s[1:])
		} else {
			h, _ = strconv.Atoi(s[:2])
			min, _ = strconv.Atoi(s[2:])
		}
		if h <= 23 && min <= 59 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}

	return ""
}

// Language codes carried in the last three characters of product codes.
var languageMap = map[string]string{
	"SPA": "Spanish",
	"ITA": "Italian",
	"FRE": "French",
	"ENG": "English",
	"MTL": "Audioguide",
	"GER": "German",
	"POR": "Portuguese",
}

// Language extracts the tour language from a product code. Unmapped
// codes come back as-is so an unrecognized suffix still shows up in
// the output.
func Language(productCode string) string {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	if len(code) < 3 {
		return ""
	}
	suffix := code[len(code)-3:]
	if lang, ok := languageMap[suffix]; ok {
		return lang
	}
	return suffix
}

// Product code prefixes mapped to tour types, most specific first.
var tourTypePatterns = []struct {
	pattern string
	name    string
}{
	{"ROMARNSML", "Arena Small"},
	{"ROMARN", "Arena"},
	{"ROMCOLSML", "Regular Small"},
	{"ROMCOL", "Regular"},
	{"ROMVAT", "Vatican Regular"},
	{"ROMBAS", "Vatican Combo"},
}

// TourType derives the tour type from a product code.
func TourType(productCode string) string {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	for _, p := range tourTypePatterns {
		if strings.Contains(code, p.pattern) {
			return p.name
		}
	}
	return ""
}

// EU member states, by full name and ISO 3166-1 alpha-2 code.
var euCountries = map[string]bool{
	"AUSTRIA": true, "BELGIUM": true, "BULGARIA": true, "CROATIA": true,
	"CYPRUS": true, "CZECH REPUBLIC": true, "CZECHIA": true, "DENMARK": true,
	"ESTONIA": true, "FINLAND": true, "FRANCE": true, "GERMANY": true,
	"GREECE": true, "HUNGARY": true, "IRELAND": true, "ITALY": true,
	"LATVIA": true, "LITHUANIA": true, "LUXEMBOURG": true, "MALTA": true,
	"NETHERLANDS": true, "POLAND": true, "PORTUGAL": true, "ROMANIA": true,
	"SLOVAKIA": true, "SLOVENIA": true, "SPAIN": true, "SWEDEN": true,

	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
}

// IsEUCountry reports whether the customer country is an EU member
// state. Empty or unknown countries count as non-EU, so their Youth
// units get reclassified instead of validated.
func IsEUCountry(country string) bool {
	c := strings.ToUpper(strings.TrimSpace(country))
	return euCountries[c]
}
