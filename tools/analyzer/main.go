// Package main provides a corpus analyzer for booking notes.
// It analyzes reseller distribution, extraction coverage, and note
// format patterns, and can suggest regex candidates for notes the
// registered patterns do not match.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"namesgen/internal/booking"
	_ "namesgen/internal/parsers" // register all patterns via init()
	"namesgen/internal/registry"
	"namesgen/internal/tabular"
)

func main() {
	srcPath := flag.String("source", "", "Booking export CSV (required)")
	outputFormat := flag.String("format", "text", "Output format: text, json")
	showTemplates := flag.Bool("templates", false, "Include template analysis of unmatched notes")
	topN := flag.Int("top", 20, "Show top N items in each category")
	reseller := flag.String("reseller", "", "Analyze specific reseller only")
	suggest := flag.Bool("suggest", false, "Generate pattern suggestions for unmatched notes")
	minCluster := flag.Int("min-cluster", 3, "Minimum cluster size for suggestions")
	testPattern := flag.String("test", "", "Test a regex pattern against unmatched notes")
	explain := flag.String("explain", "", "Trace every registered pattern against the given note text")

	flag.Parse()

	// Explain mode works on a literal note, no corpus needed.
	if *explain != "" {
		printTrace(*explain)
		return
	}

	if *srcPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -source is required\n")
		os.Exit(1)
	}

	corpus, err := loadCorpus(*srcPath, *reseller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}

	// Pattern testing mode.
	if *testPattern != "" {
		matches, total, matchRefs, nonMatchRefs := TestPattern(corpus.unmatched(), *testPattern)
		fmt.Printf("Pattern: %s\n", *testPattern)
		fmt.Printf("Corpus: %d unmatched notes\n", total)
		if total > 0 {
			fmt.Printf("Result: %d/%d match (%.1f%%)\n\n", matches, total, float64(matches)/float64(total)*100)
		}

		if len(matchRefs) > 0 {
			fmt.Printf("Sample matches: %v\n", matchRefs)
		}
		if len(nonMatchRefs) > 0 {
			fmt.Printf("Sample non-matches: %v\n", nonMatchRefs)
		}
		return
	}

	// Suggestion mode.
	if *suggest {
		fmt.Fprintf(os.Stderr, "Generating pattern suggestions from %d unmatched notes...\n", len(corpus.unmatched()))
		suggestions := SuggestPatterns(corpus.unmatched(), *minCluster, *topN)

		if *outputFormat == "json" {
			data, _ := json.MarshalIndent(suggestions, "", "  ")
			fmt.Println(string(data))
		} else {
			PrintSuggestions(suggestions, corpus.unmatched())
		}
		return
	}

	report := &AnalysisReport{}

	// Run all analyses.
	fmt.Fprintf(os.Stderr, "Analyzing corpus...\n")

	report.Summary = analyzeSummary(corpus)
	fmt.Fprintf(os.Stderr, "  - Summary complete\n")

	report.ResellerDistribution = analyzeResellerDistribution(corpus, *topN)
	fmt.Fprintf(os.Stderr, "  - Reseller distribution complete\n")

	report.PatternCoverage = analyzePatternCoverage(corpus, *topN)
	fmt.Fprintf(os.Stderr, "  - Pattern coverage complete\n")

	report.ResellerMatching = analyzeResellerMatching(corpus)
	fmt.Fprintf(os.Stderr, "  - Reseller matching complete\n")

	report.ContentPatterns = analyzeContentPatterns(corpus, *topN)
	fmt.Fprintf(os.Stderr, "  - Content patterns complete\n")

	if *showTemplates {
		report.TemplateAnalysis = analyzeTemplates(corpus.unmatched(), *topN)
		fmt.Fprintf(os.Stderr, "  - Template analysis complete\n")
	}

	// Output.
	if *outputFormat == "json" {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	} else {
		printTextReport(report)
	}
}

// noteEntry is one booking's free-text notes plus the pattern that won
// the cascade for it, empty when nothing matched.
type noteEntry struct {
	OrderRef string
	Reseller string
	Text     string
	Pattern  string
}

// corpus holds the loaded notes split by extraction outcome.
type corpus struct {
	totalBookings int
	freeTextCount int
	entries       []noteEntry
}

func (c *corpus) unmatched() []noteEntry {
	var out []noteEntry
	for _, e := range c.entries {
		if e.Pattern == "" {
			out = append(out, e)
		}
	}
	return out
}

// loadCorpus reads the booking export, groups rows into bookings and
// runs the pattern cascade over every free-text booking's notes. Only
// GetYourGuide platforms carry free-text notes worth analyzing; the
// structured resellers never enter the cascade.
func loadCorpus(path, filterReseller string) (*corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := tabular.LoadSourceRows(f)
	if err != nil {
		return nil, err
	}

	reg := registry.Default()
	reg.Sort()

	c := &corpus{}
	for _, b := range booking.Group(rows) {
		if len(b.Rows) == 0 {
			continue
		}
		res := b.Rows[0].Reseller
		if filterReseller != "" && !strings.EqualFold(strings.TrimSpace(res), strings.TrimSpace(filterReseller)) {
			continue
		}
		c.totalBookings++

		if !booking.IsGYG(res) {
			continue
		}
		notes := b.PublicNotes()
		if notes == "" {
			continue
		}
		c.freeTextCount++

		entry := noteEntry{OrderRef: b.OrderRef, Reseller: res, Text: notes}
		ext := reg.ExtractChannel("gyg", notes)
		if ext == nil {
			ext = reg.ExtractFirst("mda", notes)
		}
		if ext != nil {
			entry.Pattern = ext.Pattern
		}
		c.entries = append(c.entries, entry)
	}
	return c, nil
}

// AnalysisReport contains all analysis results.
type AnalysisReport struct {
	Summary              SummaryStats         `json:"summary"`
	ResellerDistribution []ResellerCount      `json:"reseller_distribution"`
	PatternCoverage      []PatternCount       `json:"pattern_coverage"`
	ResellerMatching     []ResellerMatchStats `json:"reseller_matching"`
	ContentPatterns      []KeywordCount       `json:"content_patterns"`
	TemplateAnalysis     *TemplateStats       `json:"template_analysis,omitempty"`
}

type SummaryStats struct {
	TotalBookings    int     `json:"total_bookings"`
	FreeTextBookings int     `json:"free_text_bookings"`
	MatchedNotes     int     `json:"matched_notes"`
	UnmatchedNotes   int     `json:"unmatched_notes"`
	MatchRate        float64 `json:"match_rate"`
	UniqueResellers  int     `json:"unique_resellers"`
	UniquePatterns   int     `json:"unique_patterns"`
}

type ResellerCount struct {
	Reseller string  `json:"reseller"`
	Count    int     `json:"count"`
	Pct      float64 `json:"percentage"`
}

type PatternCount struct {
	Pattern string  `json:"pattern"`
	Count   int     `json:"count"`
	Pct     float64 `json:"percentage"`
}

type ResellerMatchStats struct {
	Reseller    string   `json:"reseller"`
	Total       int      `json:"total"`
	Matched     int      `json:"matched"`
	Unmatched   int      `json:"unmatched"`
	MatchRate   float64  `json:"match_rate"`
	TopPatterns []string `json:"top_patterns"`
}

type KeywordCount struct {
	Keyword string  `json:"keyword"`
	Count   int     `json:"count"`
	Pct     float64 `json:"percentage"`
}

type TemplateStats struct {
	TotalNotes      int             `json:"total_notes"`
	UniqueTemplates int             `json:"unique_templates"`
	TopTemplates    []TemplateCount `json:"top_templates"`
}

type TemplateCount struct {
	Template string `json:"template"`
	Count    int    `json:"count"`
	Example  string `json:"example"`
}

func analyzeSummary(c *corpus) SummaryStats {
	stats := SummaryStats{
		TotalBookings:    c.totalBookings,
		FreeTextBookings: c.freeTextCount,
	}

	resellers := make(map[string]bool)
	patterns := make(map[string]bool)
	for _, e := range c.entries {
		resellers[e.Reseller] = true
		if e.Pattern != "" {
			stats.MatchedNotes++
			patterns[e.Pattern] = true
		}
	}
	stats.UnmatchedNotes = len(c.entries) - stats.MatchedNotes
	if len(c.entries) > 0 {
		stats.MatchRate = float64(stats.MatchedNotes) / float64(len(c.entries)) * 100
	}
	stats.UniqueResellers = len(resellers)
	stats.UniquePatterns = len(patterns)

	return stats
}

func analyzeResellerDistribution(c *corpus, topN int) []ResellerCount {
	counts := make(map[string]int)
	for _, e := range c.entries {
		counts[e.Reseller]++
	}

	var results []ResellerCount
	for res, cnt := range counts {
		rc := ResellerCount{Reseller: res, Count: cnt}
		if len(c.entries) > 0 {
			rc.Pct = float64(cnt) / float64(len(c.entries)) * 100
		}
		results = append(results, rc)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

func analyzePatternCoverage(c *corpus, topN int) []PatternCount {
	counts := make(map[string]int)
	for _, e := range c.entries {
		name := e.Pattern
		if name == "" {
			name = "unmatched"
		}
		counts[name]++
	}

	var results []PatternCount
	for pat, cnt := range counts {
		pc := PatternCount{Pattern: pat, Count: cnt}
		if len(c.entries) > 0 {
			pc.Pct = float64(cnt) / float64(len(c.entries)) * 100
		}
		results = append(results, pc)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

func analyzeResellerMatching(c *corpus) []ResellerMatchStats {
	type agg struct {
		total    int
		matched  int
		patterns map[string]int
	}
	byReseller := make(map[string]*agg)
	for _, e := range c.entries {
		a, ok := byReseller[e.Reseller]
		if !ok {
			a = &agg{patterns: make(map[string]int)}
			byReseller[e.Reseller] = a
		}
		a.total++
		if e.Pattern != "" {
			a.matched++
			a.patterns[e.Pattern]++
		}
	}

	var results []ResellerMatchStats
	for res, a := range byReseller {
		ms := ResellerMatchStats{
			Reseller:  res,
			Total:     a.total,
			Matched:   a.matched,
			Unmatched: a.total - a.matched,
		}
		if a.total > 0 {
			ms.MatchRate = float64(a.matched) / float64(a.total) * 100
		}

		type pc struct {
			name string
			cnt  int
		}
		var pcs []pc
		for p, cnt := range a.patterns {
			pcs = append(pcs, pc{p, cnt})
		}
		sort.Slice(pcs, func(i, j int) bool { return pcs[i].cnt > pcs[j].cnt })
		for i, p := range pcs {
			if i >= 3 {
				break
			}
			ms.TopPatterns = append(ms.TopPatterns, fmt.Sprintf("%s(%d)", p.name, p.cnt))
		}

		results = append(results, ms)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})
	return results
}

// Keywords to look for in unmatched notes - these indicate notes that
// likely carry traveler data a new pattern could pick up.
var interestingKeywords = []string{
	// Name markers.
	"NAME", "NAMES", "TRAVELER", "TRAVELLER", "PASSENGER", "PAX",
	"LEAD", "BOOKER", "GUEST",
	// Birth date markers.
	"DOB", "BORN", "BIRTH", "GEBOREN", "NACIDO", "NATO",
	// Unit markers.
	"ADULT", "CHILD", "INFANT", "YOUTH", "SENIOR",
	// Age markers.
	"AGE", "YEARS", "YRS", "Y/O",
	// Structure markers.
	"DATE", "FULL", "FIRST", "LAST", "SURNAME",
}

func analyzeContentPatterns(c *corpus, topN int) []KeywordCount {
	unmatched := c.unmatched()
	if len(unmatched) == 0 {
		return nil
	}

	keywordCounts := make(map[string]int)
	for _, e := range unmatched {
		upper := strings.ToUpper(e.Text)
		for _, kw := range interestingKeywords {
			if strings.Contains(upper, kw) {
				keywordCounts[kw]++
			}
		}
	}

	var keywords []KeywordCount
	for kw, cnt := range keywordCounts {
		if cnt > 0 {
			keywords = append(keywords, KeywordCount{
				Keyword: kw,
				Count:   cnt,
				Pct:     float64(cnt) / float64(len(unmatched)) * 100,
			})
		}
	}
	sort.Slice(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}

// Template analysis token classes for booking notes.
var tokenPatterns = []struct {
	Name    string
	Pattern *regexp.Regexp
}{
	{"<DATE>", regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}[.,;]?$`)},
	{"<ISODATE>", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[.,;]?$`)},
	{"<TIME>", regexp.MustCompile(`^\d{1,2}[:.]\d{2}\s?(?i:am|pm)?[.,;]?$`)},
	{"<REF>", regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{5,}[.,;]?$`)},
	{"<NUM>", regexp.MustCompile(`^\(?\d+\)?[.,;:]?$`)},
	{"<NAME>", regexp.MustCompile(`^[A-ZÀ-Þ][a-zà-þ'-]+[.,;]?$`)},
	{"<UPNAME>", regexp.MustCompile(`^[A-ZÀ-Þ][A-ZÀ-Þ'-]{2,}[.,;]?$`)},
}

// Literal tokens kept as-is in templates: the markers patterns anchor on.
var literalKeywords = map[string]bool{
	"NAME": true, "NAMES": true, "DOB": true, "BORN": true, "BIRTH": true,
	"DATE": true, "OF": true, "AND": true, "ADULT": true, "ADULTS": true,
	"CHILD": true, "CHILDREN": true, "INFANT": true, "YOUTH": true,
	"AGE": true, "AGES": true, "YEARS": true, "TRAVELER": true,
	"TRAVELLER": true, "TRAVELERS": true, "TRAVELLERS": true, "PAX": true,
	"FULL": true, "FIRST": true, "LAST": true, "LEAD": true,
}

func analyzeTemplates(entries []noteEntry, topN int) *TemplateStats {
	if len(entries) == 0 {
		return nil
	}

	templateCounts := make(map[string]int)
	templateExamples := make(map[string]string)
	for _, e := range entries {
		tmpl := normaliseToTemplate(e.Text)
		templateCounts[tmpl]++
		if _, ok := templateExamples[tmpl]; !ok {
			templateExamples[tmpl] = e.Text
		}
	}

	var topTemplates []TemplateCount
	for tmpl, cnt := range templateCounts {
		topTemplates = append(topTemplates, TemplateCount{
			Template: truncate(tmpl, 100),
			Count:    cnt,
			Example:  truncate(templateExamples[tmpl], 200),
		})
	}
	sort.Slice(topTemplates, func(i, j int) bool {
		return topTemplates[i].Count > topTemplates[j].Count
	})
	if len(topTemplates) > topN {
		topTemplates = topTemplates[:topN]
	}

	return &TemplateStats{
		TotalNotes:      len(entries),
		UniqueTemplates: len(templateCounts),
		TopTemplates:    topTemplates,
	}
}

func normaliseToTemplate(text string) string {
	lines := strings.Split(text, "\n")

	var normalisedLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		var normalisedTokens []string

		for _, tok := range tokens {
			norm := classifyToken(tok)
			normalisedTokens = append(normalisedTokens, norm)
		}

		if len(normalisedTokens) > 0 {
			normalisedLines = append(normalisedLines, strings.Join(normalisedTokens, " "))
		}
	}

	return strings.Join(normalisedLines, " | ")
}

func classifyToken(tok string) string {
	if literalKeywords[strings.ToUpper(strings.Trim(tok, ".,;:"))] {
		return strings.ToUpper(strings.Trim(tok, ".,;:"))
	}

	for _, tp := range tokenPatterns {
		if tp.Pattern.MatchString(tok) {
			return tp.Name
		}
	}

	if len(tok) <= 2 {
		return strings.ToUpper(tok)
	}

	return "<OTHER>"
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func printTextReport(report *AnalysisReport) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                  BOOKING NOTES CORPUS ANALYSIS")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	// Summary.
	fmt.Println("SUMMARY")
	fmt.Println("───────")
	s := report.Summary
	fmt.Printf("Total Bookings:     %d\n", s.TotalBookings)
	fmt.Printf("Free-Text Notes:    %d\n", s.FreeTextBookings)
	fmt.Printf("Matched:            %d (%.1f%%)\n", s.MatchedNotes, s.MatchRate)
	fmt.Printf("Unmatched:          %d (%.1f%%)\n", s.UnmatchedNotes, 100-s.MatchRate)
	fmt.Printf("Unique Resellers:   %d\n", s.UniqueResellers)
	fmt.Printf("Winning Patterns:   %d\n", s.UniquePatterns)
	fmt.Println()

	// Reseller distribution.
	fmt.Println("RESELLER DISTRIBUTION (Free-text notes by reseller)")
	fmt.Println("─────────────────────")
	fmt.Printf("%-30s %10s %8s\n", "Reseller", "Count", "Pct")
	for _, rc := range report.ResellerDistribution {
		res := rc.Reseller
		if res == "" {
			res = "(empty)"
		}
		fmt.Printf("%-30s %10d %7.1f%%\n", res, rc.Count, rc.Pct)
	}
	fmt.Println()

	// Pattern coverage.
	fmt.Println("PATTERN COVERAGE (Notes by winning pattern)")
	fmt.Println("────────────────")
	fmt.Printf("%-30s %10s %8s\n", "Pattern", "Count", "Pct")
	for _, pc := range report.PatternCoverage {
		fmt.Printf("%-30s %10d %7.1f%%\n", pc.Pattern, pc.Count, pc.Pct)
	}
	fmt.Println()

	// Reseller matching stats.
	fmt.Println("MATCHING BY RESELLER (Coverage per reseller)")
	fmt.Println("────────────────────")
	fmt.Printf("%-30s %8s %8s %10s %8s  %s\n", "Reseller", "Total", "Matched", "Unmatched", "Rate", "Top Patterns")
	for _, ms := range report.ResellerMatching {
		res := ms.Reseller
		if res == "" {
			res = "(empty)"
		}
		patterns := strings.Join(ms.TopPatterns, ", ")
		fmt.Printf("%-30s %8d %8d %10d %7.1f%%  %s\n", res, ms.Total, ms.Matched, ms.Unmatched, ms.MatchRate, patterns)
	}
	fmt.Println()

	// Content patterns.
	if len(report.ContentPatterns) > 0 {
		fmt.Println("CONTENT PATTERNS (Keywords found in unmatched notes)")
		fmt.Println("────────────────")
		for _, kw := range report.ContentPatterns {
			bar := strings.Repeat("█", int(kw.Pct/5))
			fmt.Printf("  %-12s %5.1f%% %s\n", kw.Keyword, kw.Pct, bar)
		}
		fmt.Println()
	}

	// Template analysis.
	if report.TemplateAnalysis != nil {
		ta := report.TemplateAnalysis
		fmt.Println("TEMPLATE ANALYSIS (Format patterns in unmatched notes)")
		fmt.Println("─────────────────")
		fmt.Printf("%d notes, %d unique templates\n", ta.TotalNotes, ta.UniqueTemplates)
		for i, t := range ta.TopTemplates {
			if i >= 10 {
				break
			}
			fmt.Printf("  [%d] %s\n", t.Count, t.Template)
		}
	}
}

// printTrace runs the full cascade order over one note, the labeled
// grammar channel first and then the general pattern channel, and
// prints a per-pattern account: quick-check outcome, the expanded
// format regex where the pattern exposes one, and the candidates.
func printTrace(text string) {
	reg := registry.Default()
	reg.Sort()

	seen := make(map[string]bool)
	var traces []registry.TraceResult
	for _, channel := range []string{"gyg", "mda"} {
		for _, tr := range reg.ExtractTrace(channel, text) {
			if seen[tr.PatternName] {
				continue
			}
			seen[tr.PatternName] = true
			traces = append(traces, tr)
		}
	}

	for _, tr := range traces {
		status := "no match"
		if tr.Matched {
			status = fmt.Sprintf("%d candidate(s)", len(tr.Candidates))
		}
		fmt.Printf("%-30s %s\n", tr.PatternName, status)
		if tr.QuickCheck != nil && !tr.QuickCheck.Passed {
			reason := tr.QuickCheck.Reason
			if reason == "" {
				reason = "quick check failed"
			}
			fmt.Printf("    skipped: %s\n", reason)
			continue
		}
		for _, ft := range tr.Formats {
			mark := "miss"
			if ft.Matched {
				mark = "hit"
			}
			fmt.Printf("    format %s (%s): %s\n", ft.Name, mark, ft.Pattern)
			if len(ft.Captures) > 0 {
				keys := make([]string, 0, len(ft.Captures))
				for k := range ft.Captures {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("      %s = %q\n", k, ft.Captures[k])
				}
			}
		}
		for _, c := range tr.Candidates {
			if c.DOB != "" {
				fmt.Printf("    -> %s (%s)\n", c.Name, c.DOB)
			} else {
				fmt.Printf("    -> %s\n", c.Name)
			}
		}
	}
}
