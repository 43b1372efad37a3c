// Pattern suggestion logic for generating regex candidates from note clusters.
package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PatternSuggestion represents a suggested regex pattern for a cluster
// of unmatched booking notes.
type PatternSuggestion struct {
	ClusterID       int      `json:"cluster_id"`
	NoteCount       int      `json:"note_count"`
	SuggestedRegex  string   `json:"suggested_regex"`
	NamedGroups     []string `json:"named_groups"`
	Examples        []string `json:"examples"`
	ExampleRefs     []string `json:"example_refs"`
	TemplatePattern string   `json:"template_pattern"`
}

// SuggestPatterns clusters unmatched notes by template and generates a
// regex candidate for each cluster large enough to be worth a pattern.
func SuggestPatterns(entries []noteEntry, minClusterSize int, maxSuggestions int) []PatternSuggestion {
	clusters := make(map[string][]noteEntry)
	for _, e := range entries {
		template := normaliseToTemplate(e.Text)
		clusters[template] = append(clusters[template], e)
	}

	// Sort clusters by size.
	type clusterInfo struct {
		template string
		notes    []noteEntry
	}
	var sortedClusters []clusterInfo
	for tmpl, notes := range clusters {
		if len(notes) >= minClusterSize {
			sortedClusters = append(sortedClusters, clusterInfo{tmpl, notes})
		}
	}
	sort.Slice(sortedClusters, func(i, j int) bool {
		return len(sortedClusters[i].notes) > len(sortedClusters[j].notes)
	})

	if len(sortedClusters) > maxSuggestions {
		sortedClusters = sortedClusters[:maxSuggestions]
	}

	var suggestions []PatternSuggestion
	for i, cluster := range sortedClusters {
		suggestion := generatePatternSuggestion(cluster.notes, cluster.template, i+1)
		suggestions = append(suggestions, suggestion)
	}

	return suggestions
}

func generatePatternSuggestion(notes []noteEntry, template string, clusterID int) PatternSuggestion {
	suggestion := PatternSuggestion{
		ClusterID:       clusterID,
		NoteCount:       len(notes),
		TemplatePattern: template,
	}

	// Get examples (up to 3).
	for i, n := range notes {
		if i >= 3 {
			break
		}
		suggestion.Examples = append(suggestion.Examples, n.Text)
		suggestion.ExampleRefs = append(suggestion.ExampleRefs, n.OrderRef)
	}

	// Generate regex from the template.
	regex, groups := generateRegexFromTemplate(template)
	suggestion.SuggestedRegex = regex
	suggestion.NamedGroups = groups

	return suggestion
}

// generateRegexFromTemplate creates a regex pattern from a note template.
func generateRegexFromTemplate(template string) (string, []string) {
	templateTokens := strings.Fields(strings.ReplaceAll(template, "|", " | "))

	var regexParts []string
	var namedGroups []string
	groupCounts := make(map[string]int)

	for _, tok := range templateTokens {
		if tok == "|" {
			regexParts = append(regexParts, `\s*`)
			continue
		}

		// Get unique group name.
		baseName := tokenToGroupName(tok)
		if baseName != "" {
			groupCounts[baseName]++
			if groupCounts[baseName] > 1 {
				baseName = fmt.Sprintf("%s%d", baseName, groupCounts[baseName])
			}
		}

		switch tok {
		case "<NAME>":
			namedGroups = append(namedGroups, baseName)
			regexParts = append(regexParts, fmt.Sprintf(`(?P<%s>\p{Lu}[\p{Ll}'-]+)`, baseName))
		case "<UPNAME>":
			namedGroups = append(namedGroups, baseName)
			regexParts = append(regexParts, fmt.Sprintf(`(?P<%s>\p{Lu}[\p{Lu}'-]{2,})`, baseName))
		case "<DATE>":
			namedGroups = append(namedGroups, baseName)
			regexParts = append(regexParts, fmt.Sprintf(`(?P<%s>\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`, baseName))
		case "<ISODATE>":
			namedGroups = append(namedGroups, baseName)
			regexParts = append(regexParts, fmt.Sprintf(`(?P<%s>\d{4}-\d{2}-\d{2})`, baseName))
		case "<TIME>":
			namedGroups = append(namedGroups, baseName)
			regexParts = append(regexParts, fmt.Sprintf(`(?P<%s>\d{1,2}[:.]\d{2})`, baseName))
		case "<NUM>":
			regexParts = append(regexParts, `\(?\d+\)?`)
		case "<REF>":
			regexParts = append(regexParts, `[A-Z0-9][A-Z0-9-]{5,}`)
		case "<OTHER>":
			regexParts = append(regexParts, `\S+`)
		default:
			// Literal token - escape regex special characters and
			// accept either letter case.
			escaped := regexp.QuoteMeta(tok)
			regexParts = append(regexParts, `(?i:`+escaped+`)`)
		}

		regexParts = append(regexParts, `\s*`)
	}

	// Join and clean up the regex.
	regex := strings.Join(regexParts, "")
	// Remove trailing \s*
	regex = strings.TrimSuffix(regex, `\s*`)
	// Collapse multiple \s* into one
	regex = regexp.MustCompile(`(\\s\*)+`).ReplaceAllString(regex, `\s+`)
	// Make whitespace more flexible
	regex = strings.ReplaceAll(regex, `\s+`, `[\s\t]+`)
	// Add start anchor but not end (notes may have trailing content)
	regex = `(?s)` + regex

	return regex, namedGroups
}

func tokenToGroupName(token string) string {
	switch token {
	case "<NAME>", "<UPNAME>":
		return "name"
	case "<DATE>", "<ISODATE>":
		return "dob"
	case "<TIME>":
		return "time"
	default:
		return ""
	}
}

// TestPattern tests a regex pattern against unmatched notes and returns
// match statistics.
func TestPattern(entries []noteEntry, pattern string) (matches int, total int, sampleMatches []string, sampleNonMatches []string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, 0, nil, nil
	}

	for _, e := range entries {
		total++

		if re.MatchString(e.Text) {
			matches++
			if len(sampleMatches) < 5 {
				sampleMatches = append(sampleMatches, e.OrderRef)
			}
		} else {
			if len(sampleNonMatches) < 5 {
				sampleNonMatches = append(sampleNonMatches, e.OrderRef)
			}
		}
	}

	return matches, total, sampleMatches, sampleNonMatches
}

// PrintSuggestions outputs pattern suggestions in a readable format.
func PrintSuggestions(suggestions []PatternSuggestion, entries []noteEntry) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                    PATTERN SUGGESTIONS")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	for _, s := range suggestions {
		fmt.Printf("───────────────────────────────────────────────────────────────\n")
		fmt.Printf("CLUSTER %d: %d notes\n", s.ClusterID, s.NoteCount)
		fmt.Printf("───────────────────────────────────────────────────────────────\n")
		fmt.Println()

		fmt.Println("Template:")
		fmt.Printf("  %s\n", s.TemplatePattern)
		fmt.Println()

		fmt.Println("Suggested Regex:")
		printFormattedRegex(s.SuggestedRegex)
		fmt.Println()

		if len(s.NamedGroups) > 0 {
			fmt.Printf("Capture Groups: %s\n", strings.Join(s.NamedGroups, ", "))
			fmt.Println()
		}

		fmt.Println("Examples:")
		for i, ex := range s.Examples {
			fmt.Printf("  [%s]\n", s.ExampleRefs[i])
			printIndentedTrunc(ex, "    ", 300)
			fmt.Println()
		}

		// Test the pattern.
		if s.SuggestedRegex != "" && len(entries) > 0 {
			matches, total, _, _ := TestPattern(entries, s.SuggestedRegex)
			fmt.Printf("Test Results: %d/%d unmatched notes match (%.1f%%)\n", matches, total, float64(matches)/float64(total)*100)
		}

		fmt.Println()
	}
}

func printFormattedRegex(regex string) {
	// Break long regex into readable chunks.
	if len(regex) <= 80 {
		fmt.Printf("  %s\n", regex)
		return
	}

	parts := strings.Split(regex, `[\s\t]+`)
	var line strings.Builder
	line.WriteString("  ")

	for i, part := range parts {
		if i > 0 {
			if line.Len()+len(part)+10 > 80 {
				fmt.Println(line.String() + `[\s\t]+`)
				line.Reset()
				line.WriteString("    ")
			} else {
				line.WriteString(`[\s\t]+`)
			}
		}
		line.WriteString(part)
	}
	if line.Len() > 2 {
		fmt.Println(line.String())
	}
}

func printIndentedTrunc(text, indent string, maxLen int) {
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		fmt.Printf("%s%s\n", indent, line)
	}
}
