package weather

import (
	"regexp"
	"sort"
)

// maxConditions is how many labels a day summary shows at most.
const maxConditions = 2

// SummarizeConditions returns the distinct labels ordered by descending
// occurrence count, truncated to maxConditions. Labels with equal counts keep
// the order in which they were first seen.
func SummarizeConditions(labels []string) []string {
	type labelCount struct {
		label     string
		count     int
		firstSeen int
	}

	index := make(map[string]int, len(labels))
	var counts []labelCount
	for _, l := range labels {
		if i, ok := index[l]; ok {
			counts[i].count++
			continue
		}
		index[l] = len(counts)
		counts = append(counts, labelCount{label: l, count: 1, firstSeen: len(counts)})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].firstSeen < counts[j].firstSeen
	})

	if len(counts) > maxConditions {
		counts = counts[:maxConditions]
	}

	result := make([]string, 0, len(counts))
	for _, c := range counts {
		result = append(result, c.label)
	}
	return result
}

// abbreviation is a single rewrite rule applied to condition labels.
type abbreviation struct {
	re          *regexp.Regexp
	replacement string
	// tightOnly rules only apply when more than one label has to share the line.
	tightOnly bool
}

// abbreviations are evaluated in order.
var abbreviations = []abbreviation{
	{re: regexp.MustCompile(`([Üü]berw)iegend`), replacement: "${1}."},
	{re: regexp.MustCompile(`(?i)(bew)ölkt`), replacement: "${1}.", tightOnly: true},
	{re: regexp.MustCompile(`(?i)(bed)eckt`), replacement: "${1}.", tightOnly: true},
}

// AbbreviateConditions shortens labels so they fit a small display. The
// "überwiegend" rule always applies; the cloud rules only when there are at
// least two labels.
func AbbreviateConditions(labels []string) []string {
	tight := len(labels) > 1

	result := make([]string, 0, len(labels))
	for _, label := range labels {
		for _, a := range abbreviations {
			if a.tightOnly && !tight {
				continue
			}
			label = a.re.ReplaceAllString(label, a.replacement)
		}
		result = append(result, label)
	}
	return result
}
