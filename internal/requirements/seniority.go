package requirements

import (
	"sort"
	"strings"

	"talentgraph.app/sourcer/internal/model"
)

// ladder orders seniority bands from most junior to most senior. Distance
// between two bands is the difference of their ladder positions.
var ladder = []model.Seniority{
	model.SeniorityIntern,
	model.SeniorityJunior,
	model.SeniorityMid,
	model.SenioritySenior,
	model.SeniorityLead,
	model.SeniorityPrincipal,
	model.SeniorityDirector,
	model.SeniorityVP,
	model.SeniorityExecutive,
}

var seniorityKeywords = map[string]model.Seniority{
	"intern":         model.SeniorityIntern,
	"internship":     model.SeniorityIntern,
	"trainee":        model.SeniorityIntern,
	"junior":         model.SeniorityJunior,
	"jr":             model.SeniorityJunior,
	"entry level":    model.SeniorityJunior,
	"entry-level":    model.SeniorityJunior,
	"associate":      model.SeniorityJunior,
	"mid level":      model.SeniorityMid,
	"mid-level":      model.SeniorityMid,
	"intermediate":   model.SeniorityMid,
	"senior":         model.SenioritySenior,
	"sr":             model.SenioritySenior,
	"lead":           model.SeniorityLead,
	"staff":          model.SeniorityLead,
	"principal":      model.SeniorityPrincipal,
	"architect":      model.SeniorityPrincipal,
	"director":       model.SeniorityDirector,
	"head of":        model.SeniorityDirector,
	"vice president": model.SeniorityVP,
	"vp":             model.SeniorityVP,
	"chief":          model.SeniorityExecutive,
	"cto":            model.SeniorityExecutive,
	"ceo":            model.SeniorityExecutive,
	"coo":            model.SeniorityExecutive,
	"cfo":            model.SeniorityExecutive,
}

// orderedSeniorityKeywords holds the keyword list sorted longest-first so
// multi-word bands ("vice president", "entry level") win over substrings.
var orderedSeniorityKeywords = func() []string {
	keys := make([]string, 0, len(seniorityKeywords))
	for k := range seniorityKeywords {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ParseSeniority scans free text for a seniority band. Keywords are tried
// longest-to-shortest with whole-token matching, so "Vice President of Sales"
// resolves to vp rather than tripping over shorter bands first.
func ParseSeniority(text string) (model.Seniority, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, kw := range orderedSeniorityKeywords {
		if containsTokenPhrase(lower, kw) {
			return seniorityKeywords[kw], true
		}
	}
	return "", false
}

// LadderIndex returns the position of a band on the ladder, or -1 when the
// band is unknown.
func LadderIndex(s model.Seniority) int {
	for i, band := range ladder {
		if band == s {
			return i
		}
	}
	return -1
}

// LadderDistance returns the absolute ladder distance between two bands, or
// -1 when either band is unknown.
func LadderDistance(a, b model.Seniority) int {
	ai, bi := LadderIndex(a), LadderIndex(b)
	if ai < 0 || bi < 0 {
		return -1
	}
	if ai > bi {
		return ai - bi
	}
	return bi - ai
}
