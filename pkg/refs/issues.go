package refs

import (
	"sort"
	"strings"
)

// Issue codes reported against compare rows.
const (
	IssueMissingEffectiveValue       = "missing_effective_value"
	IssueBrokenReferenceUnresolved   = "broken_reference_unresolved"
	IssueBrokenReferenceSyntax       = "broken_reference_syntax"
	IssueBrokenReferenceCycleOrDepth = "broken_reference_cycle_or_depth"

	brokenReferencePrefix = "broken_reference_"
	defaultIssueSeverity  = "warning"
)

// Issue is one problem detected on a config's view of a key.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// NewIssue builds an Issue with the default warning severity.
func NewIssue(code, message string) Issue {
	return Issue{Code: code, Severity: defaultIssueSeverity, Message: message}
}

// ClassifyReferenceError maps a validation message to an issue code.
func ClassifyReferenceError(message string) string {
	lowered := strings.ToLower(message)
	if strings.Contains(lowered, "invalid reference syntax") {
		return IssueBrokenReferenceSyntax
	}
	if strings.Contains(lowered, "cycle") || strings.Contains(lowered, "max depth") {
		return IssueBrokenReferenceCycleOrDepth
	}
	return IssueBrokenReferenceUnresolved
}

// HasBrokenReference reports whether any issue is a reference problem.
func HasBrokenReference(issues []Issue) bool {
	for _, issue := range issues {
		if strings.HasPrefix(issue.Code, brokenReferencePrefix) {
			return true
		}
	}
	return false
}

// IssueCount is one entry of an IssueSummary breakdown.
type IssueCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// IssueSummary aggregates issues across compare rows.
type IssueSummary struct {
	TotalIssues     int          `json:"totalIssues"`
	AffectedConfigs int          `json:"affectedConfigs"`
	ByCode          []IssueCount `json:"byCode"`
}

// BuildIssueSummary totals per-row issues. ByCode is sorted by code.
func BuildIssueSummary(rowIssues [][]Issue) IssueSummary {
	byCode := map[string]int{}
	summary := IssueSummary{ByCode: []IssueCount{}}
	for _, issues := range rowIssues {
		if len(issues) > 0 {
			summary.AffectedConfigs++
		}
		for _, issue := range issues {
			byCode[issue.Code]++
			summary.TotalIssues++
		}
	}
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		summary.ByCode = append(summary.ByCode, IssueCount{Code: code, Count: byCode[code]})
	}
	return summary
}
