// Package query filters and paginates issue lists for the admin, citizen
// and public views. Filtering is a pure intersection of the supplied
// criteria and never re-sorts: results keep the insertion order of the
// underlying store.
package query

import (
	"strings"

	"civicplus-be/models"
)

// Filter is the set of optional criteria a caller may combine. Zero-value
// fields are ignored; Status additionally treats "all" as absent.
type Filter struct {
	Status     string
	IssueType  string
	Priority   string
	Search     string
	ReportedBy string
	Ward       string
}

// Matches reports whether every supplied criterion holds for the issue.
func (f Filter) Matches(issue models.Issue) bool {
	if f.Status != "" && f.Status != "all" && string(issue.Status) != f.Status {
		return false
	}
	if f.IssueType != "" && string(issue.IssueType) != f.IssueType {
		return false
	}
	if f.Priority != "" && string(issue.Priority) != f.Priority {
		return false
	}
	if f.ReportedBy != "" && issue.ReportedBy != f.ReportedBy {
		return false
	}
	if f.Ward != "" && issue.Ward != f.Ward {
		return false
	}
	if f.Search != "" && !matchesSearch(issue, f.Search) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match against any of the
// issue's human-readable fields.
func matchesSearch(issue models.Issue, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{
		issue.Title,
		issue.Description,
		issue.Location.Address,
		issue.ReporterName,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Apply returns the subset of issues matching the filter, in input order.
func Apply(issues []models.Issue, f Filter) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if f.Matches(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Page is one slice of a filtered result set.
type Page struct {
	Items      []models.Issue `json:"items"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
}

// Paginate slices issues into fixed-size pages. pageNumber is 1-based;
// a page past the end is empty, not an error. TotalPages is at least 1
// even for an empty set so a UI always has a page to show.
func Paginate(issues []models.Issue, pageSize, pageNumber int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	total := len(issues)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (pageNumber - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Items:      issues[start:end],
		TotalCount: total,
		TotalPages: totalPages,
	}
}
