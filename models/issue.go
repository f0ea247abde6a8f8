package models

import (
	"fmt"
	"strings"
	"time"
)

// IssueType enum. Free-form values are accepted from callers; these are the
// ones the reporting form offers.
type IssueType string

const (
	Pothole       IssueType = "pothole"
	Streetlight   IssueType = "streetlight"
	Garbage       IssueType = "garbage"
	WaterLeak     IssueType = "water-leak"
	Sidewalk      IssueType = "sidewalk"
	TrafficSignal IssueType = "traffic-signal"
	OtherIssue    IssueType = "other"
)

// IssuePriority enum
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusPending  IssueStatus = "pending"
	StatusDelayed  IssueStatus = "delayed"
	StatusResolved IssueStatus = "resolved"
)

// ValidStatus reports whether s is one of the three issue statuses.
func ValidStatus(s IssueStatus) bool {
	switch s {
	case StatusPending, StatusDelayed, StatusResolved:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p IssuePriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Location is the structured position of an issue. It is stored as a single
// embedded value; storage engines must never leak their encoding of it.
type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

const dateLayout = "2006-01-02"

// DateOnly is a calendar date marshaled as "YYYY-MM-DD".
type DateOnly struct {
	time.Time
}

// Date builds a DateOnly from a point in time, truncated to the day in UTC.
func Date(t time.Time) DateOnly {
	y, m, d := t.UTC().Date()
	return DateOnly{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today is the current calendar date.
func Today() DateOnly {
	return Date(time.Now())
}

func (d DateOnly) String() string {
	return d.Format(dateLayout)
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = DateOnly{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Tolerate full timestamps from older clients.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
	}
	*d = Date(t)
	return nil
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	IssueType      IssueType     `json:"issueType"`
	Location       Location      `json:"location"`
	Priority       IssuePriority `json:"priority"`
	Status         IssueStatus   `json:"status"`
	ReportedDate   DateOnly      `json:"reportedDate"`
	ReporterName   string        `json:"reporterName,omitempty"`
	ReporterEmail  string        `json:"reporterEmail,omitempty"`
	ReportedBy     string        `json:"reportedBy"`
	Ward           string        `json:"ward,omitempty"`
	ImageURL       *string       `json:"imageUrl,omitempty"`
	AdminNotes     string        `json:"adminNotes"`
	Rating         *float64      `json:"rating"`
	RatingComments string        `json:"ratingComments,omitempty"`
	RatingDate     *time.Time    `json:"ratingDate,omitempty"`
	Votes          int           `json:"votes"`
	VoteScore      int           `json:"voteScore"`
	VoteComments   string        `json:"voteComments,omitempty"`

	// DaysOpen is derived from ReportedDate on every read and is never
	// ground truth in storage.
	DaysOpen int `json:"daysOpen"`
}
