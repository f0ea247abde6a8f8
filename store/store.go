// Package store is the persistence layer for issues and users. Three
// interchangeable engines implement the same Store contract: a volatile
// in-memory collection, a JSON file that survives restarts, and an embedded
// SQLite database. The engine is picked by an explicit configuration flag,
// never by probing; all three must pass the same test suite.
//
// Mutating operations are serialized per store, so at most one mutation is
// in flight for any record at a time. Reads may run concurrently with
// writes to other records.
package store

import (
	"context"
	"fmt"
	"time"

	"civicplus-be/lifecycle"
	"civicplus-be/models"
	"civicplus-be/query"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQL    = "sql"
)

type Options struct {
	// Backend is one of memory, file or sql.
	Backend string
	// DataDir holds the durable engines' files.
	DataDir string
	// Seed installs the demo users and issues when the store opens empty.
	Seed bool
}

// Store is the single contract every backing engine satisfies. Callers
// never see engine-specific types; structured fields cross the boundary as
// their Go representations regardless of how an engine encodes them.
type Store interface {
	CreateIssue(ctx context.Context, draft models.Issue) (*models.Issue, error)
	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	ListIssues(ctx context.Context, f query.Filter) ([]models.Issue, error)
	UpdateIssueStatus(ctx context.Context, id int64, status models.IssueStatus, adminNotes string) (*models.Issue, error)
	RateIssue(ctx context.Context, id int64, rating int, comments string) (*models.Issue, error)
	VoteIssue(ctx context.Context, id int64, voteValue int, comments string) (*models.Issue, error)

	// Escalate is the background sweep: every pending issue open for more
	// than thresholdDays becomes delayed. Returns how many changed.
	Escalate(ctx context.Context, now time.Time, thresholdDays int) (int, error)

	CreateUser(ctx context.Context, draft models.User) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	Close() error
}

// Open constructs the engine named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(opts)
	case BackendFile:
		return OpenFile(opts)
	case BackendSQL:
		return OpenSQLite(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrValidation, opts.Backend)
	}
}

// prepareIssueDraft validates required fields and fills creation defaults.
// Shared by every engine so the observable create behavior is identical.
func prepareIssueDraft(draft *models.Issue) error {
	if draft.Title == "" || draft.IssueType == "" || draft.Description == "" {
		return fmt.Errorf("%w: title, issueType and description are required", ErrValidation)
	}
	if draft.Status == "" {
		draft.Status = models.StatusPending
	} else if !models.ValidStatus(draft.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, draft.Status)
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityLow
	} else if !models.ValidPriority(draft.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, draft.Priority)
	}
	if draft.ReportedDate.IsZero() {
		draft.ReportedDate = models.Today()
	}
	if draft.ReportedBy == "" {
		draft.ReportedBy = "anonymous"
	}
	draft.Rating = nil
	draft.RatingComments = ""
	draft.RatingDate = nil
	draft.Votes = 0
	draft.VoteScore = 0
	draft.VoteComments = ""
	draft.DaysOpen = 0
	return nil
}

// prepareUserDraft validates a registration and fills defaults.
func prepareUserDraft(draft *models.User) error {
	if draft.Email == "" || draft.Name == "" {
		return fmt.Errorf("%w: email and name are required", ErrValidation)
	}
	if draft.Role == "" {
		draft.Role = models.RoleCitizen
	} else if !models.ValidRole(draft.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, draft.Role)
	}
	if draft.RegisteredDate.IsZero() {
		draft.RegisteredDate = time.Now()
	}
	return nil
}

// validateStatusUpdate guards admin status changes before an engine applies
// lifecycle.ApplyStatus.
func validateStatusUpdate(status models.IssueStatus) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return nil
}

// withDaysOpen returns a copy of the issue with the derived age populated.
// DaysOpen is computed on every read and never trusted from storage.
func withDaysOpen(issue models.Issue, now time.Time) models.Issue {
	issue.DaysOpen = lifecycle.DaysOpen(issue.ReportedDate, now)
	return issue
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
