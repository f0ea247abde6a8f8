// Package lifecycle holds the rules that move an issue through its statuses:
// age computation, automatic escalation of stale pending issues, and the
// side effects of an admin status change.
package lifecycle

import (
	"math"
	"time"

	"civicplus-be/models"
)

// DefaultThresholdDays is how long an issue may stay pending before the
// sweep marks it delayed.
const DefaultThresholdDays = 3

// DaysOpen returns the number of whole-or-partial days between the reported
// date and now. The difference is taken as an absolute value, so a
// future-dated report counts its distance from now rather than going
// negative.
func DaysOpen(reported models.DateOnly, now time.Time) int {
	if reported.IsZero() {
		return 0
	}
	diff := now.Sub(reported.Time)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// ShouldEscalate reports whether the sweep would move this issue from
// pending to delayed. Re-running over an already delayed issue is a no-op
// because the predicate requires pending.
func ShouldEscalate(issue models.Issue, now time.Time, thresholdDays int) bool {
	return issue.Status == models.StatusPending &&
		DaysOpen(issue.ReportedDate, now) > thresholdDays
}

// ApplyStatus performs an admin status change in place. Any status is
// reachable from any other by an admin; when the new status is not
// resolved, the citizen rating is cleared so a reopened issue is rated
// against its next resolution, not its last one.
func ApplyStatus(issue *models.Issue, status models.IssueStatus, adminNotes string) {
	issue.Status = status
	issue.AdminNotes = adminNotes
	if status != models.StatusResolved {
		issue.Rating = nil
		issue.RatingComments = ""
		issue.RatingDate = nil
	}
}
