// Package stats derives summary counters from the current issue set. Record
// sets are small, so everything is recomputed fresh on each call and no
// counters are cached.
package stats

import (
	"math"
	"sort"

	"civicplus-be/models"
)

type Statistics struct {
	Total         int     `json:"total"`
	Pending       int     `json:"pending"`
	Delayed       int     `json:"delayed"`
	Resolved      int     `json:"resolved"`
	AverageRating float64 `json:"averageRating"`
	TotalVotes    int     `json:"totalVotes"`
	ResponseRate  int     `json:"responseRate"`
}

// Compute aggregates the issue set. AverageRating is the mean of rated
// issues rounded to one decimal, 0 when nothing is rated; ResponseRate is
// the rounded percentage of resolved issues, 0 for an empty set.
func Compute(issues []models.Issue) Statistics {
	s := Statistics{Total: len(issues)}

	var ratingSum float64
	var rated int
	for _, issue := range issues {
		switch issue.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusDelayed:
			s.Delayed++
		case models.StatusResolved:
			s.Resolved++
		}
		if issue.Rating != nil {
			ratingSum += *issue.Rating
			rated++
		}
		s.TotalVotes += issue.Votes
	}

	if rated > 0 {
		s.AverageRating = math.Round(ratingSum/float64(rated)*10) / 10
	}
	if s.Total > 0 {
		s.ResponseRate = int(math.Round(float64(s.Resolved) / float64(s.Total) * 100))
	}
	return s
}

// WardStanding is one row of the ward leaderboard.
type WardStanding struct {
	Ward          string  `json:"ward"`
	Total         int     `json:"total"`
	Resolved      int     `json:"resolved"`
	AverageRating float64 `json:"averageRating"`
	ResponseRate  int     `json:"responseRate"`
}

// Leaderboard groups issues by ward and ranks wards by citizen rating, then
// by resolved count. Issues without a ward are skipped.
func Leaderboard(issues []models.Issue) []WardStanding {
	byWard := make(map[string][]models.Issue)
	for _, issue := range issues {
		if issue.Ward == "" {
			continue
		}
		byWard[issue.Ward] = append(byWard[issue.Ward], issue)
	}

	standings := make([]WardStanding, 0, len(byWard))
	for ward, wardIssues := range byWard {
		ws := Compute(wardIssues)
		standings = append(standings, WardStanding{
			Ward:          ward,
			Total:         ws.Total,
			Resolved:      ws.Resolved,
			AverageRating: ws.AverageRating,
			ResponseRate:  ws.ResponseRate,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].AverageRating != standings[j].AverageRating {
			return standings[i].AverageRating > standings[j].AverageRating
		}
		if standings[i].Resolved != standings[j].Resolved {
			return standings[i].Resolved > standings[j].Resolved
		}
		return standings[i].Ward < standings[j].Ward
	})
	return standings
}
