// Package voting applies citizen votes and post-resolution ratings to an
// issue record. Votes are a cumulative priority signal with an unbounded
// signed weight; ratings are a 1-5 star verdict on a resolved issue.
package voting

import (
	"errors"
	"time"

	"civicplus-be/models"
)

var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrNotResolved      = errors.New("only resolved issues can be rated")
)

// ValidateRating checks the star-click domain. Fractional ratings can exist
// as stored data (seeded demo records carry them) but are never accepted as
// input here.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	return nil
}

// Rate records a citizen rating on a resolved issue.
func Rate(issue *models.Issue, rating int, comments string, now time.Time) error {
	if err := ValidateRating(rating); err != nil {
		return err
	}
	if issue.Status != models.StatusResolved {
		return ErrNotResolved
	}
	value := float64(rating)
	issue.Rating = &value
	issue.RatingComments = comments
	issue.RatingDate = &now
	return nil
}

// Vote adds one vote with the given signed weight. The weight is
// deliberately unconstrained; the source system accepts arbitrary values
// and we preserve that.
func Vote(issue *models.Issue, voteValue int, comments string) {
	issue.Votes++
	issue.VoteScore += voteValue
	issue.VoteComments = comments
}
