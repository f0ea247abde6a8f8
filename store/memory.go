package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"civicplus-be/lifecycle"
	"civicplus-be/models"
	"civicplus-be/query"
	"civicplus-be/voting"
)

// memStore is the in-process engine: an ordered collection keyed by id. The
// file engine reuses it with a save hook that persists the collection after
// each mutation, exactly like the JSON fallback in the original system.
type memStore struct {
	mu          sync.RWMutex
	issues      []models.Issue
	users       []models.User
	nextIssueID int64
	nextUserID  int64

	// save runs with mu held after every successful mutation; nil for the
	// volatile engine.
	save func() error
}

// NewMemory opens the volatile engine. Data is lost when the process exits.
func NewMemory(opts Options) (Store, error) {
	s := &memStore{nextIssueID: 1, nextUserID: 1}
	if opts.Seed {
		if err := s.seedIfEmpty(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *memStore) seedIfEmpty() error {
	if len(s.users) > 0 || len(s.issues) > 0 {
		return nil
	}
	users, err := seedUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		u.ID = s.nextUserID
		s.nextUserID++
		s.users = append(s.users, u)
	}
	for _, issue := range seedIssues() {
		issue.ID = s.nextIssueID
		s.nextIssueID++
		s.issues = append(s.issues, issue)
	}
	if s.save != nil {
		return s.save()
	}
	return nil
}

func (s *memStore) persist() error {
	if s.save == nil {
		return nil
	}
	if err := s.save(); err != nil {
		return storageErr("persist", err)
	}
	return nil
}

func (s *memStore) CreateIssue(ctx context.Context, draft models.Issue) (*models.Issue, error) {
	if err := prepareIssueDraft(&draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft.ID = s.nextIssueID
	s.nextIssueID++
	s.issues = append(s.issues, draft)
	if err := s.persist(); err != nil {
		s.issues = s.issues[:len(s.issues)-1]
		return nil, err
	}

	out := withDaysOpen(draft, time.Now())
	return &out, nil
}

func (s *memStore) findIssue(id int64) (int, error) {
	for i := range s.issues {
		if s.issues[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: issue %d", ErrNotFound, id)
}

func (s *memStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, err := s.findIssue(id)
	if err != nil {
		return nil, err
	}
	out := withDaysOpen(s.issues[i], time.Now())
	return &out, nil
}

func (s *memStore) ListIssues(ctx context.Context, f query.Filter) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	matched := query.Apply(s.issues, f)
	out := make([]models.Issue, 0, len(matched))
	for _, issue := range matched {
		out = append(out, withDaysOpen(issue, now))
	}
	return out, nil
}

// mutate runs fn against the stored record under the write lock and
// persists the result. fn sees the live record; if it fails nothing is
// written.
func (s *memStore) mutate(id int64, fn func(*models.Issue) error) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.findIssue(id)
	if err != nil {
		return nil, err
	}
	before := s.issues[i]
	if err := fn(&s.issues[i]); err != nil {
		s.issues[i] = before
		return nil, err
	}
	if err := s.persist(); err != nil {
		s.issues[i] = before
		return nil, err
	}
	out := withDaysOpen(s.issues[i], time.Now())
	return &out, nil
}

func (s *memStore) UpdateIssueStatus(ctx context.Context, id int64, status models.IssueStatus, adminNotes string) (*models.Issue, error) {
	if err := validateStatusUpdate(status); err != nil {
		return nil, err
	}
	return s.mutate(id, func(issue *models.Issue) error {
		lifecycle.ApplyStatus(issue, status, adminNotes)
		return nil
	})
}

func (s *memStore) RateIssue(ctx context.Context, id int64, rating int, comments string) (*models.Issue, error) {
	return s.mutate(id, func(issue *models.Issue) error {
		if err := voting.Rate(issue, rating, comments, time.Now()); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil
	})
}

func (s *memStore) VoteIssue(ctx context.Context, id int64, voteValue int, comments string) (*models.Issue, error) {
	return s.mutate(id, func(issue *models.Issue) error {
		voting.Vote(issue, voteValue, comments)
		return nil
	})
}

func (s *memStore) Escalate(ctx context.Context, now time.Time, thresholdDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := range s.issues {
		if lifecycle.ShouldEscalate(s.issues[i], now, thresholdDays) {
			s.issues[i].Status = models.StatusDelayed
			count++
		}
	}
	if count > 0 {
		if err := s.persist(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *memStore) CreateUser(ctx context.Context, draft models.User) (*models.User, error) {
	if err := prepareUserDraft(&draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, draft.Email) {
			return nil, fmt.Errorf("%w: user %s", ErrDuplicate, draft.Email)
		}
	}
	draft.ID = s.nextUserID
	s.nextUserID++
	s.users = append(s.users, draft)
	if err := s.persist(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return nil, err
	}

	out := draft
	return &out, nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			out := s.users[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
}

func (s *memStore) Close() error {
	return nil
}
