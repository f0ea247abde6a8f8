package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"civicplus-be/lifecycle"
	"civicplus-be/models"
	"civicplus-be/query"
	"civicplus-be/voting"
)

//go:embed schema.sql
var schemaFS embed.FS

const dbFileName = "civicplus.db"

const sqliteDateLayout = "2006-01-02"

// sqlStore is the embedded-SQL engine. The location sub-struct is stored as
// a JSON text column, as the original schema did; that encoding never
// crosses the Store boundary.
type sqlStore struct {
	db *sql.DB

	// writeMu serializes mutations so read-modify-write cycles on a record
	// never interleave.
	writeMu sync.Mutex
}

// OpenSQLite opens (and if needed creates) the SQLite engine.
func OpenSQLite(ctx context.Context, opts Options) (Store, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("%w: sql backend requires a data directory", ErrValidation)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, storageErr("create data dir", err)
	}
	path := filepath.Join(opts.DataDir, dbFileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, storageErr(fmt.Sprintf("apply %q", p), err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, storageErr("read schema", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		db.Close()
		return nil, storageErr("apply schema", err)
	}

	s := &sqlStore{db: db}
	if opts.Seed {
		if err := s.seedIfEmpty(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *sqlStore) seedIfEmpty(ctx context.Context) error {
	var users, issues int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return storageErr("count users", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&issues); err != nil {
		return storageErr("count issues", err)
	}
	if users > 0 || issues > 0 {
		return nil
	}

	seeds, err := seedUsers()
	if err != nil {
		return err
	}
	for _, u := range seeds {
		if _, err := s.insertUser(ctx, u); err != nil {
			return err
		}
	}
	for _, issue := range seedIssues() {
		if _, err := s.insertIssue(ctx, issue); err != nil {
			return err
		}
	}
	return nil
}

const issueColumns = `id, title, description, issue_type, location, priority, status,
	reported_date, reporter_name, reporter_email, reported_by, ward, image_url,
	admin_notes, rating, rating_comments, rating_date, votes, vote_score, vote_comments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	var issue models.Issue
	var location string
	var reportedDate string
	var imageURL sql.NullString
	var rating sql.NullFloat64
	var ratingDate sql.NullString

	err := row.Scan(
		&issue.ID, &issue.Title, &issue.Description, &issue.IssueType,
		&location, &issue.Priority, &issue.Status, &reportedDate,
		&issue.ReporterName, &issue.ReporterEmail, &issue.ReportedBy,
		&issue.Ward, &imageURL, &issue.AdminNotes, &rating,
		&issue.RatingComments, &ratingDate, &issue.Votes, &issue.VoteScore,
		&issue.VoteComments,
	)
	if err != nil {
		return nil, err
	}

	if location != "" {
		if err := json.Unmarshal([]byte(location), &issue.Location); err != nil {
			// Legacy rows may hold a bare address string.
			issue.Location = models.Location{Address: location}
		}
	}
	if t, err := time.Parse(sqliteDateLayout, reportedDate); err == nil {
		issue.ReportedDate = models.Date(t)
	}
	if imageURL.Valid {
		issue.ImageURL = &imageURL.String
	}
	if rating.Valid {
		issue.Rating = &rating.Float64
	}
	if ratingDate.Valid {
		if t, err := time.Parse(time.RFC3339, ratingDate.String); err == nil {
			issue.RatingDate = &t
		}
	}
	return &issue, nil
}

func (s *sqlStore) insertIssue(ctx context.Context, issue models.Issue) (int64, error) {
	location, err := json.Marshal(issue.Location)
	if err != nil {
		return 0, storageErr("encode location", err)
	}
	var imageURL any
	if issue.ImageURL != nil {
		imageURL = *issue.ImageURL
	}
	var rating any
	if issue.Rating != nil {
		rating = *issue.Rating
	}
	var ratingDate any
	if issue.RatingDate != nil {
		ratingDate = issue.RatingDate.UTC().Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (title, description, issue_type, location, priority, status,
			reported_date, reporter_name, reporter_email, reported_by, ward, image_url,
			admin_notes, rating, rating_comments, rating_date, votes, vote_score, vote_comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, issue.Title, issue.Description, string(issue.IssueType), string(location),
		string(issue.Priority), string(issue.Status), issue.ReportedDate.String(),
		issue.ReporterName, issue.ReporterEmail, issue.ReportedBy, issue.Ward,
		imageURL, issue.AdminNotes, rating, issue.RatingComments, ratingDate,
		issue.Votes, issue.VoteScore, issue.VoteComments)
	if err != nil {
		return 0, storageErr("insert issue", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert issue", err)
	}
	return id, nil
}

func (s *sqlStore) CreateIssue(ctx context.Context, draft models.Issue) (*models.Issue, error) {
	if err := prepareIssueDraft(&draft); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id, err := s.insertIssue(ctx, draft)
	if err != nil {
		return nil, err
	}
	return s.GetIssue(ctx, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) getIssue(ctx context.Context, q rowQuerier, id int64) (*models.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: issue %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get issue", err)
	}
	return issue, nil
}

func (s *sqlStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	issue, err := s.getIssue(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	out := withDaysOpen(*issue, time.Now())
	return &out, nil
}

func (s *sqlStore) ListIssues(ctx context.Context, f query.Filter) ([]models.Issue, error) {
	// The filter semantics (wildcards, case-folded search) live in the
	// query package; fetching in insertion order and filtering there keeps
	// every engine's behavior identical.
	rows, err := s.db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY id`)
	if err != nil {
		return nil, storageErr("list issues", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, storageErr("scan issue", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list issues", err)
	}

	now := time.Now()
	matched := query.Apply(issues, f)
	out := make([]models.Issue, 0, len(matched))
	for _, issue := range matched {
		out = append(out, withDaysOpen(issue, now))
	}
	return out, nil
}

func (s *sqlStore) updateIssueTx(ctx context.Context, tx *sql.Tx, issue *models.Issue) error {
	location, err := json.Marshal(issue.Location)
	if err != nil {
		return storageErr("encode location", err)
	}
	var rating any
	if issue.Rating != nil {
		rating = *issue.Rating
	}
	var ratingDate any
	if issue.RatingDate != nil {
		ratingDate = issue.RatingDate.UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET status = ?, admin_notes = ?, location = ?, rating = ?,
			rating_comments = ?, rating_date = ?, votes = ?, vote_score = ?, vote_comments = ?
		WHERE id = ?
	`, string(issue.Status), issue.AdminNotes, string(location), rating,
		issue.RatingComments, ratingDate, issue.Votes, issue.VoteScore,
		issue.VoteComments, issue.ID)
	if err != nil {
		return storageErr("update issue", err)
	}
	return nil
}

// mutateIssue runs fn on the current row inside a transaction, holding the
// write lock so concurrent mutations on the same id cannot interleave.
func (s *sqlStore) mutateIssue(ctx context.Context, id int64, fn func(*models.Issue) error) (*models.Issue, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}

	issue, err := s.getIssue(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := fn(issue); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := s.updateIssueTx(ctx, tx, issue); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit", err)
	}

	out := withDaysOpen(*issue, time.Now())
	return &out, nil
}

func (s *sqlStore) UpdateIssueStatus(ctx context.Context, id int64, status models.IssueStatus, adminNotes string) (*models.Issue, error) {
	if err := validateStatusUpdate(status); err != nil {
		return nil, err
	}
	return s.mutateIssue(ctx, id, func(issue *models.Issue) error {
		lifecycle.ApplyStatus(issue, status, adminNotes)
		return nil
	})
}

func (s *sqlStore) RateIssue(ctx context.Context, id int64, rating int, comments string) (*models.Issue, error) {
	return s.mutateIssue(ctx, id, func(issue *models.Issue) error {
		if err := voting.Rate(issue, rating, comments, time.Now()); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil
	})
}

func (s *sqlStore) VoteIssue(ctx context.Context, id int64, voteValue int, comments string) (*models.Issue, error) {
	return s.mutateIssue(ctx, id, func(issue *models.Issue) error {
		voting.Vote(issue, voteValue, comments)
		return nil
	})
}

func (s *sqlStore) Escalate(ctx context.Context, now time.Time, thresholdDays int) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, reported_date FROM issues WHERE status = ?`,
		string(models.StatusPending))
	if err != nil {
		return 0, storageErr("scan pending issues", err)
	}

	var stale []int64
	for rows.Next() {
		var id int64
		var reported string
		if err := rows.Scan(&id, &reported); err != nil {
			rows.Close()
			return 0, storageErr("scan pending issue", err)
		}
		t, err := time.Parse(sqliteDateLayout, reported)
		if err != nil {
			continue
		}
		probe := models.Issue{Status: models.StatusPending, ReportedDate: models.Date(t)}
		if lifecycle.ShouldEscalate(probe, now, thresholdDays) {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, storageErr("scan pending issues", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `UPDATE issues SET status = ? WHERE id = ?`,
			string(models.StatusDelayed), id); err != nil {
			return 0, storageErr("escalate issue", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit", err)
	}
	return len(stale), nil
}

func (s *sqlStore) insertUser(ctx context.Context, user models.User) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name, role, ward, password, registered_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.Email, user.Name, string(user.Role), user.Ward, user.Password,
		user.RegisteredDate.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, storageErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert user", err)
	}
	return id, nil
}

func (s *sqlStore) CreateUser(ctx context.Context, draft models.User) (*models.User, error) {
	if err := prepareUserDraft(&draft); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE`, draft.Email).Scan(&count)
	if err != nil {
		return nil, storageErr("check existing user", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: user %s", ErrDuplicate, draft.Email)
	}

	id, err := s.insertUser(ctx, draft)
	if err != nil {
		return nil, err
	}
	draft.ID = id
	return &draft, nil
}

func (s *sqlStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	var role string
	var registered string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, ward, password, registered_date
		FROM users WHERE email = ? COLLATE NOCASE
	`, email).Scan(&user.ID, &user.Email, &user.Name, &role, &user.Ward,
		&user.Password, &registered)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}
	user.Role = models.UserRole(role)
	if t, err := time.Parse(time.RFC3339, registered); err == nil {
		user.RegisteredDate = t
	}
	return &user, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
