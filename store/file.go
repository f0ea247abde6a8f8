package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"civicplus-be/models"
)

const fileName = "db.json"

// fileDocument is the on-disk layout of the file engine: the two record
// collections in one JSON object, matching the original flat-file store.
type fileDocument struct {
	Users  []fileUser     `json:"users"`
	Issues []models.Issue `json:"issues"`
}

// fileUser re-exposes the credential that the API model hides from JSON.
// The file is the durable backing, so it has to keep the hash.
type fileUser struct {
	models.User
	Password string `json:"password"`
}

func toFileUsers(users []models.User) []fileUser {
	out := make([]fileUser, len(users))
	for i, u := range users {
		out[i] = fileUser{User: u, Password: u.Password}
	}
	return out
}

func fromFileUsers(users []fileUser) []models.User {
	out := make([]models.User, len(users))
	for i, fu := range users {
		out[i] = fu.User
		out[i].Password = fu.Password
	}
	return out
}

// OpenFile opens the JSON-file engine. The whole document is loaded at
// open and rewritten after every mutation; the file is exclusively owned by
// this store instance for the life of the process.
func OpenFile(opts Options) (Store, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("%w: file backend requires a data directory", ErrValidation)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, storageErr("create data dir", err)
	}
	path := filepath.Join(opts.DataDir, fileName)

	s := &memStore{nextIssueID: 1, nextUserID: 1}
	if err := loadDocument(path, s); err != nil {
		return nil, err
	}
	s.save = func() error { return writeDocument(path, s) }

	if opts.Seed {
		if err := s.seedIfEmpty(); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(); err != nil {
			return nil, storageErr("initialize db file", err)
		}
	}
	return s, nil
}

func loadDocument(path string, s *memStore) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return storageErr("read db file", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return storageErr("decode db file", err)
	}
	s.users = fromFileUsers(doc.Users)
	s.issues = doc.Issues
	for i := range s.users {
		if s.users[i].ID >= s.nextUserID {
			s.nextUserID = s.users[i].ID + 1
		}
	}
	for i := range s.issues {
		// Stored DaysOpen is stale by definition; drop it on load.
		s.issues[i].DaysOpen = 0
		if s.issues[i].ID >= s.nextIssueID {
			s.nextIssueID = s.issues[i].ID + 1
		}
	}
	return nil
}

// writeDocument is called with the store lock held.
func writeDocument(path string, s *memStore) error {
	doc := fileDocument{Users: toFileUsers(s.users), Issues: s.issues}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
