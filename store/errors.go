package store

import "errors"

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrStorage    = errors.New("storage failure")

	// ErrAuth covers credential failures. It is deliberately distinct from
	// ErrNotFound so a failed login never reveals whether the account exists.
	ErrAuth = errors.New("authentication failed")
)
