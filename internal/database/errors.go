package database

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrOutOfServiceArea = errors.New("location outside the service area")
	ErrAlreadyClaimed   = errors.New("donation is no longer available")
)
