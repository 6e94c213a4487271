package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountPending     = errors.New("account pending approval")
	ErrAccountDenied      = errors.New("account denied")
	ErrInvalidToken       = errors.New("invalid token")
)
