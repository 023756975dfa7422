package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidCredentials    = errors.New("Invalid email or password")
	ErrInactive              = errors.New("This account is inactive")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrPasswordTooShort      = errors.New("Password must be at least 12 characters")
)
