package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrWeakPassword       = errors.New("Password must be at least 6 characters")
	ErrNameRequired       = errors.New("Name is required")
	ErrInvalidEmail       = errors.New("A valid email address is required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrIdentityProvider   = errors.New("identity provider unavailable")
	ErrNotFound           = errors.New("resource not found")
	ErrChatBusy           = errors.New("a reply is still being prepared")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrUnsupportedSource  = errors.New("unsupported content source")
)
