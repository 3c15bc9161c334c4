package domain

import "errors"

// Login-time failures. These are the only errors surfaced to callers, and only
// as display messages.
var (
	ErrNetwork           = errors.New("network error")
	ErrAuthRejected      = errors.New("login rejected")
	ErrContractViolation = errors.New("login response violates contract")
)

// Session-validity failures. They are recovered locally by clearing state.
var (
	ErrNoSession       = errors.New("no session")
	ErrCorruptSession  = errors.New("corrupt session")
	ErrExpiredSession  = errors.New("session expired")
	ErrSessionMismatch = errors.New("session copies disagree")
)

// Login collaborator (authstub) failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrForbidden          = errors.New("access forbidden")
)
