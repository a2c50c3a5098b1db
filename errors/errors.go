// Package errors defines the sentinel errors shared across the chat core.
// Callers match them with errors.Is and translate them at the transport
// boundary.
package errors

import "fmt"

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrNotFound           = fmt.Errorf("not found")
	ErrInvalidChatSpec    = fmt.Errorf("invalid chat specification")
	ErrChatNotFound       = fmt.Errorf("chat not found")
	ErrPersistence        = fmt.Errorf("persistence failure")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no censored words have been found")
)
