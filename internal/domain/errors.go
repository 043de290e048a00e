// internal/domain/errors.go
package domain

import "errors"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidPayload   = errors.New("invalid request")
	ErrInternal         = errors.New("internal error")

	ErrLoanNotFound      = errors.New("loan not found")
	ErrLoanAlreadyActive = errors.New("loan already active with another confirmation")
	ErrTaskNotFound      = errors.New("reconciliation task not found")
)
