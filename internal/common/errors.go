// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Input errors.
	ErrValidation   = errors.New("validation failed")
	ErrInvalidScope = errors.New("invalid scope")

	// Lifecycle errors.
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrScopeViolation    = errors.New("scope violation")
	ErrConflict          = errors.New("rule conflict")

	// ErrStaleRule means the rule row changed between read and write inside a
	// transaction. The caller may resubmit.
	ErrStaleRule = errors.New("rule changed concurrently")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError lists every problem found with caller input.
type ValidationError struct {
	Problems []string
}

// NewValidationError builds a ValidationError from one or more problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError names a rejected state change.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ConflictError names the live rule a candidate would shadow.
type ConflictError struct {
	RuleID   string
	RuleType string
	Scope    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: rule_type %q is already governed by rule %s at overlapping scope %s",
		e.RuleType, e.RuleID, e.Scope)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a resubmission.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
