package services

import (
	"errors"
	"strings"

	"go-storefront/utils"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrUpstream          = errors.New("upstream failure")
	ErrUnsupportedMethod = errors.New("account does not use this sign-in method")

	ErrNoChallenge = errors.New("no password reset requested")
	ErrOTPExpired  = errors.New("reset code has expired")
	ErrOTPMismatch = errors.New("reset code is incorrect")
)

// ValidationError reports rejected input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
	Fields  []utils.FieldError
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// validateInput runs struct tags and converts failures into a ValidationError.
func validateInput(v interface{}) error {
	if err := utils.Validate(v); err != nil {
		if fields := utils.FormatValidationErrors(err); len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
		return invalid(err.Error())
	}
	return nil
}

// UpstreamError marks a failed call to an external collaborator.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

const (
	UpstreamIdentity = "identity provider"
	UpstreamEmail    = "email"
)
