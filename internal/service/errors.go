package service

import (
	"errors"
	"fmt"

	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
)

var (
	ErrForbidden          = permission.ErrForbidden
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// NonFieldErrors is the field name used for rules about the whole object.
const NonFieldErrors = "non_field_errors"

// ValidationError is a rule violation reported back to the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == NonFieldErrors {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// lookupError turns a repository miss into ErrNotFound and passes anything
// else through.
func lookupError(what string, err error) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}
