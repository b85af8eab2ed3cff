// Package errutil defines the error kinds shared by every recollect package
// and the helpers that turn them into log records and exit codes.
package errutil

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
)

// Error kinds. Wrap one of these with goerr.Wrap and test with errors.Is.
var (
	// ErrValidation is returned before any mutation when input is rejected.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for unknown ids or missing referenced files.
	ErrNotFound = errors.New("not found")
	// ErrStorage is returned when persisted state cannot be read or written.
	ErrStorage = errors.New("storage error")
	// ErrExternalService is returned when the LLM service fails or is not configured.
	ErrExternalService = errors.New("external service error")
)

// Exit codes reported by the CLI for each kind.
const (
	ExitOK       = 0
	ExitGeneric  = 1
	ExitInvalid  = 2
	ExitNotFound = 3
	ExitStorage  = 4
	ExitExternal = 5
)

// Validation wraps ErrValidation with a message and structured values.
func Validation(msg string, opts ...goerr.Option) error {
	return goerr.Wrap(ErrValidation, msg, opts...)
}

// NotFound wraps ErrNotFound with a message and structured values.
func NotFound(msg string, opts ...goerr.Option) error {
	return goerr.Wrap(ErrNotFound, msg, opts...)
}

// Storage wraps a driver error as ErrStorage. The original error stays
// reachable through errors.Is / errors.As.
func Storage(err error, msg string, opts ...goerr.Option) error {
	if err == nil {
		return nil
	}
	return goerr.Wrap(fmt.Errorf("%w: %w", ErrStorage, err), msg, opts...)
}

// External wraps an LLM or credential failure as ErrExternalService.
func External(err error, msg string, opts ...goerr.Option) error {
	if err == nil {
		return goerr.Wrap(ErrExternalService, msg, opts...)
	}
	return goerr.Wrap(fmt.Errorf("%w: %w", ErrExternalService, err), msg, opts...)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrValidation):
		return ExitInvalid
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrStorage):
		return ExitStorage
	case errors.Is(err, ErrExternalService):
		return ExitExternal
	default:
		return ExitGeneric
	}
}

// Handle logs err with any goerr values attached. It returns err unchanged.
func Handle(logger *slog.Logger, err error, msg string) error {
	if err == nil {
		return nil
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}
	return err
}
