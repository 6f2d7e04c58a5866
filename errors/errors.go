package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabaseOperation indicates a database operation failed
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrLLMCommunication indicates LLM communication failed
	ErrLLMCommunication = errors.New("llm communication failed")

	// ErrCatalogLoad indicates the catalog source is unreadable or malformed.
	// Fatal at startup; a failed reload keeps the previous snapshot.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrCatalogRead indicates a per-call catalog read failed. Safe to retry.
	ErrCatalogRead = errors.New("catalog read failed")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Join attaches a sentinel category to a concrete cause so both match errors.Is.
func Join(sentinel, cause error, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", sentinel, message)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, message, cause)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCatalogLoad checks if error is a catalog load error
func IsCatalogLoad(err error) bool {
	return errors.Is(err, ErrCatalogLoad)
}

// IsCatalogRead checks if error is a per-call catalog read error
func IsCatalogRead(err error) bool {
	return errors.Is(err, ErrCatalogRead)
}

// IsLLMCommunication checks if error came from talking to the model server
func IsLLMCommunication(err error) bool {
	return errors.Is(err, ErrLLMCommunication)
}
