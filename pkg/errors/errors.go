package errors

import "fmt"

// Error codes
const (
	CodeAssistant  = "ASSISTANT_ERROR"
	CodeFetch      = "FETCH_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodePersist    = "PERSIST_ERROR"
)

type AssistantError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AssistantError) Unwrap() error {
	return e.Cause
}

// FetchError is a failed call to an external operation (search, transcript,
// summary, speech). It crosses the facade boundary once and is rendered as a
// retryable message; it never ends up inside a cache entry.
type FetchError struct {
	*AssistantError
	Operation string
}

func NewFetchError(message, operation string, cause error) *FetchError {
	return &FetchError{
		AssistantError: &AssistantError{
			Message: message,
			Code:    CodeFetch,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

type ValidationError struct {
	*AssistantError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AssistantError: &AssistantError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AssistantError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AssistantError: &AssistantError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// PersistError is a durable-slot read or write failure. It is logged and
// swallowed at the cache boundary; the cache is an optimization, not a
// correctness requirement.
type PersistError struct {
	*AssistantError
	Slot string
}

func NewPersistError(message, slot string, cause error) *PersistError {
	return &PersistError{
		AssistantError: &AssistantError{
			Message: message,
			Code:    CodePersist,
			Context: map[string]any{
				"slot": slot,
			},
			Cause: cause,
		},
		Slot: slot,
	}
}
