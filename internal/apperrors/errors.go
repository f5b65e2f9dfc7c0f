package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindResumeRequired      Kind = "RESUME_REQUIRED"
	KindDuplicateKey        Kind = "DUPLICATE_KEY"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidStatus       Kind = "INVALID_STATUS"
	KindUploadRejected      Kind = "UPLOAD_REJECTED"
	KindStorage             Kind = "STORAGE"
)

// Error is the error type every layer below the handlers returns.
// Message is safe to show to the caller; Err carries the internal cause.
type Error struct {
	Kind    Kind
	Message string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func MissingFields(fields []string) *Error {
	return &Error{Kind: KindValidation, Message: "Missing required fields", Missing: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindStorage when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindResumeRequired, KindDuplicateKey, KindConstraintViolation,
		KindInvalidStatus, KindUploadRejected:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a response may carry. Storage failures and foreign
// errors collapse to a generic message.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindStorage {
		return "Internal server error"
	}
	return appErr.Message
}
