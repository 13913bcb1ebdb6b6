package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeForbidden    ErrorCode = "FORBIDDEN"

	// Session errors
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Progression errors
	CodeVideoNotCompleted     ErrorCode = "VIDEO_NOT_COMPLETED"
	CodeIncompleteAnswerSet   ErrorCode = "INCOMPLETE_ANSWER_SET"
	CodeInvalidAnswerPayload  ErrorCode = "INVALID_ANSWER_PAYLOAD"
	CodeNewChaptersDetected   ErrorCode = "NEW_CHAPTERS_DETECTED"
	CodeSubmissionIncomplete  ErrorCode = "SUBMISSION_INCOMPLETE"
	CodeInvalidTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeInductionNotAvailable ErrorCode = "INDUCTION_NOT_AVAILABLE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Context,
	})
}

// WithContext attaches a detail value rendered under "details" in responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewConflictError(message string) *DomainError {
	return NewError(CodeConflict, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewUnauthenticatedError(message string) *DomainError {
	return NewError(CodeUnauthenticated, message, nil)
}

func NewVideoNotCompletedError(chapterID string) *DomainError {
	return NewError(CodeVideoNotCompleted, "Please complete watching the video before answering questions", nil).
		WithContext("chapter_id", chapterID)
}

func NewIncompleteAnswerSetError(missing int) *DomainError {
	return NewError(CodeIncompleteAnswerSet, fmt.Sprintf("Please answer all questions. %d question(s) remaining.", missing), nil).
		WithContext("missing_count", missing)
}

func NewInvalidAnswerPayloadError(questionID string, reason string) *DomainError {
	return NewError(CodeInvalidAnswerPayload, fmt.Sprintf("Invalid answer for question %s: %s", questionID, reason), nil).
		WithContext("question_id", questionID)
}

func NewNewChaptersDetectedError(newChapterIDs []string) *DomainError {
	return NewError(CodeNewChaptersDetected, "New chapters have been added to this induction. Please complete them.", nil).
		WithContext("has_new_chapters", true).
		WithContext("new_chapter_ids", newChapterIDs)
}

func NewSubmissionIncompleteError(chapterNumber int) *DomainError {
	return NewError(CodeSubmissionIncomplete, fmt.Sprintf("Chapter %d is not complete yet", chapterNumber), nil).
		WithContext("chapter_number", chapterNumber)
}

func NewInvalidTransitionError(from, to SubmissionStatus) *DomainError {
	return NewError(CodeInvalidTransition, fmt.Sprintf("Cannot move submission from %s to %s", from, to), nil)
}
