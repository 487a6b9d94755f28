package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no live session matches an id.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrSessionNotInProgress is returned when an answer arrives outside IN_PROGRESS.
	ErrSessionNotInProgress = errors.New("assessment not in progress")
	// ErrSessionAlreadyStarted is returned when start is called on a running or finished attempt.
	ErrSessionAlreadyStarted = errors.New("assessment already started")
	// ErrNoResult is returned when a sync is requested before a result exists.
	ErrNoResult = errors.New("no finished result")
	// ErrInvalidEmail rejects identifications without an @.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidInput indicates a caller contract violation (e.g. answer count mismatch).
	ErrInvalidInput = errors.New("invalid input")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrEmptyBank indicates a bank without questions.
	ErrEmptyBank = errors.New("question bank has no questions")
	// ErrResultNotFound indicates no stored result has the given id.
	ErrResultNotFound = errors.New("result not found")
	// ErrDeleteNotConfirmed is returned when a delete was not explicitly confirmed.
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
	// ErrEndpointNotConfigured is returned by probes when no webhook URL is set.
	ErrEndpointNotConfigured = errors.New("no webhook endpoint configured")
	// ErrSyncInFlight rejects a manual send while another one is outstanding.
	ErrSyncInFlight = errors.New("sync already in flight")
	// ErrEmptyFeedback indicates the feedback generator returned no text.
	ErrEmptyFeedback = errors.New("feedback generator returned no text")
)

// BankError describes a structurally invalid question.
type BankError struct {
	QuestionID int
	Reason     string
}

func (e *BankError) Error() string {
	return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
}
