package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrIdentityNotFound is returned when a user handle has no profile.
	ErrIdentityNotFound = errors.New("user profile not found")
	// ErrIdentityUnresolved is returned when an identity lacks the fields a result needs.
	ErrIdentityUnresolved = errors.New("identity not resolved")
	// ErrValidation wraps every input rejection made before a write.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps failed writes to the result or quiz store.
	ErrPersistence = errors.New("persistence failed")
	// ErrEmptyExport is returned when there are no rows to export.
	ErrEmptyExport = errors.New("no results to export")
	// ErrForbidden is returned when an identity acts on something it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrResultNotFound indicates an unknown result id.
	ErrResultNotFound = errors.New("result not found")

	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned when a session is still loading its quiz.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrSessionSubmitted is returned for any mutation after submission.
	ErrSessionSubmitted = errors.New("quiz session already submitted")
	// ErrSessionNotSubmitted is returned when a result is built before scoring.
	ErrSessionNotSubmitted = errors.New("quiz session not submitted")
	// ErrSessionConflict is returned when a session changed after it was read.
	ErrSessionConflict = errors.New("quiz session modified concurrently")
	// ErrQuestionOutOfRange indicates a question index outside the quiz.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrOptionNotFound indicates a selected option that the question does not offer.
	ErrOptionNotFound = errors.New("option not found")
)
