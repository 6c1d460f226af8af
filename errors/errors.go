package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application failures so callers can branch on the
// category without string matching.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindAcquisition          Kind = "acquisition_failed"
	KindStorage              Kind = "storage_failed"
	KindTranscriptionSubmit  Kind = "transcription_submit_failed"
	KindTranscriptionRun     Kind = "transcription_run_failed"
	KindTranscriptionTimeout Kind = "transcription_timeout"
	KindGeneration           Kind = "generation_failed"
	KindPersistence          Kind = "persistence_failed"
	KindInternal             Kind = "internal"
)

type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from any error chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func newError(kind Kind, code int, op string, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return newError(KindInvalidInput, http.StatusBadRequest, op, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return newError(KindInternal, http.StatusInternalServerError, op, err, message)
}

func Acquisition(op string, err error, message string) *AppError {
	return newError(KindAcquisition, http.StatusBadGateway, op, err, message)
}

func Storage(op string, err error, message string) *AppError {
	return newError(KindStorage, http.StatusBadGateway, op, err, message)
}

func TranscriptionSubmit(op string, err error, message string) *AppError {
	return newError(KindTranscriptionSubmit, http.StatusBadGateway, op, err, message)
}

func TranscriptionRun(op string, err error, message string) *AppError {
	return newError(KindTranscriptionRun, http.StatusBadGateway, op, err, message)
}

func TranscriptionTimeout(op string, err error, message string) *AppError {
	return newError(KindTranscriptionTimeout, http.StatusGatewayTimeout, op, err, message)
}

func Generation(op string, err error, message string) *AppError {
	return newError(KindGeneration, http.StatusBadGateway, op, err, message)
}

func Persistence(op string, err error, message string) *AppError {
	return newError(KindPersistence, http.StatusInternalServerError, op, err, message)
}
