package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeRateLimit        ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeSchema           ErrorCode = "SCHEMA_ERROR"
	CodeParse            ErrorCode = "PARSE_ERROR"
	CodeInsufficientData ErrorCode = "INSUFFICIENT_DATA"
	CodeTooLarge         ErrorCode = "PAYLOAD_TOO_LARGE"
)

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func ValidationWrap(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return Wrap(err, CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

func TooLarge(limit int64, cause error) *AppError {
	e := New(CodeTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
	e.Cause = cause
	e.Details = map[string]int64{"limit_bytes": limit}
	return e
}

func getStatusCode(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeParse:
		return http.StatusBadRequest
	case CodeSchema, CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// SchemaError reports required columns that are still missing after header
// mapping. Observed holds the headers exactly as they appeared in the file.
type SchemaError struct {
	Missing  []string
	Observed []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns %q (found %q)", e.Missing, e.Observed)
}

// ParseError means the upload could not be decoded at all.
type ParseError struct {
	Source string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// InsufficientDataError is a recoverable shortfall: too few points to
// forecast, or nothing left to evaluate after filtering.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Reason
}

func InsufficientData(reason string) *InsufficientDataError {
	return &InsufficientDataError{Reason: reason}
}

func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return stderrors.As(err, &target)
}

// FromDomain converts pipeline errors into AppErrors for the HTTP layer.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var schemaErr *SchemaError
	if stderrors.As(err, &schemaErr) {
		e := Wrap(err, CodeSchema, "required columns are missing")
		e.Details = map[string][]string{
			"missing":  schemaErr.Missing,
			"observed": schemaErr.Observed,
		}
		return e
	}

	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		e := Wrap(err, CodeParse, "file could not be parsed")
		if parseErr.Cause != nil {
			e.Details = parseErr.Cause.Error()
		}
		return e
	}

	var insufficient *InsufficientDataError
	if stderrors.As(err, &insufficient) {
		return Wrap(err, CodeInsufficientData, insufficient.Reason)
	}

	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return TooLarge(maxBytes.Limit, err)
	}

	return Wrap(err, CodeInternal, "An unexpected error occurred")
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	appErr := FromDomain(err)
	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := ErrorResponse{
		Error:   appErr,
		Success: false,
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	logLevel := slog.LevelError
	if appErr.StatusCode < 500 {
		logLevel = slog.LevelWarn
	}

	logger.Log(context.Background(), logLevel, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := SuccessResponse{
		Data:    data,
		Success: true,
	}

	json.NewEncoder(w).Encode(response)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
