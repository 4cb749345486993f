// Package errors defines the error taxonomy shared by the inference pipelines.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies the class of a pipeline failure.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeDecodeError      ErrorCode = "DECODE_ERROR"
	ErrCodeDegenerateScaler ErrorCode = "DEGENERATE_SCALER"
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeInferenceFailed  ErrorCode = "INFERENCE_FAILED"
)

// PipelineError is a structured failure raised by any pipeline stage.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches another *PipelineError by code, so errors.Is(err, InvalidInput("")) works.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func InvalidInput(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func DecodeError(cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: ErrCodeDecodeError, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func DegenerateScaler(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: ErrCodeDegenerateScaler, Message: fmt.Sprintf(format, args...)}
}

func ModelUnavailable(cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: ErrCodeModelUnavailable, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func InferenceFailed(cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: ErrCodeInferenceFailed, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf returns the code of the first PipelineError in err's chain, or
// ErrCodeInferenceFailed for anything unclassified.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInferenceFailed
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	return stderrors.As(err, &pe) && pe.Code == code
}
