// Package apperr defines the error kinds of the screening pipeline.
//
// Every failure leaving a pipeline stage is an *Error carrying one of the
// sentinel kinds below, so callers can branch with errors.Is on the kind
// while still unwrapping to the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	ErrExtraction         = errors.New("document extraction failed")
	ErrSimilarity         = errors.New("similarity scoring failed")
	ErrReportGeneration   = errors.New("report generation failed")
	ErrInvariantViolation = errors.New("score invariant violated")
	ErrStorageWrite       = errors.New("storage write failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfig             = errors.New("invalid configuration")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error ties a kind to the operation that failed and its cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an error of the given kind without a cause.
func New(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches a kind to err. It returns nil when err is nil.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf builds an error of the given kind from a format string.
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the first known kind found in err's chain, or nil.
// Timeout is checked first so a timed out report call is reported as a timeout.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{
		ErrTimeout,
		ErrExtraction,
		ErrSimilarity,
		ErrReportGeneration,
		ErrInvariantViolation,
		ErrStorageWrite,
		ErrConfig,
		ErrNotFound,
		ErrInvalidInput,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message maps an error to the message shown to the candidate.
func Message(err error) string {
	switch KindOf(err) {
	case ErrTimeout:
		return "The evaluation service took too long to respond. Please submit your application again in a few minutes."
	case ErrExtraction:
		return "We could not read your resume. Please upload a text-based PDF that is not password protected."
	case ErrSimilarity:
		return "We could not compare your resume with the job description. Please try again later."
	case ErrReportGeneration:
		return "The AI evaluation could not be generated. Your application was not saved, please try again."
	case ErrInvariantViolation:
		return "Your application produced an invalid score and was not saved. Our team has been notified."
	case ErrStorageWrite:
		return "Your scores were computed but could not be saved. Please try again."
	case ErrConfig:
		return "The screening service is not configured correctly."
	case ErrNotFound:
		return "The requested job could not be found."
	case ErrInvalidInput:
		return "Some required fields are missing or invalid."
	default:
		return "Something went wrong while processing your application."
	}
}
