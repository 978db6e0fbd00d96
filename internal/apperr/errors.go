package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies pipeline failures so the HTTP layer and logs can treat
// them uniformly without string matching.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindEmptyDocument    Kind = "empty_document"
	KindExtraction       Kind = "extraction_error"
	KindModelUnavailable Kind = "model_unavailable"
	KindPersistence      Kind = "persistence_error"
	KindUnexpected       Kind = "unexpected_error"
)

// Error is the typed error carried through the analysis pipeline.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a client-side input problem (missing file, bad extension).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// EmptyDocument reports that extraction produced no usable text.
func EmptyDocument(format string, args ...any) *Error {
	return &Error{Kind: KindEmptyDocument, Msg: fmt.Sprintf(format, args...)}
}

// Extraction wraps a parse failure of the uploaded byte stream.
func Extraction(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExtraction, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ModelUnavailable reports that a mandatory language model failed to
// initialize. This only surfaces at startup, never per request.
func ModelUnavailable(err error, format string, args ...any) *Error {
	return &Error{Kind: KindModelUnavailable, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Persistence wraps a result store failure.
func Persistence(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Unexpected wraps anything that escaped the typed categories.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: "internal error", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps an error to the response status per the service contract:
// validation and extraction problems are client errors, everything else is a
// server error.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindEmptyDocument, KindExtraction:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the client-facing message for err. Wrapped causes are
// included for extraction failures so callers can see why parsing failed.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil && (e.Kind == KindExtraction || e.Kind == KindUnexpected) {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return e.Msg
	}
	return err.Error()
}
