package extractor

import (
	"fmt"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML        ExtractionErrorCause = "not html"
	ErrCauseMissingElement ExtractionErrorCause = "missing element"
	ErrCauseNoContent      ExtractionErrorCause = "no content"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("extraction error: %s", e.Cause)
	}
	return fmt.Sprintf("extraction error: %s: %s", e.Cause, e.Message)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func missingElement(format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
		Cause:     ErrCauseMissingElement,
	}
}

// MapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNoContent, ErrCauseMissingElement, ErrCauseNotHTML:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
