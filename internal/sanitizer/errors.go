package sanitizer

import (
	"fmt"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

type SanitizationErrorCause string

const (
	ErrCauseBrokenDOM    SanitizationErrorCause = "broken dom"
	ErrCauseEmptyContent SanitizationErrorCause = "empty content"
)

type SanitizationError struct {
	Message   string
	Retryable bool
	Cause     SanitizationErrorCause
}

func (e *SanitizationError) Error() string {
	return fmt.Sprintf("sanitization error: %s", e.Cause)
}

func (e *SanitizationError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapSanitizationErrorToMetadataCause maps sanitizer-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSanitizationErrorToMetadataCause(err *SanitizationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseBrokenDOM, ErrCauseEmptyContent:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
