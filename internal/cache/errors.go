package cache

import (
	"fmt"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseReadFailure   CacheErrorCause = "read failure"
	ErrCauseDecodeFailure CacheErrorCause = "decode failure"
	ErrCauseEncodeFailure CacheErrorCause = "encode failure"
	ErrCauseWriteFailure  CacheErrorCause = "write failure"
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s: %s", e.Cause, e.Message)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapCacheErrorToMetadataCause maps cache-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseReadFailure, ErrCauseWriteFailure:
		return metadata.CauseStorageFailure
	case ErrCauseDecodeFailure, ErrCauseEncodeFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
