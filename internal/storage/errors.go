package storage

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type StorageErrorCause string

const (
	ErrCauseOpenFailure   StorageErrorCause = "open failed"
	ErrCauseSchemaFailure StorageErrorCause = "schema failed"
	ErrCauseDiskFull      StorageErrorCause = "disk is full"
	ErrCauseBusy          StorageErrorCause = "database is busy"
	ErrCauseWriteFailure  StorageErrorCause = "write failed"
	ErrCauseReadFailure   StorageErrorCause = "read failed"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Table     string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %s", e.Cause, e.Message)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// classify turns a database/sql error into a StorageError, promoting
// SQLITE_FULL and SQLITE_BUSY to their own causes.
func classify(err error, fallback StorageErrorCause, table string) *StorageError {
	cause := fallback
	retryable := false

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_FULL:
			cause = ErrCauseDiskFull
			retryable = true
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			cause = ErrCauseBusy
			retryable = true
		}
	}

	return &StorageError{
		Message:   err.Error(),
		Retryable: retryable,
		Cause:     cause,
		Table:     table,
	}
}

// mapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOpenFailure, ErrCauseSchemaFailure, ErrCauseDiskFull,
		ErrCauseBusy, ErrCauseWriteFailure, ErrCauseReadFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
