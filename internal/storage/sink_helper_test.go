package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/storage"
	"github.com/stretchr/testify/require"
)

// metadataSinkMock is a mock for metadata.MetadataSink
type metadataSinkMock struct {
	metadata.NoopSink
	recordErrorCalled    bool
	recordErrorAction    string
	recordErrorCause     metadata.ErrorCause
	recordArtifactCalled int
	recordArtifactAttrs  []metadata.Attribute
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.recordErrorCalled = true
	m.recordErrorAction = action
	m.recordErrorCause = cause
}

func (m *metadataSinkMock) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
	m.recordArtifactCalled++
	m.recordArtifactAttrs = attrs
}

func openTestSink(t *testing.T) (*storage.SQLiteSink, *metadataSinkMock) {
	t.Helper()
	sink := &metadataSinkMock{}
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "Spotcrime.sqlite"), sink)
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, sink
}
