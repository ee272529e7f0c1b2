package metadata_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_RecordErrorWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "info")

	recorder.RecordError(
		time.Date(2020, 4, 14, 0, 0, 0, 0, time.UTC),
		"fetcher",
		"HtmlFetcher.Fetch",
		metadata.CauseNetworkFailure,
		"fetcher error: network issues",
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, "https://www.spotcrime.com/mi")},
	)

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "network_failure")
	assert.Contains(t, out, "https://www.spotcrime.com/mi")
	assert.Contains(t, out, "HtmlFetcher.Fetch")
}

func TestRecorder_DebugEventsHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "info")

	recorder.RecordCacheLookup("https://www.spotcrime.com", true)

	assert.Empty(t, buf.String())
}

func TestRecorder_DebugEventsShownAtDebug(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "debug")

	recorder.RecordCacheLookup("https://www.spotcrime.com", true)
	recorder.RecordCacheLookup("https://www.spotcrime.com/oh", false)

	out := buf.String()
	assert.Contains(t, out, "using cache")
	assert.Contains(t, out, "cache miss, fetching")
}

func TestRecorder_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "chatty")

	recorder.RecordCacheLookup("k", true)
	recorder.RecordFinalQueryStats("q-1", 2, 7, 3, 0, 1500*time.Millisecond)

	out := buf.String()
	assert.NotContains(t, out, "using cache")
	assert.Contains(t, out, "query finished")
	assert.Contains(t, out, "q-1")
}

func TestErrorCauseString(t *testing.T) {
	assert.Equal(t, "lookup_failure", metadata.CauseLookupFailure.String())
	assert.Equal(t, "unknown", metadata.ErrorCause(99).String())
}
