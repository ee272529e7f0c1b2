package extractor_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// mockMetadataSink is a test spy that captures recorded errors
type mockMetadataSink struct {
	metadata.NoopSink
	errors []recordedError
}

type recordedError struct {
	PackageName string
	Action      string
	Cause       metadata.ErrorCause
	ErrorString string
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	errorString string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		PackageName: packageName,
		Action:      action,
		Cause:       cause,
		ErrorString: errorString,
	})
}

func setupExtractor(custom ...string) (*extractor.DomExtractor, *mockMetadataSink) {
	sink := &mockMetadataSink{}
	ext := extractor.NewDomExtractor(sink, custom...)
	return &ext, sink
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func hasClass(node *html.Node, class string) bool {
	for _, attr := range node.Attr {
		if attr.Key == "class" && attr.Val == class {
			return true
		}
	}
	return false
}

func TestExtract_DetailSelector(t *testing.T) {
	ext, sink := setupExtractor()

	result, err := ext.Extract(mustParseURL(t, testBase+"/crime/123456-theft"), loadFixture(t, "detail.html"))

	require.Nil(t, err)
	require.NotNil(t, result.ContentNode)
	assert.True(t, hasClass(result.ContentNode, "crime-detail"))
	assert.Empty(t, sink.errors)
}

func TestExtract_MainWins(t *testing.T) {
	ext, _ := setupExtractor()
	page := []byte(`<html><body><main><h1>Robbery</h1><p>Suspect fled on foot toward the river.</p></main>
		<div class="crime-detail"><p>older markup that should not be chosen</p></div></body></html>`)

	result, err := ext.Extract(mustParseURL(t, testBase+"/crime/1"), page)

	require.Nil(t, err)
	assert.Equal(t, "main", result.ContentNode.Data)
}

func TestExtract_CustomSelector(t *testing.T) {
	ext, _ := setupExtractor("#incident-body")
	page := []byte(`<html><body><nav><a href="/">a</a><a href="/b">b</a><a href="/c">c</a></nav>
		<section id="incident-body"><p>Vehicle broken into overnight, window smashed.</p></section></body></html>`)

	result, err := ext.Extract(mustParseURL(t, testBase+"/crime/2"), page)

	require.Nil(t, err)
	assert.Equal(t, "section", result.ContentNode.Data)
}

func TestExtract_NavigationOnlyHasNoContent(t *testing.T) {
	ext, sink := setupExtractor()
	page := []byte(`<html><body><nav><a href="/">Home page link</a><a href="/mi">Michigan state link</a><a href="/oh">Ohio state link</a></nav></body></html>`)

	_, err := ext.Extract(mustParseURL(t, testBase+"/crime/3"), page)

	var extractionErr *extractor.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, extractor.ErrCauseNoContent, extractionErr.Cause)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, "extractor", sink.errors[0].PackageName)
	assert.Equal(t, metadata.CauseContentInvalid, sink.errors[0].Cause)
}

func TestExtract_NotHTML(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"xml", `<?xml version="1.0"?><feed><entry>x</entry></feed>`},
		{"plain text", "just some words about a theft"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, _ := setupExtractor()
			_, err := ext.Extract(mustParseURL(t, testBase), []byte(tt.body))

			var extractionErr *extractor.ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			assert.Equal(t, extractor.ErrCauseNotHTML, extractionErr.Cause)
		})
	}
}
