package sanitizer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// mockMetadataSink is a test double for metadata.MetadataSink
type mockMetadataSink struct {
	metadata.NoopSink
	causes []metadata.ErrorCause
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.causes = append(m.causes, cause)
}

func extractionOf(t *testing.T, fragment string) extractor.ExtractionResult {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(`<html><body><div class="crime-detail">` + fragment + `</div></body></html>`))
	require.NoError(t, err)

	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "div" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return extractor.ExtractionResult{DocumentRoot: doc, ContentNode: find(doc)}
}

func render(t *testing.T, doc sanitizer.SanitizedHTMLDoc) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, doc.GetContentNode()))
	return buf.String()
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			name:     "drops scripts styles and forms",
			fragment: `<h1>Theft</h1><script>track()</script><style>p{}</style><form><input name="q"></form><!-- ad -->`,
			want:     `<div class="crime-detail"><h1>Theft</h1></div>`,
		},
		{
			name:     "removes nested empty containers",
			fragment: `<p>Bicycle taken.</p><div><span> </span><div></div></div>`,
			want:     `<div class="crime-detail"><p>Bicycle taken.</p></div>`,
		},
		{
			name:     "keeps void elements and empty cells",
			fragment: `<p>a<br>b</p><table><tbody><tr><th>Date</th><td></td></tr></tbody></table>`,
			want:     `<div class="crime-detail"><p>a<br/>b</p><table><tbody><tr><th>Date</th><td></td></tr></tbody></table></div>`,
		},
		{
			name:     "removes duplicate siblings",
			fragment: `<p>Share this report</p><h2>Theft</h2><p>Share this report</p>`,
			want:     `<div class="crime-detail"><p>Share this report</p><h2>Theft</h2></div>`,
		},
		{
			name:     "keeps repeated list items",
			fragment: `<ul><li>x</li><li>x</li></ul>`,
			want:     `<div class="crime-detail"><ul><li>x</li><li>x</li></ul></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sanitizer.NewHTMLSanitizer(&mockMetadataSink{})

			doc, err := s.Sanitize(extractionOf(t, tt.fragment))

			require.Nil(t, err)
			assert.Equal(t, tt.want, render(t, doc))
		})
	}
}

func TestSanitize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		extraction func(t *testing.T) extractor.ExtractionResult
		wantCause  sanitizer.SanitizationErrorCause
	}{
		{
			name:       "nil content node",
			extraction: func(t *testing.T) extractor.ExtractionResult { return extractor.ExtractionResult{} },
			wantCause:  sanitizer.ErrCauseBrokenDOM,
		},
		{
			name: "nothing left",
			extraction: func(t *testing.T) extractor.ExtractionResult {
				return extractionOf(t, `<script>only()</script><div> </div>`)
			},
			wantCause: sanitizer.ErrCauseEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &mockMetadataSink{}
			s := sanitizer.NewHTMLSanitizer(sink)

			_, err := s.Sanitize(tt.extraction(t))

			var sanitizationErr *sanitizer.SanitizationError
			require.ErrorAs(t, err, &sanitizationErr)
			assert.Equal(t, tt.wantCause, sanitizationErr.Cause)
			assert.Equal(t, []metadata.ErrorCause{metadata.CauseContentInvalid}, sink.causes)
		})
	}
}
