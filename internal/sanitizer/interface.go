package sanitizer

import (
	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

// Sanitizer defines the interface for HTML sanitization.
// Implementations must leave only content nodes, in a deterministic order.
type Sanitizer interface {
	Sanitize(extraction extractor.ExtractionResult) (SanitizedHTMLDoc, failure.ClassifiedError)
}

// Compile-time interface check
var _ Sanitizer = (*HtmlSanitizer)(nil)
