/*
Responsibilities
- Drop non-content elements (scripts, styles, forms, embeds)
- Remove empty or duplicate nodes

This stage ensures downstream Markdown conversion is deterministic.
It mutates the extracted content node in place.
*/
package sanitizer

import (
	"time"

	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"golang.org/x/net/html"
)

type HtmlSanitizer struct {
	metadataSink metadata.MetadataSink
}

func NewHTMLSanitizer(metadataSink metadata.MetadataSink) HtmlSanitizer {
	return HtmlSanitizer{
		metadataSink: metadataSink,
	}
}

func (h *HtmlSanitizer) Sanitize(
	extraction extractor.ExtractionResult,
) (SanitizedHTMLDoc, failure.ClassifiedError) {
	sanitizedHtmlDoc, err := sanitize(extraction.ContentNode)
	if err != nil {
		h.metadataSink.RecordError(
			time.Now(),
			"sanitizer",
			"HtmlSanitizer.Sanitize",
			mapSanitizationErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, err.Message),
			},
		)
		return SanitizedHTMLDoc{}, err
	}
	return sanitizedHtmlDoc, nil
}

func sanitize(contentNode *html.Node) (SanitizedHTMLDoc, *SanitizationError) {
	if contentNode == nil || contentNode.Type != html.ElementNode {
		return SanitizedHTMLDoc{}, &SanitizationError{
			Message:   "content node is missing or not an element",
			Retryable: false,
			Cause:     ErrCauseBrokenDOM,
		}
	}

	removeDroppedElements(contentNode)
	for _, child := range childrenOf(contentNode) {
		removeEmptyNodesBottomUp(child)
	}
	removeDuplicateNodes(contentNode)

	if isEmptyNode(contentNode) {
		return SanitizedHTMLDoc{}, &SanitizationError{
			Message:   "nothing left after sanitization",
			Retryable: false,
			Cause:     ErrCauseEmptyContent,
		}
	}

	return NewSanitizedHTMLDoc(contentNode), nil
}
