package sanitizer

import (
	"golang.org/x/net/html"
)

type SanitizedHTMLDoc struct {
	contentNode *html.Node
}

func (s *SanitizedHTMLDoc) GetContentNode() *html.Node {
	return s.contentNode
}

// NewSanitizedHTMLDoc creates a SanitizedHTMLDoc for testing purposes.
// The fields remain private to maintain immutability.
func NewSanitizedHTMLDoc(contentNode *html.Node) SanitizedHTMLDoc {
	return SanitizedHTMLDoc{
		contentNode: contentNode,
	}
}
