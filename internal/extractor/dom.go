package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse a crime detail page into a DOM tree
- Isolate the incident description
- Leave site chrome behind

Extraction Strategy
- Priority order:
	- Semantic containers (main, article, [role=main])
	- Known detail selectors, then custom selectors
	- The whole body, if it is meaningful
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
	selectors    []string
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
	customSelectors ...string,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
		selectors:    mergeSelectors(KnownDetailSelectors, customSelectors),
	}
}

func (d *DomExtractor) Extract(
	sourceUrl url.URL,
	htmlByte []byte,
) (ExtractionResult, failure.ClassifiedError) {
	result, err := d.extract(htmlByte)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.Extract",
			MapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
			},
		)
		return ExtractionResult{}, extractionError
	}
	return result, nil
}

func (d *DomExtractor) extract(htmlByte []byte) (ExtractionResult, error) {
	doc, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return ExtractionResult{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	if !hasMarkup(htmlByte) {
		return ExtractionResult{}, &ExtractionError{
			Message:   "input is not an HTML document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	contentNode := d.findContent(doc)
	if contentNode == nil {
		return ExtractionResult{}, &ExtractionError{
			Message:   "no meaningful content container found",
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}

	return ExtractionResult{
		DocumentRoot: doc,
		ContentNode:  contentNode,
	}, nil
}

// hasMarkup rejects plain text and XML. html.Parse accepts anything and
// synthesizes <html>, so the check runs on the raw bytes.
func hasMarkup(htmlByte []byte) bool {
	trimmed := strings.ToLower(strings.TrimSpace(string(htmlByte)))
	if strings.HasPrefix(trimmed, "<?xml") {
		return false
	}
	return strings.HasPrefix(trimmed, "<")
}

func (d *DomExtractor) findContent(doc *html.Node) *html.Node {
	gqDoc := goquery.NewDocumentFromNode(doc)

	candidates := append([]string{"main", "article", "[role='main']"}, d.selectors...)
	for _, selector := range candidates {
		if sel := gqDoc.Find(selector).First(); sel.Length() > 0 {
			if node := sel.Nodes[0]; isMeaningful(node) {
				return node
			}
		}
	}

	if body := gqDoc.Find("body").First(); body.Length() > 0 {
		if node := body.Nodes[0]; isMeaningful(node) {
			return node
		}
	}

	return nil
}

// isMeaningful checks if a node carries an incident description rather than
// navigation. A node is meaningful if it has enough non-whitespace text and
// at least one paragraph, table, definition list or heading, and its text
// is not dominated by links.
func isMeaningful(node *html.Node) bool {
	if node == nil {
		return false
	}

	var stats struct {
		textLength     int
		nonWhitespace  int
		blocks         int
		links          int
		linkTextLength int
	}

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inLink bool) {
		switch n.Type {
		case html.TextNode:
			stats.textLength += len(n.Data)
			for _, r := range n.Data {
				if !unicode.IsSpace(r) {
					stats.nonWhitespace++
				}
			}
			if inLink {
				stats.linkTextLength += len(strings.TrimSpace(n.Data))
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "p", "table", "dl", "h1", "h2", "h3", "h4", "h5", "h6":
				stats.blocks++
			case "a":
				stats.links++
				inLink = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLink)
		}
	}
	walk(node, false)

	const minNonWhitespace = 20
	const maxLinkDensity = 0.8

	if stats.nonWhitespace < minNonWhitespace {
		return false
	}
	if stats.textLength > 0 {
		linkDensity := float64(stats.linkTextLength) / float64(stats.textLength)
		if linkDensity > maxLinkDensity && stats.links > 2 {
			return false
		}
	}
	return stats.blocks > 0
}
