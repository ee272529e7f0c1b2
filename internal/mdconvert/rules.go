package mdconvert

import (
	"errors"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/sanitizer"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Headings map directly (h1-h6 to # - ######)
- Tables converted structurally (GFM)
- Links keep their href; site-relative hrefs are made absolute
- DOM order preserved
*/

// ConvertRule turns the sanitized content of a crime detail page into Markdown.
type ConvertRule interface {
	Convert(baseURL string, sanitizedHTMLDoc sanitizer.SanitizedHTMLDoc) (ConversionResult, failure.ClassifiedError)
}

var _ ConvertRule = (*StrictConversionRule)(nil)

type StrictConversionRule struct {
	metadataSink metadata.MetadataSink
}

func NewRule(metadataSink metadata.MetadataSink) *StrictConversionRule {
	return &StrictConversionRule{
		metadataSink: metadataSink,
	}
}

func (s *StrictConversionRule) Convert(
	baseURL string,
	sanitizedHTMLDoc sanitizer.SanitizedHTMLDoc,
) (ConversionResult, failure.ClassifiedError) {
	conversionResult, err := convert(baseURL, sanitizedHTMLDoc.GetContentNode())
	if err != nil {
		var conversionError *ConversionError
		errors.As(err, &conversionError)

		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"StrictConversionRule.Convert",
			mapConversionErrorToMetadataCause(conversionError),
			err.Error(),
			[]metadata.Attribute{},
		)
		return ConversionResult{}, conversionError
	}
	return conversionResult, nil
}

// convert is a pure function over the content node. It rewrites relative
// hrefs and renders Markdown.
func convert(baseURL string, contentNode *html.Node) (ConversionResult, *ConversionError) {
	if contentNode == nil {
		return ConversionResult{}, &ConversionError{
			Message:   "cannot convert nil HTML node",
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	doc := goquery.NewDocumentFromNode(contentNode)
	linkRefs := extractLinkRefs(baseURL, doc)

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertNode(contentNode)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult(markdown, linkRefs), nil
}

// extractLinkRefs collects anchors and images in document order and
// rewrites site-relative hrefs in place so the Markdown carries absolute links.
func extractLinkRefs(baseURL string, doc *goquery.Document) []LinkRef {
	var linkRefs []LinkRef

	doc.Find("a[href], img[src]").Each(func(i int, s *goquery.Selection) {
		tagName := goquery.NodeName(s)
		attr := "href"
		if tagName == "img" {
			attr = "src"
		}
		raw, exists := s.Attr(attr)
		if !exists {
			return
		}
		ref := toLinkRef(baseURL, tagName, raw)
		if ref.resolved != raw {
			s.SetAttr(attr, ref.resolved)
		}
		linkRefs = append(linkRefs, ref)
	})

	return linkRefs
}

// toLinkRef classifies a link by tag and URL pattern.
func toLinkRef(baseURL, tagName, raw string) LinkRef {
	tagName = strings.ToLower(tagName)

	var kind LinkKind
	switch tagName {
	case "img":
		kind = KindImage
	case "a":
		if strings.HasPrefix(raw, "#") {
			kind = KindAnchor
		} else {
			kind = KindNavigation
		}
	default:
		kind = KindNavigation
	}

	resolved := raw
	if kind != KindAnchor && baseURL != "" && !strings.HasPrefix(raw, "mailto:") && !strings.HasPrefix(raw, "tel:") {
		resolved = urlutil.Absolutize(baseURL, raw)
	}

	return NewLinkRef(raw, resolved, kind)
}
