package mdconvert

// Representation

type ConversionResult struct {
	markdownContent []byte
	linkRefs        []LinkRef
}

func NewConversionResult(
	markdownContent []byte,
	linkRefs []LinkRef,
) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
		linkRefs:        linkRefs,
	}
}

func (c *ConversionResult) GetMarkdownContent() []byte {
	return c.markdownContent
}

func (c *ConversionResult) GetLinkRefs() []LinkRef {
	return c.linkRefs
}

type LinkKind string

const (
	KindNavigation LinkKind = "navigation"
	KindImage      LinkKind = "image"
	KindAnchor     LinkKind = "anchor"
)

// LinkRef is a link found in the converted content. Raw is the href as
// written in the page; Resolved is Raw made absolute against the site base.
type LinkRef struct {
	raw      string
	resolved string
	kind     LinkKind
}

func NewLinkRef(
	raw string,
	resolved string,
	kind LinkKind,
) LinkRef {
	return LinkRef{
		raw:      raw,
		resolved: resolved,
		kind:     kind,
	}
}

func (l *LinkRef) GetRaw() string {
	return l.raw
}

func (l *LinkRef) GetResolved() string {
	return l.resolved
}

func (l *LinkRef) GetKind() LinkKind {
	return l.kind
}
