package extractor

import "golang.org/x/net/html"

// ExtractionResult holds the detail page extraction outcome.
// DocumentRoot is the original parsed HTML document.
// ContentNode is the extracted meaningful content node.
type ExtractionResult struct {
	DocumentRoot *html.Node
	ContentNode  *html.Node
}

// Link is one row of an index page: the lower-cased anchor text and the
// absolute URL it points to.
type Link struct {
	Name string
	URL  string
}

// Period is one reporting period (a daily blotter) of a city.
type Period struct {
	Label string
	URL   string
}

// CrimeRecord is one parsed incident row. The order cell is not kept.
type CrimeRecord struct {
	Category string
	Date     string
	Address  string
	Link     string
}

// IndexMap turns links into a name -> URL lookup. Later duplicates win.
func IndexMap(links []Link) map[string]string {
	index := make(map[string]string, len(links))
	for _, link := range links {
		index[link.Name] = link.URL
	}
	return index
}
