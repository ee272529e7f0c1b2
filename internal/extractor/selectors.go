package extractor

// Selectors for the SpotCrime page layout.
const (
	stateMenuSelector  = ".dropdown-menu"
	crimeTableSelector = "table.table.table-condensed.table-striped.table-hover.text-left"
	labelRowSelector   = ".row"
)

// KnownDetailSelectors are tried, in order, after the semantic containers
// when isolating the body of a crime detail page.
//
//nolint:gochecknoglobals // This is a static lookup table that must be global
var KnownDetailSelectors = []string{
	".crime-detail",
	"#crime-detail",
	".incident",
	".container .main-content",
	".container .col-md-8",
	".content",
}

// mergeSelectors combines default selectors with user-provided custom selectors,
// deduplicating to ensure each selector appears only once.
func mergeSelectors(defaultSelectors, customSelectors []string) []string {
	seen := make(map[string]bool)
	var merged []string

	for _, selector := range defaultSelectors {
		if !seen[selector] {
			seen[selector] = true
			merged = append(merged, selector)
		}
	}

	for _, selector := range customSelectors {
		if selector != "" && !seen[selector] {
			seen[selector] = true
			merged = append(merged, selector)
		}
	}

	return merged
}
