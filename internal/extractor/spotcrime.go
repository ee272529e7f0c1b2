package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/urlutil"
)

/*
Site extractors

Pure functions over a raw page and the site base URL.
- Document order is preserved.
- Anchor text is trimmed and lower-cased where it is used as a lookup key.
- Hrefs are made absolute by prefixing the base URL.
- A page that lacks the expected structure yields an ExtractionError
  with ErrCauseMissingElement; nothing here panics on bad input.
*/

func parse(content []byte) (*goquery.Document, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return doc, nil
}

func anchorText(a *goquery.Selection) string {
	return strings.TrimSpace(a.Text())
}

// StateIndex reads the state dropdown of the home page.
func StateIndex(content []byte, base string) ([]Link, failure.ClassifiedError) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	menu := doc.Find(stateMenuSelector).First()
	if menu.Length() == 0 {
		return nil, missingElement("no %s on page", stateMenuSelector)
	}

	var links []Link
	var extractErr failure.ClassifiedError
	menu.ChildrenFiltered("li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		a := li.Find("a").First()
		if a.Length() == 0 {
			extractErr = missingElement("state entry %d has no anchor", i)
			return false
		}
		href, ok := a.Attr("href")
		if !ok {
			extractErr = missingElement("state entry %d has no href", i)
			return false
		}
		links = append(links, Link{
			Name: strings.ToLower(anchorText(a)),
			URL:  urlutil.Absolutize(base, href),
		})
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return links, nil
}

// CityIndex reads the city table of a state page. Keys look like
// "ann arbor daily crime reports": the city name followed by the info type.
func CityIndex(content []byte, base string) ([]Link, failure.ClassifiedError) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	table := doc.Find(crimeTableSelector).First()
	if table.Length() == 0 {
		return nil, missingElement("no city table on page")
	}

	var links []Link
	table.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := anchorText(a)
		if text == "" {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		links = append(links, Link{
			Name: strings.ToLower(text),
			URL:  urlutil.Absolutize(base, href),
		})
	})
	return links, nil
}

// CrimeLabels returns the period labels listed on a city's daily crime page.
func CrimeLabels(content []byte) ([]string, failure.ClassifiedError) {
	periods, err := Periods(content, "")
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(periods))
	for i, period := range periods {
		labels[i] = period.Label
	}
	return labels, nil
}

// Periods returns each period label together with the URL of its record table.
func Periods(content []byte, base string) ([]Period, failure.ClassifiedError) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	row := doc.Find(labelRowSelector).First()
	if row.Length() == 0 {
		return nil, missingElement("no %s on page", labelRowSelector)
	}

	var periods []Period
	var extractErr failure.ClassifiedError
	row.Find("li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		a := li.Find("a").First()
		if a.Length() == 0 {
			extractErr = missingElement("period %d has no anchor", i)
			return false
		}
		href, _ := a.Attr("href")
		period := Period{Label: anchorText(a)}
		if base != "" {
			period.URL = urlutil.Absolutize(base, href)
		}
		periods = append(periods, period)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return periods, nil
}

// CrimeRecords reads the record table of one period page. Rows without
// cells (header rows) are skipped.
func CrimeRecords(content []byte, base string) ([]CrimeRecord, failure.ClassifiedError) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	table := doc.Find(crimeTableSelector).First()
	if table.Length() == 0 {
		return nil, missingElement("no crime table on page")
	}

	var records []CrimeRecord
	var extractErr failure.ClassifiedError
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return true
		}
		if cells.Length() < 5 {
			extractErr = missingElement("row %d has %d cells, want 5", i, cells.Length())
			return false
		}
		a := cells.Eq(4).Find("a").First()
		href, ok := a.Attr("href")
		if a.Length() == 0 || !ok {
			extractErr = missingElement("row %d has no detail link", i)
			return false
		}
		records = append(records, CrimeRecord{
			Category: strings.TrimSpace(cells.Eq(1).Text()),
			Date:     strings.TrimSpace(cells.Eq(2).Text()),
			Address:  strings.TrimSpace(cells.Eq(3).Text()),
			Link:     urlutil.Absolutize(base, href),
		})
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return records, nil
}
