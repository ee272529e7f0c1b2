package scheduler

import (
	"strings"

	"github.com/rohmanhakim/spotcrime/internal/extractor"
)

type InfoType string

const (
	InfoCrimeMap          InfoType = "crime map"
	InfoMostWanted        InfoType = "most wanted"
	InfoDailyCrimeReports InfoType = "daily crime reports"
)

// InfoTypes lists the supported info types in menu order.
var InfoTypes = []InfoType{InfoCrimeMap, InfoMostWanted, InfoDailyCrimeReports}

// ParseInfoType matches s case-insensitively against the supported info types.
func ParseInfoType(s string) (InfoType, bool) {
	normalized := InfoType(strings.ToLower(strings.TrimSpace(s)))
	for _, infoType := range InfoTypes {
		if normalized == infoType {
			return infoType, true
		}
	}
	return "", false
}

// opensURL reports whether the info type is answered by pointing the user at a page.
func (i InfoType) opensURL() bool {
	return i == InfoCrimeMap || i == InfoMostWanted
}

// Query is one user request. State, City and InfoType are matched
// case-insensitively. Amount is only used for daily crime reports.
type Query struct {
	State    string
	City     string
	InfoType string
	Amount   int
}

type OutcomeKind int

const (
	OutcomeOpenURL OutcomeKind = iota
	OutcomeReport
)

// QueryOutcome is either a URL to open or a Report.
type QueryOutcome struct {
	Kind   OutcomeKind
	URL    string
	Report *Report
}

// Report is the result of a daily crime reports query.
type Report struct {
	QueryID string
	State   string
	City    string
	Amount  int
	Periods []PeriodReport
	Chart   ChartData
}

// TotalRecords sums the records across all periods.
func (r *Report) TotalRecords() int {
	total := 0
	for _, period := range r.Periods {
		total += len(period.Records)
	}
	return total
}

type PeriodReport struct {
	Label   string
	URL     string
	Records []extractor.CrimeRecord
}

// ChartData holds parallel label and count sequences, one entry per period.
type ChartData struct {
	Labels []string
	Counts []int
}

// StateOption is a state as offered by the interactive prompts.
type StateOption struct {
	Name string
	URL  string
}
