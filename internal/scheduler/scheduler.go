package scheduler

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/fetcher"
	"github.com/rohmanhakim/spotcrime/internal/mdconvert"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/sanitizer"
	"github.com/rohmanhakim/spotcrime/internal/storage"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/hashutil"
	"github.com/rohmanhakim/spotcrime/pkg/urlutil"
)

/*
 Scheduler is the sole control-plane authority of a query.

 - Steps run strictly in sequence: state index, state rows, city index,
   then either an OpenURL answer or the period pipeline.
 - Pipeline stages (fetcher, extractor, storage) classify failures but
   never decide to retry, continue or abort. The scheduler does.
 - A query returns an outcome or an error, never a partial report.

 Metadata emission is observational only and MUST NOT influence
 control flow.
*/

// PageSource is the fetch-or-cache surface the scheduler depends on.
type PageSource interface {
	FetchOrCached(ctx context.Context, rawURL string) (string, bool, failure.ClassifiedError)
	IndexOrCached(ctx context.Context, rawURL string, extract fetcher.IndexExtractor) (map[string]string, bool, failure.ClassifiedError)
	Stats() fetcher.Stats
}

type Scheduler struct {
	baseURL                string
	metadataSink           metadata.MetadataSink
	queryFinalizer         metadata.QueryFinalizer
	pages                  PageSource
	storageSink            storage.Sink
	domExtractor           extractor.DomExtractor
	htmlSanitizer          sanitizer.HtmlSanitizer
	markdownConversionRule mdconvert.ConvertRule
	newQueryID             func() string
	now                    func() time.Time
}

func NewScheduler(
	baseURL string,
	metadataSink metadata.MetadataSink,
	queryFinalizer metadata.QueryFinalizer,
	pages PageSource,
	storageSink storage.Sink,
) *Scheduler {
	return &Scheduler{
		baseURL:                strings.TrimRight(baseURL, "/"),
		metadataSink:           metadataSink,
		queryFinalizer:         queryFinalizer,
		pages:                  pages,
		storageSink:            storageSink,
		domExtractor:           extractor.NewDomExtractor(metadataSink),
		htmlSanitizer:          sanitizer.NewHTMLSanitizer(metadataSink),
		markdownConversionRule: mdconvert.NewRule(metadataSink),
		newQueryID:             uuid.NewString,
		now:                    time.Now,
	}
}

// SetQueryIDGenerator replaces the UUID generator. Used by tests.
func (s *Scheduler) SetQueryIDGenerator(gen func() string) {
	s.newQueryID = gen
}

func (s *Scheduler) BaseURL() string {
	return s.baseURL
}

// ResolveStates returns every state of the site, sorted by name.
func (s *Scheduler) ResolveStates(ctx context.Context) ([]StateOption, error) {
	index, err := s.stateIndex(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]StateOption, 0, len(index))
	for name, link := range index {
		options = append(options, StateOption{Name: name, URL: link})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Name < options[j].Name })
	return options, nil
}

// ResolveCityKeys returns the sorted "<city> <info type>" keys of a state.
func (s *Scheduler) ResolveCityKeys(ctx context.Context, state string) ([]string, error) {
	_, stateURL, err := s.resolveState(ctx, state)
	if err != nil {
		return nil, err
	}
	index, err := s.cityIndex(ctx, stateURL)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Labels returns the reporting periods of a city's daily crime reports.
// The interactive prompt uses it to bound the amount.
func (s *Scheduler) Labels(ctx context.Context, state string, city string) ([]extractor.Period, error) {
	_, stateURL, err := s.resolveState(ctx, state)
	if err != nil {
		return nil, err
	}
	cityURL, err := s.resolveCity(ctx, stateURL, city, InfoDailyCrimeReports)
	if err != nil {
		return nil, err
	}
	return s.periods(ctx, cityURL)
}

// ExecuteQuery runs one query end to end.
func (s *Scheduler) ExecuteQuery(ctx context.Context, query Query) (QueryOutcome, error) {
	startTime := s.now()
	statsBefore := s.pages.Stats()

	infoType, ok := ParseInfoType(query.InfoType)
	if !ok {
		return QueryOutcome{}, s.lookupFailed(LookupInfoType, query.InfoType)
	}

	// 1. State index
	states, err := s.stateIndex(ctx)
	if err != nil {
		return QueryOutcome{}, err
	}
	stateName := strings.ToLower(strings.TrimSpace(query.State))
	stateURL, ok := states[stateName]
	if !ok {
		return QueryOutcome{}, s.lookupFailed(LookupState, query.State)
	}

	// 2. State rows with stable IDs
	if err := s.storageSink.UpsertStates(ctx, stateRows(states)); err != nil {
		return QueryOutcome{}, err
	}

	// 3. City index
	cityURL, err := s.resolveCity(ctx, stateURL, query.City, infoType)
	if err != nil {
		return QueryOutcome{}, err
	}

	// 4. Branch on info type
	if infoType.opensURL() {
		return QueryOutcome{Kind: OutcomeOpenURL, URL: cityURL}, nil
	}

	report, err := s.dailyCrimeReports(ctx, query, stateName, cityURL)
	if err != nil {
		return QueryOutcome{}, err
	}

	stats := s.pages.Stats()
	s.queryFinalizer.RecordFinalQueryStats(
		report.QueryID,
		len(report.Periods),
		report.TotalRecords(),
		stats.LiveFetches-statsBefore.LiveFetches,
		stats.CacheHits-statsBefore.CacheHits,
		s.now().Sub(startTime),
	)

	return QueryOutcome{Kind: OutcomeReport, Report: report}, nil
}

func (s *Scheduler) dailyCrimeReports(ctx context.Context, query Query, stateName string, cityURL string) (*Report, error) {
	periods, err := s.periods(ctx, cityURL)
	if err != nil {
		return nil, err
	}

	if query.Amount < 1 || query.Amount > len(periods) {
		amountErr := &InvalidAmountError{Amount: query.Amount, Available: len(periods)}
		s.recordError("Scheduler.ExecuteQuery", metadata.CauseLookupFailure, amountErr, cityURL)
		return nil, amountErr
	}
	selected := periods[:query.Amount]

	// Every period is fetched and parsed before the first write, so a query
	// that fails on the network or on page shape leaves no rows behind.
	stateID := hashutil.StableID(stateName)
	report := &Report{
		State:   stateName,
		City:    strings.TrimSpace(query.City),
		Amount:  query.Amount,
		Periods: make([]PeriodReport, 0, len(selected)),
	}
	for _, period := range selected {
		content, _, fetchErr := s.pages.FetchOrCached(ctx, period.URL)
		if fetchErr != nil {
			return nil, fetchErr
		}

		records, extractErr := extractor.CrimeRecords([]byte(content), s.baseURL)
		if extractErr != nil {
			s.recordExtractionError("Scheduler.ExecuteQuery", extractErr, period.URL)
			return nil, extractErr
		}

		report.Periods = append(report.Periods, PeriodReport{
			Label:   period.Label,
			URL:     period.URL,
			Records: records,
		})
	}

	queryID := s.newQueryID()
	report.QueryID = queryID
	if err := s.storageSink.BeginQuery(ctx, storage.Query{
		ID:        queryID,
		State:     stateName,
		City:      strings.ToLower(strings.TrimSpace(query.City)),
		InfoType:  string(InfoDailyCrimeReports),
		Amount:    query.Amount,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	periodRows := make([]storage.Period, len(report.Periods))
	for i, period := range report.Periods {
		periodRows[i] = storage.Period{Label: period.Label, Link: period.URL}
	}
	periodIDs, err := s.storageSink.InsertPeriods(ctx, queryID, periodRows)
	if err != nil {
		return nil, err
	}

	for i, period := range report.Periods {
		rows := make([]storage.Record, len(period.Records))
		for j, record := range period.Records {
			rows[j] = storage.Record{
				Category: record.Category,
				Date:     record.Date,
				Address:  record.Address,
				Link:     record.Link,
				StateID:  stateID,
			}
		}
		if err := s.storageSink.InsertRecords(ctx, queryID, periodIDs[i], rows); err != nil {
			return nil, err
		}
	}

	aggregates, err := s.storageSink.PeriodAggregates(ctx, queryID)
	if err != nil {
		return nil, err
	}
	for _, agg := range aggregates {
		report.Chart.Labels = append(report.Chart.Labels, agg.Label)
		report.Chart.Counts = append(report.Chart.Counts, agg.Count)
	}

	return report, nil
}

// ReadDetail fetches (or reads from cache) a crime record's detail page and
// returns its main content as Markdown: extract, sanitize, convert. Only
// http(s) URLs on the base URL's origin are read.
func (s *Scheduler) ReadDetail(ctx context.Context, recordURL string) ([]byte, error) {
	parsed, parseErr := url.Parse(recordURL)
	if parseErr != nil || !s.onSite(parsed) {
		return nil, s.lookupFailed(LookupDetailURL, recordURL)
	}

	content, _, err := s.pages.FetchOrCached(ctx, recordURL)
	if err != nil {
		return nil, err
	}

	extraction, extractErr := s.domExtractor.Extract(*parsed, []byte(content))
	if extractErr != nil {
		return nil, extractErr
	}

	sanitized, sanitizeErr := s.htmlSanitizer.Sanitize(extraction)
	if sanitizeErr != nil {
		return nil, sanitizeErr
	}

	result, convErr := s.markdownConversionRule.Convert(s.baseURL, sanitized)
	if convErr != nil {
		return nil, convErr
	}
	return result.GetMarkdownContent(), nil
}

func (s *Scheduler) stateIndex(ctx context.Context) (map[string]string, error) {
	index, _, err := s.pages.IndexOrCached(ctx, s.baseURL, func(content []byte) (map[string]string, failure.ClassifiedError) {
		links, err := extractor.StateIndex(content, s.baseURL)
		if err != nil {
			return nil, err
		}
		return extractor.IndexMap(links), nil
	})
	if err != nil {
		s.recordExtractionError("Scheduler.stateIndex", err, s.baseURL)
		return nil, err
	}
	return index, nil
}

func (s *Scheduler) cityIndex(ctx context.Context, stateURL string) (map[string]string, error) {
	index, _, err := s.pages.IndexOrCached(ctx, stateURL, func(content []byte) (map[string]string, failure.ClassifiedError) {
		links, err := extractor.CityIndex(content, s.baseURL)
		if err != nil {
			return nil, err
		}
		return extractor.IndexMap(links), nil
	})
	if err != nil {
		s.recordExtractionError("Scheduler.cityIndex", err, stateURL)
		return nil, err
	}
	return index, nil
}

func (s *Scheduler) resolveState(ctx context.Context, state string) (string, string, error) {
	states, err := s.stateIndex(ctx)
	if err != nil {
		return "", "", err
	}
	name := strings.ToLower(strings.TrimSpace(state))
	stateURL, ok := states[name]
	if !ok {
		return "", "", s.lookupFailed(LookupState, state)
	}
	return name, stateURL, nil
}

func (s *Scheduler) resolveCity(ctx context.Context, stateURL string, city string, infoType InfoType) (string, error) {
	cities, err := s.cityIndex(ctx, stateURL)
	if err != nil {
		return "", err
	}
	key := strings.ToLower(strings.TrimSpace(city) + " " + string(infoType))
	cityURL, ok := cities[key]
	if !ok {
		return "", s.lookupFailed(LookupCity, city)
	}
	return cityURL, nil
}

func (s *Scheduler) periods(ctx context.Context, cityURL string) ([]extractor.Period, error) {
	content, _, err := s.pages.FetchOrCached(ctx, cityURL)
	if err != nil {
		return nil, err
	}
	periods, extractErr := extractor.Periods([]byte(content), s.baseURL)
	if extractErr != nil {
		s.recordExtractionError("Scheduler.periods", extractErr, cityURL)
		return nil, extractErr
	}
	return periods, nil
}

func stateRows(states map[string]string) []storage.State {
	rows := make([]storage.State, 0, len(states))
	for name := range states {
		rows = append(rows, storage.State{ID: hashutil.StableID(name), Name: name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// onSite reports whether target is an absolute http(s) URL on the same
// origin as the base URL. Detail pages are only read from the site itself.
func (s *Scheduler) onSite(target *url.URL) bool {
	if !target.IsAbs() || (target.Scheme != "http" && target.Scheme != "https") {
		return false
	}
	targetOrigin, err := urlutil.Origin(target.String())
	if err != nil {
		return false
	}
	baseOrigin, err := urlutil.Origin(s.baseURL)
	if err != nil {
		return false
	}
	return targetOrigin == baseOrigin
}

func (s *Scheduler) lookupFailed(kind LookupKind, value string) *LookupError {
	err := &LookupError{Kind: kind, Value: value}
	s.recordError("Scheduler.lookup", metadata.CauseLookupFailure, err, s.baseURL)
	return err
}

// recordExtractionError records only extraction failures; fetch and
// storage failures are recorded by the stage that raised them.
func (s *Scheduler) recordExtractionError(action string, err error, pageURL string) {
	var extractionErr *extractor.ExtractionError
	if errors.As(err, &extractionErr) {
		s.recordError(action, extractor.MapExtractionErrorToMetadataCause(extractionErr), err, pageURL)
	}
}

func (s *Scheduler) recordError(action string, cause metadata.ErrorCause, err error, pageURL string) {
	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		action,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, pageURL),
		},
	)
}
