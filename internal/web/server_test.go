package web_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/fetcher"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/rohmanhakim/spotcrime/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner is a test double for the scheduler
type fakeRunner struct {
	outcome  scheduler.QueryOutcome
	err      error
	detail   []byte
	calls    int
	lastSeen scheduler.Query
	lastURL  string
}

func (f *fakeRunner) ExecuteQuery(ctx context.Context, query scheduler.Query) (scheduler.QueryOutcome, error) {
	f.calls++
	f.lastSeen = query
	return f.outcome, f.err
}

func (f *fakeRunner) ReadDetail(ctx context.Context, recordURL string) ([]byte, error) {
	f.calls++
	f.lastURL = recordURL
	return f.detail, f.err
}

func sampleReport() *scheduler.Report {
	return &scheduler.Report{
		QueryID: "q-1",
		State:   "michigan",
		City:    "Ann Arbor",
		Amount:  1,
		Periods: []scheduler.PeriodReport{{
			Label: "Crime Blotter for Tuesday April 14, 2020",
			URL:   "https://www.spotcrime.com/mi/ann+arbor/daily-blotter/2020-04-14",
			Records: []extractor.CrimeRecord{{
				Category: "Theft",
				Date:     "04/14/20 10:25 AM",
				Address:  "100 BLOCK OF S STATE ST",
				Link:     "https://www.spotcrime.com/crime/123456-theft",
			}},
		}},
		Chart: scheduler.ChartData{
			Labels: []string{"Crime Blotter for Tuesday April 14, 2020"},
			Counts: []int{1},
		},
	}
}

func postForm(t *testing.T, handler http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/handle_form", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func dailyForm(amount string) url.Values {
	return url.Values{
		"state":     {"Michigan"},
		"city":      {"Ann Arbor"},
		"info_type": {"daily crime reports"},
		"amount":    {amount},
	}
}

func TestIndex_RendersForm(t *testing.T) {
	handler := web.NewServer(&fakeRunner{}, &metadata.NoopSink{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/handle_form"`)
	assert.Contains(t, body, `name="state"`)
	assert.Contains(t, body, "most wanted")
}

func TestUnknownRoute(t *testing.T) {
	handler := web.NewServer(&fakeRunner{}, &metadata.NoopSink{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/handle_form", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleForm_OpenURLRedirects(t *testing.T) {
	runner := &fakeRunner{outcome: scheduler.QueryOutcome{
		Kind: scheduler.OutcomeOpenURL,
		URL:  "https://www.spotcrime.com/mi/ann+arbor",
	}}
	handler := web.NewServer(runner, &metadata.NoopSink{}).Handler()

	rec := postForm(t, handler, url.Values{
		"state":     {"Michigan"},
		"city":      {"Ann Arbor"},
		"info_type": {"Crime Map"},
		"amount":    {"not used"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://www.spotcrime.com/mi/ann+arbor", rec.Header().Get("Location"))
	assert.Equal(t, 0, runner.lastSeen.Amount)
}

func TestHandleForm_ReportPage(t *testing.T) {
	runner := &fakeRunner{outcome: scheduler.QueryOutcome{Kind: scheduler.OutcomeReport, Report: sampleReport()}}
	handler := web.NewServer(runner, &metadata.NoopSink{}).Handler()

	rec := postForm(t, handler, dailyForm("1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scheduler.Query{
		State:    "Michigan",
		City:     "Ann Arbor",
		InfoType: "daily crime reports",
		Amount:   1,
	}, runner.lastSeen)

	body := rec.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Crime Blotter for Tuesday April 14, 2020")
	assert.Contains(t, body, "100 BLOCK OF S STATE ST")
	assert.Contains(t, body, "/detail?url=https%3a%2f%2fwww.spotcrime.com%2fcrime%2f123456-theft")
}

func TestHandleForm_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		err       error
		wantCalls int
		wantText  string
	}{
		{
			name:      "non numeric amount",
			values:    dailyForm("two"),
			wantCalls: 0,
			wantText:  "must be a whole number",
		},
		{
			name:      "amount out of range",
			values:    dailyForm("9"),
			err:       &scheduler.InvalidAmountError{Amount: 9, Available: 3},
			wantCalls: 1,
			wantText:  "between 1 and 3",
		},
		{
			name:      "unknown state",
			values:    url.Values{"state": {"Atlantis"}, "city": {"x"}, "info_type": {"crime map"}},
			err:       &scheduler.LookupError{Kind: scheduler.LookupState, Value: "Atlantis"},
			wantCalls: 1,
			wantText:  "unknown state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.err}
			handler := web.NewServer(runner, &metadata.NoopSink{}).Handler()

			rec := postForm(t, handler, tt.values)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCalls, runner.calls)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Contains(t, rec.Body.String(), `action="/handle_form"`, "the form is shown again")
		})
	}
}

func TestHandleForm_UpstreamFailure(t *testing.T) {
	runner := &fakeRunner{err: &fetcher.FetchError{Message: "boom", Cause: fetcher.ErrCauseRequest5xx}}
	handler := web.NewServer(runner, &metadata.NoopSink{}).Handler()

	rec := postForm(t, handler, dailyForm("1"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	runner.err = errors.New("disk on fire")
	rec = postForm(t, handler, dailyForm("1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDetail(t *testing.T) {
	runner := &fakeRunner{detail: []byte("# Theft\n\nReported theft of a **bicycle**.\n")}
	handler := web.NewServer(runner, &metadata.NoopSink{}).Handler()

	target := "https://www.spotcrime.com/crime/123456-theft"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/detail?url="+url.QueryEscape(target), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, target, runner.lastURL)
	assert.Contains(t, rec.Body.String(), `<h1 id="theft">Theft</h1>`)
	assert.Contains(t, rec.Body.String(), "<strong>bicycle</strong>")
}

func TestDetail_Errors(t *testing.T) {
	handler := web.NewServer(&fakeRunner{}, &metadata.NoopSink{}).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/detail", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	runner := &fakeRunner{err: &scheduler.LookupError{Kind: scheduler.LookupDetailURL, Value: "/crime/1"}}
	handler = web.NewServer(runner, &metadata.NoopSink{}).Handler()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/detail?url=%2Fcrime%2F1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_StopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- web.NewServer(&fakeRunner{}, &metadata.NoopSink{}).Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
