package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/spotcrime/internal/chart"
	"github.com/rohmanhakim/spotcrime/internal/fetcher"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/rohmanhakim/spotcrime/pkg/retry"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// QueryRunner is the part of the scheduler the web form drives.
type QueryRunner interface {
	ExecuteQuery(ctx context.Context, query scheduler.Query) (scheduler.QueryOutcome, error)
	ReadDetail(ctx context.Context, recordURL string) ([]byte, error)
}

type Server struct {
	runner       QueryRunner
	metadataSink metadata.MetadataSink
	templates    *template.Template
}

func NewServer(runner QueryRunner, metadataSink metadata.MetadataSink) *Server {
	return &Server{
		runner:       runner,
		metadataSink: metadataSink,
		templates:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Handler routes GET /, POST /handle_form and GET /detail.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /handle_form", s.handleForm)
	mux.HandleFunc("GET /detail", s.handleDetail)
	return mux
}

// Serve runs the HTTP server on ln until the context ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "form", formPage{
		Title:     "SpotCrime",
		Form:      formValues{InfoType: string(scheduler.InfoDailyCrimeReports), Amount: "1"},
		InfoTypes: scheduler.InfoTypes,
	})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, err)
		return
	}
	form := formValues{
		State:    strings.TrimSpace(r.PostFormValue("state")),
		City:     strings.TrimSpace(r.PostFormValue("city")),
		InfoType: strings.TrimSpace(r.PostFormValue("info_type")),
		Amount:   strings.TrimSpace(r.PostFormValue("amount")),
	}

	query := scheduler.Query{State: form.State, City: form.City, InfoType: form.InfoType}
	if infoType, ok := scheduler.ParseInfoType(form.InfoType); ok && infoType == scheduler.InfoDailyCrimeReports {
		amount, err := strconv.Atoi(form.Amount)
		if err != nil {
			s.renderFormError(w, form, fmt.Errorf("invalid amount %q: must be a whole number", form.Amount))
			return
		}
		query.Amount = amount
	}

	outcome, err := s.runner.ExecuteQuery(r.Context(), query)
	if err != nil {
		if isInputError(err) {
			s.renderFormError(w, form, err)
			return
		}
		s.renderError(w, statusFor(err), err)
		return
	}

	if outcome.Kind == scheduler.OutcomeOpenURL {
		http.Redirect(w, r, outcome.URL, http.StatusSeeOther)
		return
	}

	report := outcome.Report
	svg := chart.SVG(
		fmt.Sprintf("Crimes per period in %s", report.City),
		chart.Bars(report.Chart.Labels, report.Chart.Counts),
	)
	s.render(w, http.StatusOK, "report", reportPage{
		Title:  fmt.Sprintf("%s crime reports", report.City),
		Report: report,
		// chart.SVG escapes every label it embeds
		Chart: template.HTML(svg), //nolint:gosec
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	recordURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if recordURL == "" {
		s.renderError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}

	content, err := s.runner.ReadDetail(r.Context(), recordURL)
	if err != nil {
		status := statusFor(err)
		if isInputError(err) {
			status = http.StatusBadRequest
		}
		s.renderError(w, status, err)
		return
	}

	s.render(w, http.StatusOK, "detail", detailPage{
		Title:  "Crime details",
		Source: recordURL,
		Body:   template.HTML(renderMarkdown(content)), //nolint:gosec
	})
}

// renderMarkdown turns detail Markdown into HTML. Raw HTML in the source is
// skipped; the Markdown is produced from already stripped page content.
func renderMarkdown(content []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
	})
	return markdown.ToHTML(content, p, renderer)
}

func (s *Server) renderFormError(w http.ResponseWriter, form formValues, err error) {
	s.render(w, http.StatusBadRequest, "form", formPage{
		Title:     "SpotCrime",
		Error:     err.Error(),
		Form:      form,
		InfoTypes: scheduler.InfoTypes,
	})
}

func (s *Server) renderError(w http.ResponseWriter, status int, err error) {
	s.render(w, status, "error", errorPage{Title: http.StatusText(status), Error: err.Error()})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"web",
			"Server.render",
			metadata.CauseUnknown,
			err.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrField, name)},
		)
	}
}

func isInputError(err error) bool {
	var lookupErr *scheduler.LookupError
	var amountErr *scheduler.InvalidAmountError
	return errors.As(err, &lookupErr) || errors.As(err, &amountErr)
}

// statusFor maps pipeline failures onto HTTP statuses: upstream site
// failures are 502, anything else 500.
func statusFor(err error) int {
	var fetchErr *fetcher.FetchError
	var retryErr *retry.RetryError
	if errors.As(err, &fetchErr) || errors.As(err, &retryErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
