package cmd_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cmd "github.com/rohmanhakim/spotcrime/internal/cli"
)

var sitePages = map[string]string{
	"/":                                      "home.html",
	"/mi":                                    "state_mi.html",
	"/mi/ann+arbor/daily":                    "city_daily.html",
	"/mi/ann+arbor/daily-blotter/2020-04-14": "period_2020-04-14.html",
	"/mi/ann+arbor/daily-blotter/2020-04-13": "period_2020-04-13.html",
	"/mi/ann+arbor/daily-blotter/2020-04-12": "period_2020-04-13.html",
	"/crime/123456-theft":                    "detail.html",
}

func newFakeSite(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := sitePages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		content, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)
	return server
}

type cliRun struct {
	out string
	err error
}

// cliEnv points the CLI at a fake site with throwaway cache and db files.
type cliEnv struct {
	site      *httptest.Server
	cacheFile string
	dbFile    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPOTCRIME_MIN_INTERVAL", "0s")
	t.Setenv("SPOTCRIME_OPEN_BROWSER", "false")
	return &cliEnv{
		site:      newFakeSite(t),
		cacheFile: filepath.Join(dir, "cache.json"),
		dbFile:    filepath.Join(dir, "Spotcrime.sqlite"),
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) cliRun {
	t.Helper()
	cmd.ResetFlags()
	t.Cleanup(cmd.ResetFlags)

	root := cmd.RootCommandForTest()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--base-url", e.site.URL,
		"--cache-file", e.cacheFile,
		"--db-file", e.dbFile,
		"--log-level", "error",
	}, args...))

	err := root.Execute()
	return cliRun{out: out.String(), err: err}
}
