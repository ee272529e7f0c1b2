package cmd_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	cmd "github.com/rohmanhakim/spotcrime/internal/cli"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommand_DailyCrimeReports(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "query",
		"--state", "Michigan",
		"--city", "Ann Arbor",
		"--info-type", "daily crime reports",
		"--amount", "2",
	)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Crime Blotter for Tuesday April 14, 2020")
	assert.Contains(t, res.out, "Crime Blotter for Monday April 13, 2020")
	assert.Contains(t, res.out, "100 BLOCK OF S STATE ST")
	assert.Contains(t, res.out, "Crimes per period")
	assert.FileExists(t, env.cacheFile)
	assert.FileExists(t, env.dbFile)
}

func TestQueryCommand_OpenURL(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "query", "--state", "michigan", "--city", "ann arbor", "--info-type", "most wanted")

	require.NoError(t, res.err)
	assert.Equal(t, env.site.URL+"/mi/ann+arbor/most-wanted\n", res.out)
}

func TestQueryCommand_UnknownCity(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "query", "--state", "michigan", "--city", "gotham", "--info-type", "crime map")

	var lookupErr *scheduler.LookupError
	require.True(t, errors.As(res.err, &lookupErr))
	assert.Equal(t, scheduler.LookupCity, lookupErr.Kind)
}

func TestHistoryAndReset(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No queries yet.")

	res = env.run(t, "", "query", "--state", "michigan", "--city", "ann arbor", "--amount", "1")
	require.NoError(t, res.err)

	res = env.run(t, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "ann arbor")
	assert.Contains(t, res.out, "michigan")

	res = env.run(t, "", "reset", "--cache")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Recreated tables")
	assert.Contains(t, res.out, "Cleared cache")

	cached, err := os.ReadFile(env.cacheFile)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(cached))

	res = env.run(t, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No queries yet.")
}

func TestDetailCommand(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "detail", env.site.URL+"/crime/123456-theft")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Theft")
	assert.Contains(t, res.out, "bicycle")

	res = env.run(t, "", "detail")
	assert.Error(t, res.err, "a record URL is required")
}

func TestTerminalCommand(t *testing.T) {
	env := newCLIEnv(t)

	input := strings.Join([]string{
		"Atlantis",  // unknown state, re-prompted
		"Michigan",  // state
		"Ann Arbor", // city
		"3",         // daily crime reports
		"7",         // out of range, re-prompted
		"2",         // amount
		"1",         // list records of the first period
		"",          // continue to the chart
	}, "\n") + "\n"

	res := env.run(t, input, "terminal")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, `Unknown state "Atlantis"`)
	assert.Contains(t, res.out, "Enter a number between 1 and 3.")
	assert.Contains(t, res.out, "Crime Blotter for Monday April 13, 2020")
	assert.Contains(t, res.out, "500 BLOCK OF E LIBERTY ST")
	assert.Contains(t, res.out, "Crimes per period")
}

func TestTerminalCommand_CrimeMapOpensBrowser(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SPOTCRIME_OPEN_BROWSER", "true")

	var opened []string
	restore := cmd.SetBrowserOpenerForTest(func(target string) error {
		opened = append(opened, target)
		return nil
	})
	defer restore()

	res := env.run(t, "michigan\ndetroit\ncrime map\n", "terminal")

	require.NoError(t, res.err)
	assert.Equal(t, []string{env.site.URL + "/mi/detroit"}, opened)
}

func TestTerminalCommand_ExitAtAnyPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "state", input: "exit\n"},
		{name: "city", input: "michigan\nEXIT\n"},
		{name: "information", input: "michigan\nann arbor\n exit \n"},
		{name: "amount", input: "michigan\nann arbor\n3\nexit\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)

			res := env.run(t, tt.input, "terminal")

			require.NoError(t, res.err)
			assert.NotContains(t, res.out, "try again")
			assert.NotContains(t, res.out, "Crimes per period")
		})
	}
}

func TestRootMenu_ExitFromTerminalPrompt(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "2\nmichigan\nexit\n")

	require.NoError(t, res.err)
	assert.NotContains(t, res.out, "Open ")
	assert.Equal(t, 1, strings.Count(res.out, "1. Browser"), "the menu is not shown again")
}

func TestRootMenu(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "9\nexit\n")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "1. Browser")
	assert.Contains(t, res.out, `Invalid choice "9"`)
}

func TestRootMenu_TerminalThenEndOfInput(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "2\nmichigan\nann arbor\ncrime map\n")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Open "+env.site.URL+"/mi/ann+arbor")
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run(t, "", "version")

	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.out, "spotcrime "))
}
