package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rohmanhakim/spotcrime/internal/config"
	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/spf13/cobra"
)

var terminalCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Look up a city interactively and show the results in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		err = runTerminal(cmd.Context(), cfg, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.ErrOrStderr())
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	},
}

func runTerminal(ctx context.Context, cfg config.Config, p *prompter, logOut io.Writer) error {
	a, err := newApp(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	query, err := promptQuery(ctx, a.scheduler, p)
	if err != nil {
		return err
	}

	outcome, err := withSpinner(p.out, "fetching reports", func() (scheduler.QueryOutcome, error) {
		return a.scheduler.ExecuteQuery(ctx, query)
	})
	if err != nil {
		return err
	}

	if outcome.Kind == scheduler.OutcomeOpenURL {
		showURL(p, outcome.URL, cfg.OpenBrowser())
		return nil
	}

	report := outcome.Report
	printPeriods(p.out, report)
	if err := browsePeriods(p, report); err != nil {
		return err
	}
	printChart(p.out, report)
	return nil
}

// promptQuery asks for state, city, info type and amount, re-prompting
// until each answer resolves against the site.
func promptQuery(ctx context.Context, s *scheduler.Scheduler, p *prompter) (scheduler.Query, error) {
	states, err := withSpinner(p.out, "loading states", func() ([]scheduler.StateOption, error) {
		return s.ResolveStates(ctx)
	})
	if err != nil {
		return scheduler.Query{}, err
	}

	var query scheduler.Query
	for {
		answer, err := p.ask("State (e.g. Michigan)")
		if err != nil {
			return scheduler.Query{}, err
		}
		if slices.ContainsFunc(states, func(o scheduler.StateOption) bool {
			return o.Name == strings.ToLower(answer)
		}) {
			query.State = answer
			break
		}
		p.printf("Unknown state %q, try again.\n", answer)
	}

	cityKeys, err := withSpinner(p.out, "loading cities", func() ([]string, error) {
		return s.ResolveCityKeys(ctx, query.State)
	})
	if err != nil {
		return scheduler.Query{}, err
	}

	for {
		city, err := p.ask("City (e.g. Ann Arbor)")
		if err != nil {
			return scheduler.Query{}, err
		}
		infoType, err := promptInfoType(p)
		if err != nil {
			return scheduler.Query{}, err
		}
		key := strings.ToLower(city) + " " + string(infoType)
		if slices.Contains(cityKeys, key) {
			query.City = city
			query.InfoType = string(infoType)
			break
		}
		p.printf("%q has no %s, try again.\n", city, infoType)
	}

	if query.InfoType != string(scheduler.InfoDailyCrimeReports) {
		return query, nil
	}

	periods, err := withSpinner(p.out, "loading periods", func() ([]extractor.Period, error) {
		return s.Labels(ctx, query.State, query.City)
	})
	if err != nil {
		return scheduler.Query{}, err
	}
	if len(periods) == 0 {
		return scheduler.Query{}, &scheduler.InvalidAmountError{Amount: 0, Available: 0}
	}

	for {
		answer, err := p.ask(fmt.Sprintf("How many days (1-%d)", len(periods)))
		if err != nil {
			return scheduler.Query{}, err
		}
		amount, convErr := strconv.Atoi(answer)
		if convErr == nil && amount >= 1 && amount <= len(periods) {
			query.Amount = amount
			return query, nil
		}
		p.printf("Enter a number between 1 and %d.\n", len(periods))
	}
}

func promptInfoType(p *prompter) (scheduler.InfoType, error) {
	for i, infoType := range scheduler.InfoTypes {
		p.printf("  %d. %s\n", i+1, infoType)
	}
	for {
		answer, err := p.ask("Information")
		if err != nil {
			return "", err
		}
		if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(scheduler.InfoTypes) {
			return scheduler.InfoTypes[n-1], nil
		}
		if infoType, ok := scheduler.ParseInfoType(answer); ok {
			return infoType, nil
		}
		p.printf("Unknown information type %q, try again.\n", answer)
	}
}

// browsePeriods lists the records of the periods the user picks until an
// empty answer or end of input.
func browsePeriods(p *prompter, report *scheduler.Report) error {
	for {
		answer, err := p.ask(fmt.Sprintf("Show records of period (1-%d, empty to continue)", len(report.Periods)))
		if errors.Is(err, io.EOF) || (err == nil && answer == "") {
			return nil
		}
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < 1 || n > len(report.Periods) {
			p.printf("Enter a number between 1 and %d.\n", len(report.Periods))
			continue
		}
		period := report.Periods[n-1]
		printRecords(p.out, period.Label, period.Records)
	}
}

func showURL(p *prompter, target string, open bool) {
	p.printf("Open %s\n", target)
	if !open {
		return
	}
	if err := browserOpener(target); err != nil {
		p.printf("Could not open a browser: %v\n", err)
	}
}
