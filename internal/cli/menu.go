package cmd

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rohmanhakim/spotcrime/internal/config"
)

const menuText = `How do you want to see the results?
  1. Browser (web form)
  2. Terminal
Type 'exit' to quit.`

// runMenu loops until the user types exit or quit, or input ends.
func runMenu(ctx context.Context, cfg config.Config, p *prompter, logOut io.Writer) error {
	for {
		p.println(menuText)
		choice, err := p.ask("Choice")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "1", "browser":
			return runServe(ctx, cfg, cfg.ListenAddr(), cfg.OpenBrowser(), p, logOut)
		case "2", "terminal":
			err := runTerminal(ctx, cfg, p, logOut)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		case "quit", "q":
			return nil
		default:
			p.printf("Invalid choice %q\n\n", choice)
		}
	}
}
