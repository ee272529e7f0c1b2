package cmd

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/rohmanhakim/spotcrime/internal/config"
	"github.com/rohmanhakim/spotcrime/internal/web"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search form over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr()
		if serveAddr != "" {
			addr = serveAddr
		}
		return runServe(cmd.Context(), cfg, addr, serveOpen, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.ErrOrStderr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:5000)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the form in a browser once listening")
}

// runServe blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg config.Config, addr string, open bool, p *prompter, logOut io.Writer) error {
	a, err := newApp(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	target := "http://" + ln.Addr().String() + "/"
	p.printf("Serving on %s (Ctrl+C to stop)\n", target)
	if open {
		if err := browserOpener(target); err != nil {
			p.printf("Could not open a browser: %v\n", err)
		}
	}

	return web.NewServer(a.scheduler, a.recorder).Serve(ctx, ln)
}

func SetServeForTest(addr string, open bool) {
	serveAddr = addr
	serveOpen = open
}
