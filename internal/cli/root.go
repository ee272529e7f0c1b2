package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	baseURL     string
	cacheFile   string
	dbFile      string
	minInterval time.Duration
	timeout     time.Duration
	userAgent   string
	logLevel    string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotcrime",
	Short: "Scrape, cache and chart SpotCrime reports.",
	Long: `spotcrime looks up crime information for a US city on SpotCrime.

Pages are cached locally so repeated lookups do not hit the site again,
parsed daily crime reports are stored in a SQLite database, and results
are shown either in the terminal or through a small web form with a bar
chart of crimes per reporting period.

Run without a subcommand for the interactive menu.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return runMenu(cmd.Context(), cfg, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, .yaml/.yml or JSON5 (e.g., /home/myuser/spotcrime.json)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "root URL of the crime site")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "page cache file")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db-file", "", "SQLite database file")
	rootCmd.PersistentFlags().DurationVar(&minInterval, "min-interval", 0, "minimum delay between two live requests to the site")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")

	rootCmd.AddCommand(terminalCmd, queryCmd, serveCmd, detailCmd, resetCmd, historyCmd, versionCmd)
}

// InitConfigWithError builds the configuration, returning any errors.
// Precedence, lowest first: defaults, config file, SPOTCRIME_* environment, flags.
func InitConfigWithError() (config.Config, error) {
	configBuilder := config.WithDefault()
	if cfgFile != "" {
		fileBuilder, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = fileBuilder
	}

	configBuilder, err := configBuilder.WithEnv()
	if err != nil {
		return config.Config{}, err
	}

	// Override with CLI flag values where provided
	if baseURL != "" {
		configBuilder = configBuilder.WithBaseURL(baseURL)
	}

	if cacheFile != "" {
		configBuilder = configBuilder.WithCacheFile(cacheFile)
	}

	if dbFile != "" {
		configBuilder = configBuilder.WithDBFile(dbFile)
	}

	if minInterval > 0 {
		configBuilder = configBuilder.WithMinInterval(minInterval)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if verbose {
		configBuilder = configBuilder.WithLogLevel("debug")
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	baseURL = ""
	cacheFile = ""
	dbFile = ""
	minInterval = 0
	timeout = 0
	userAgent = ""
	logLevel = ""
	verbose = false
	queryState = ""
	queryCity = ""
	queryInfoType = "daily crime reports"
	queryAmount = 1
	serveAddr = ""
	serveOpen = false
	resetCache = false
	historyLimit = defaultHistoryLimit
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBaseURLForTest(url string) {
	baseURL = url
}

func SetCacheFileForTest(path string) {
	cacheFile = path
}

func SetDBFileForTest(path string) {
	dbFile = path
}

func SetMinIntervalForTest(interval time.Duration) {
	minInterval = interval
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetVerboseForTest(v bool) {
	verbose = v
}

// RootCommandForTest exposes the command tree so tests can drive it with
// SetArgs, SetIn and SetOut.
func RootCommandForTest() *cobra.Command {
	return rootCmd
}
