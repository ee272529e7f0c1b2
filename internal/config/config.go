package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/rohmanhakim/spotcrime/pkg/fileutil"
	"github.com/rohmanhakim/spotcrime/pkg/retry"
	"github.com/rohmanhakim/spotcrime/pkg/timeutil"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "spotcrime"
	DefaultBaseURL = "https://www.spotcrime.com"
	cacheFileName  = "spot_crime_cache.json"
	dbFileName     = "Spotcrime.sqlite"
)

// LogLevels are the accepted values of logLevel.
var LogLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	//===============
	//  Site
	//===============
	// Root of the scraped site; every extracted href is made absolute against it.
	baseURL string

	//===============
	// Storage
	//===============
	// JSON file holding cached pages and URL indexes
	cacheFile string
	// SQLite database file
	dbFile string

	//===============
	// Politeness
	//===============
	// Minimum, fixed waiting time between two live requests to the same host.
	minInterval time.Duration
	// Randomized variation added on top of the minimum interval.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string

	//===============
	// Surfaces
	//===============
	// Address the web form listens on
	listenAddr string
	// Whether the browser menu entry opens the web form automatically
	openBrowser bool
	// One of LogLevels
	logLevel string
}

// configDTO is shared by config files and the environment. Durations are
// strings in time.ParseDuration form ("3s", "500ms").
type configDTO struct {
	BaseURL                string  `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" env:"SPOTCRIME_BASE_URL"`
	CacheFile              string  `json:"cacheFile,omitempty" yaml:"cacheFile,omitempty" env:"SPOTCRIME_CACHE_FILE"`
	DBFile                 string  `json:"dbFile,omitempty" yaml:"dbFile,omitempty" env:"SPOTCRIME_DB_FILE"`
	MinInterval            string  `json:"minInterval,omitempty" yaml:"minInterval,omitempty" env:"SPOTCRIME_MIN_INTERVAL"`
	Jitter                 string  `json:"jitter,omitempty" yaml:"jitter,omitempty" env:"SPOTCRIME_JITTER"`
	RandomSeed             int64   `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty" env:"SPOTCRIME_RANDOM_SEED"`
	MaxAttempt             int     `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty" env:"SPOTCRIME_MAX_ATTEMPT"`
	BackoffInitialDuration string  `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty" env:"SPOTCRIME_BACKOFF_INITIAL"`
	BackoffMultiplier      float64 `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty" env:"SPOTCRIME_BACKOFF_MULTIPLIER"`
	BackoffMaxDuration     string  `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty" env:"SPOTCRIME_BACKOFF_MAX"`
	Timeout                string  `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"SPOTCRIME_TIMEOUT"`
	UserAgent              string  `json:"userAgent,omitempty" yaml:"userAgent,omitempty" env:"SPOTCRIME_USER_AGENT"`
	ListenAddr             string  `json:"listenAddr,omitempty" yaml:"listenAddr,omitempty" env:"SPOTCRIME_ADDR"`
	OpenBrowser            *bool   `json:"openBrowser,omitempty" yaml:"openBrowser,omitempty" env:"SPOTCRIME_OPEN_BROWSER"`
	LogLevel               string  `json:"logLevel,omitempty" yaml:"logLevel,omitempty" env:"SPOTCRIME_LOG_LEVEL"`
}

// apply copies every non-zero DTO field onto c.
func (c *Config) apply(dto configDTO) error {
	if dto.BaseURL != "" {
		c.baseURL = dto.BaseURL
	}
	if dto.CacheFile != "" {
		c.cacheFile = dto.CacheFile
	}
	if dto.DBFile != "" {
		c.dbFile = dto.DBFile
	}
	if dto.RandomSeed != 0 {
		c.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		c.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffMultiplier != 0 {
		c.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.UserAgent != "" {
		c.userAgent = dto.UserAgent
	}
	if dto.ListenAddr != "" {
		c.listenAddr = dto.ListenAddr
	}
	if dto.OpenBrowser != nil {
		c.openBrowser = *dto.OpenBrowser
	}
	if dto.LogLevel != "" {
		c.logLevel = strings.ToLower(dto.LogLevel)
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"minInterval", dto.MinInterval, &c.minInterval},
		{"jitter", dto.Jitter, &c.jitter},
		{"backoffInitialDuration", dto.BackoffInitialDuration, &c.backoffInitialDuration},
		{"backoffMaxDuration", dto.BackoffMaxDuration, &c.backoffMaxDuration},
		{"timeout", dto.Timeout, &c.timeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = parsed
	}
	return nil
}

// WithConfigFile returns the defaults overridden by a config file. Files
// ending in .yaml or .yml are read as YAML, anything else as JSON5 (plain
// JSON included).
func WithConfigFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch strings.ToLower(fileutil.GetFileExtension(path)) {
	case "yaml", "yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json5.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg := WithDefault()
	if err := cfg.apply(cfgDTO); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return cfg, nil
}

// WithEnv overrides c with the SPOTCRIME_* environment variables that are set.
func (c *Config) WithEnv() (*Config, error) {
	cfgDTO := configDTO{}
	if err := env.Parse(&cfgDTO); err != nil {
		return c, fmt.Errorf("%w: %s", ErrEnvParsingFail, err.Error())
	}
	if err := c.apply(cfgDTO); err != nil {
		return c, fmt.Errorf("%w: %s", ErrEnvParsingFail, err.Error())
	}
	return c, nil
}

// WithDefault creates a new Config with default values for all fields.
// Cache and database files live under the XDG cache and data homes.
func WithDefault() *Config {
	defaultConfig := Config{
		baseURL:                DefaultBaseURL,
		cacheFile:              filepath.Join(xdg.CacheHome, AppName, cacheFileName),
		dbFile:                 filepath.Join(xdg.DataHome, AppName, dbFileName),
		minInterval:            3 * time.Second,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             1,
		backoffInitialDuration: time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		listenAddr:             "127.0.0.1:5000",
		openBrowser:            true,
		logLevel:               "info",
	}
	return &defaultConfig
}

func (c *Config) WithBaseURL(baseURL string) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithCacheFile(path string) *Config {
	c.cacheFile = path
	return c
}

func (c *Config) WithDBFile(path string) *Config {
	c.dbFile = path
	return c
}

func (c *Config) WithMinInterval(interval time.Duration) *Config {
	c.minInterval = interval
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithOpenBrowser(open bool) *Config {
	c.openBrowser = open
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = strings.ToLower(level)
	return c
}

func (c *Config) Build() (Config, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.baseURL)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	if strings.TrimSpace(c.cacheFile) == "" {
		return Config{}, fmt.Errorf("%w: cacheFile cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.dbFile) == "" {
		return Config{}, fmt.Errorf("%w: dbFile cannot be empty", ErrInvalidConfig)
	}
	if c.minInterval < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: minInterval and jitter cannot be negative", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1, got %d", ErrInvalidConfig, c.maxAttempt)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.listenAddr) == "" {
		return Config{}, fmt.Errorf("%w: listenAddr cannot be empty", ErrInvalidConfig)
	}
	if !slices.Contains(LogLevels, c.logLevel) {
		return Config{}, fmt.Errorf("%w: logLevel must be one of %v, got %q", ErrInvalidConfig, LogLevels, c.logLevel)
	}

	return *c, nil
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) CacheFile() string {
	return c.cacheFile
}

func (c Config) DBFile() string {
	return c.dbFile
}

func (c Config) MinInterval() time.Duration {
	return c.minInterval
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) OpenBrowser() bool {
	return c.openBrowser
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

// RetryParam bundles the retry settings for the fetcher.
func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(c.jitter, c.randomSeed, c.maxAttempt, c.BackoffParam())
}
