package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SanteonNL/filmcatalog/util"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/tailscale/hujson"
)

// FileName is the optional project config file, JSON with comments
const FileName = ".filmcatalog.json"

const (
	DefaultPageSize     = 20
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultHTTPRetryMax = 3
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheMaxSize = 200
	DefaultLogLevel     = "info"
	DefaultOutputDir    = "output"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid config")
)

type Config struct {
	APIURL       string
	Usernames    []string
	Genres       []string
	PageSize     int
	HTTPTimeout  time.Duration
	HTTPRetryMax int
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheMaxSize int
	LogLevel     string
	OutputDir    string
}

func Default() Config {
	return Config{
		PageSize:     DefaultPageSize,
		HTTPTimeout:  DefaultHTTPTimeout,
		HTTPRetryMax: DefaultHTTPRetryMax,
		CacheEnabled: true,
		CacheTTL:     DefaultCacheTTL,
		CacheMaxSize: DefaultCacheMaxSize,
		LogLevel:     DefaultLogLevel,
		OutputDir:    DefaultOutputDir,
	}
}

// Sources records which files contributed to a Config
type Sources struct {
	File string
	Env  string
}

type Options struct {
	// WorkDir resolves relative paths; defaults to the working directory
	WorkDir string
	// ConfigPath names a config file that must exist. When empty FileName
	// is read from WorkDir if present.
	ConfigPath string
	// EnvPath names a .env file that must exist. When empty .env is read
	// from WorkDir if present.
	EnvPath string
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration. Later layers win:
// defaults, config file, .env file, process environment.
func Load(opts Options) (Config, Sources, error) {
	if opts.WorkDir == "" {
		wd, err := util.GetAbsolutePath(".")
		if err != nil {
			return Config{}, Sources{}, err
		}
		opts.WorkDir = wd
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg := Default()
	var sources Sources

	path, mustExist := resolve(opts.WorkDir, opts.ConfigPath, FileName)
	data, err := readOptional(path, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}
	if data != nil {
		if err := mergeFile(&cfg, data); err != nil {
			return Config{}, Sources{}, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, err)
		}
		sources.File = path
	}

	envPath, mustExist := resolve(opts.WorkDir, opts.EnvPath, ".env")
	dotenv := map[string]string{}
	if data, err := readOptional(envPath, mustExist); err != nil {
		return Config{}, Sources{}, err
	} else if data != nil {
		dotenv, err = godotenv.UnmarshalBytes(data)
		if err != nil {
			return Config{}, Sources{}, fmt.Errorf("%w %s: %w", ErrInvalidConfig, envPath, err)
		}
		sources.Env = envPath
	}

	// Process environment overrides .env, as godotenv.Load does.
	lookup := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := mergeEnv(&cfg, lookup); err != nil {
		return Config{}, Sources{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, sources, nil
}

func resolve(workDir, explicit, fallback string) (string, bool) {
	if explicit == "" {
		return filepath.Join(workDir, fallback), false
	}
	if filepath.IsAbs(explicit) {
		return explicit, true
	}
	return filepath.Join(workDir, explicit), true
}

func readOptional(path string, mustExist bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if os.IsNotExist(err) {
		if mustExist {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("failed to read %s: %w", path, err)
}

// fileConfig mirrors Config with pointer fields so unset keys keep their
// defaults and durations can be written as strings.
type fileConfig struct {
	APIURL       *string  `json:"api_url"`
	Usernames    []string `json:"letterboxd_usernames"`
	Genres       []string `json:"letterboxd_genres"`
	PageSize     *int     `json:"page_size"`
	HTTPTimeout  *string  `json:"http_timeout"`
	HTTPRetryMax *int     `json:"http_retry_max"`
	CacheEnabled *bool    `json:"cache_enabled"`
	CacheTTL     *string  `json:"cache_ttl"`
	CacheMaxSize *int     `json:"cache_max_size"`
	LogLevel     *string  `json:"log_level"`
	OutputDir    *string  `json:"output_dir"`
}

func mergeFile(cfg *Config, data []byte) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if fc.APIURL != nil {
		cfg.APIURL = *fc.APIURL
	}
	if fc.Usernames != nil {
		cfg.Usernames = fc.Usernames
	}
	if fc.Genres != nil {
		cfg.Genres = fc.Genres
	}
	if fc.PageSize != nil {
		cfg.PageSize = *fc.PageSize
	}
	if fc.HTTPTimeout != nil {
		d, err := time.ParseDuration(*fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if fc.HTTPRetryMax != nil {
		cfg.HTTPRetryMax = *fc.HTTPRetryMax
	}
	if fc.CacheEnabled != nil {
		cfg.CacheEnabled = *fc.CacheEnabled
	}
	if fc.CacheTTL != nil {
		d, err := time.ParseDuration(*fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		cfg.CacheTTL = d
	}
	if fc.CacheMaxSize != nil {
		cfg.CacheMaxSize = *fc.CacheMaxSize
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	return nil
}

func mergeEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	list := func(dst *[]string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = util.SplitList(v)
				return
			}
		}
	}
	integer := func(dst *int, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	duration := func(dst *time.Duration, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(&cfg.APIURL, "API_URL", "REACT_APP_API_URL")
	list(&cfg.Usernames, "LETTERBOXD_USERNAMES", "REACT_APP_LETTERBOXD_USERNAMES")
	list(&cfg.Genres, "LETTERBOXD_GENRES", "REACT_APP_LETTERBOXD_GENRES")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.OutputDir, "OUTPUT_DIR")

	if v, ok := lookup("CACHE_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CACHE_ENABLED: %w", err)
		}
		cfg.CacheEnabled = b
	}

	for _, err := range []error{
		integer(&cfg.PageSize, "PAGE_SIZE"),
		integer(&cfg.HTTPRetryMax, "HTTP_RETRY_MAX"),
		integer(&cfg.CacheMaxSize, "CACHE_MAX_SIZE"),
		duration(&cfg.HTTPTimeout, "HTTP_TIMEOUT"),
		duration(&cfg.CacheTTL, "CACHE_TTL"),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the values that cannot be defaulted
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("%w: API_URL is required", ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	if c.HTTPRetryMax < 0 {
		return fmt.Errorf("%w: retry max must not be negative, got %d", ErrInvalidConfig, c.HTTPRetryMax)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(c.LogLevel))
}
