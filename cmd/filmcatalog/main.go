package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/cache"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/config"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/output"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/session"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/shell"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

type flags struct {
	configPath string
	envPath    string
	apiURL     string
	resource   string
	pageSize   int
	logLevel   string
	outputDir  string
	noCache    bool
	history    string
	exec       []string
}

func parseFlags(args []string) (flags, *flag.FlagSet, error) {
	var f flags
	fs := flag.NewFlagSet("filmcatalog", flag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default ./"+config.FileName+" if present)")
	fs.StringVar(&f.envPath, "env", "", "env file (default ./.env if present)")
	fs.StringVar(&f.apiURL, "api-url", "", "catalog service base URL, overrides API_URL")
	fs.StringVarP(&f.resource, "resource", "r", client.Films.Name, "resource to browse: films or users")
	fs.IntVar(&f.pageSize, "page-size", 0, "items per page")
	fs.StringVar(&f.logLevel, "log-level", "", "trace, debug, info, warn or error")
	fs.StringVarP(&f.outputDir, "output", "o", "", "directory for logs and exports")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the response cache")
	fs.StringVar(&f.history, "history", shell.HistoryFile(), "history file, empty to disable")
	fs.StringArrayVarP(&f.exec, "exec", "e", nil, "run a command and exit instead of prompting (repeatable)")
	err := fs.Parse(args)
	return f, fs, err
}

func main() {
	f, fs, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, fs.FlagUsages())
		os.Exit(2)
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "filmcatalog: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	startTime := time.Now()

	cfg, sources, err := config.Load(config.Options{ConfigPath: f.configPath, EnvPath: f.envPath})
	if err != nil {
		return err
	}
	applyFlags(&cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	console := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })
	om, err := output.NewManager(cfg.OutputDir, console, level)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	defer om.Close()
	log := om.Logger()
	log.Debug().Str("config", sources.File).Str("env", sources.Env).Str("api_url", cfg.APIURL).Msg("Starting filmcatalog")

	res, err := client.ResourceByName(f.resource)
	if err != nil {
		return err
	}
	cat, ok := field.ForResource(res.Name)
	if !ok {
		return fmt.Errorf("no fields known for %s", res.Name)
	}

	var results *cache.ResultCache
	if cfg.CacheEnabled {
		results = cache.New(cache.Config{
			Enabled:         true,
			TTL:             cfg.CacheTTL,
			MaxSize:         cfg.CacheMaxSize,
			CleanupInterval: cache.DefaultConfig().CleanupInterval,
		}, log)
		defer results.Stop()
	}

	cl, err := client.New(client.Options{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.HTTPTimeout,
		RetryMax: cfg.HTTPRetryMax,
		Cache:    results,
	}, log)
	if err != nil {
		return err
	}

	sess, err := session.New(session.Options{
		Catalog:  cat,
		Resource: res,
		PageSize: cfg.PageSize,
	}, cl, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	sh := shell.New(shell.Options{
		Session:   sess,
		Service:   cl,
		Exporter:  om,
		Out:       os.Stdout,
		Usernames: cfg.Usernames,
		Genres:    cfg.Genres,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(f.exec) > 0 {
		err = sh.Run(ctx, shell.Script(f.exec))
	} else {
		term := shell.OpenTerminal(f.history, sh.Complete)
		err = sh.Run(ctx, term)
		term.Close()
	}

	log.Debug().Msgf("Execution time: %s", time.Since(startTime))
	return err
}

// applyFlags lets explicitly set flags override the loaded configuration
func applyFlags(cfg *config.Config, f flags) {
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.pageSize > 0 {
		cfg.PageSize = f.pageSize
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.noCache {
		cfg.CacheEnabled = false
	}
}
