package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/server"
	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/store"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const defaultFixture = "cmd/mockcatalog/fixtures/catalog.json"

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Caller().Logger()

	envPath := flag.String("env", ".env", "env file, ignored when missing")
	addr := flag.String("addr", "", "listen address (default :$PORT or :8000)")
	dsn := flag.String("dsn", "", "Postgres DSN; serves from the database instead of the fixture (default $DATABASE_URL)")
	fixture := flag.String("fixture", defaultFixture, "JSON fixture with films and users")
	debug := flag.Bool("debug", false, "log every request")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", *envPath).Msg("Error loading env file")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8000"
		}
		*addr = ":" + port
	}
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}

	var st store.Store
	if *dsn != "" {
		db, err := store.Open(*dsn, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open store")
		}
		defer db.Close()
		st = db
	} else {
		fs, err := store.LoadFile(*fixture, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load fixture")
		}
		st = fs
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(st, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Mock catalog is running on http://localhost%s\n", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
