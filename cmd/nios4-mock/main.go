// Command nios4-mock serves an in-memory NIOS4 double for local
// development: the same envelope contract as the remote service, seeded
// with one account and one database.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nios4/go-nios4/internal/mocknios"
)

var (
	addr     = flag.String("addr", ":8787", "Listen address")
	secret   = flag.String("secret", "dev-secret", "HS256 signing secret for issued tokens")
	email    = flag.String("email", "dev@example.com", "Seeded account email")
	password = flag.String("password", "dev", "Seeded account password")
	dbName   = flag.String("db", "dev", "Seeded database name")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	mock := mocknios.New(*secret, log.Logger)
	mock.AddUser(*email, *password)
	mock.AddDatabase(*dbName)
	mock.AddTable(*dbName, "customers", []map[string]any{
		{"fieldname": "name", "format": "text"},
		{"fieldname": "balance", "format": "decimalnumber"},
		{"fieldname": "created_at", "format": "date"},
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mock.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", *addr).
		Str("email", *email).
		Str("db", *dbName).
		Msg("mock NIOS4 service listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
	log.Info().Msg("stopped")
}
