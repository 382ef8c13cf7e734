package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/httpserver"
	"github.com/robalobadob/minesweeper/internal/records"
	"github.com/robalobadob/minesweeper/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if getEnv("LOG_FORMAT", "json") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := game.ValidateLevels(); err != nil {
		log.Fatal().Err(err).Msg("invalid level presets")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, closeRecords, err := openRecords(getEnv("RECORDS_BACKEND", "file"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open record store")
	}

	ttl := time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour
	sessions := store.NewMemoryStore()
	go sweep(ctx, sessions, ttl)

	srv := httpserver.New(sessions, rec, httpserver.Config{
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		SessionTTL:   ttl,
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
	})
	addr := getEnv("ADDR", "127.0.0.1") + ":" + getEnv("PORT", "5175")
	log.Info().Str("addr", addr).Msg("starting minesweeper server")
	err = srv.Start(ctx, addr)
	closeRecords()
	if err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// openRecords selects the best-time backend named by RECORDS_BACKEND.
func openRecords(backend string) (records.Store, func(), error) {
	switch backend {
	case "file":
		f := records.NewFile(getEnv("RECORDS_FILE", "./files/records.json"))
		log.Info().Str("backend", backend).Str("path", f.Path()).Msg("record store")
		return f, func() {}, nil
	case "sqlite":
		dsn := getEnv("RECORDS_DSN", "./data/records.db")
		db, err := records.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("backend", backend).Str("dsn", dsn).Msg("record store")
		return db, func() { _ = db.Close() }, nil
	case "memory":
		log.Warn().Msg("in-memory record store: best times are lost on restart")
		return records.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown RECORDS_BACKEND %q", backend)
}

// sweep drops sessions whose token can no longer be used.
func sweep(ctx context.Context, st store.Store, idle time.Duration) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Sweep(idle); n > 0 {
				log.Debug().Int("sessions", n).Msg("swept idle games")
			}
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
