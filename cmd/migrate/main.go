// Command migrate applies the embedded schema migrations.
//
//	go run ./cmd/migrate -cmd up
//	go run ./cmd/migrate -cmd down
//	go run ./cmd/migrate -cmd status
//	go run ./cmd/migrate -cmd up-to -version 20260301090100
//	go run ./cmd/migrate -cmd list
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/config"
	"github.com/fairyhunter13/sneaker-checkout/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|reset|up-to|down-to|list")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for up-to and down-to")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	// config.Load reads .env before the environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("cmd", *cmd).Logger()

	if *cmd == "list" {
		files, err := migrate.Files()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list migrations")
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			fmt.Fprintf(os.Stderr, "missing -version for %s\n", *cmd)
			os.Exit(1)
		}
		args = append(args, *version)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := migrate.Open(cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reach database")
	}

	if err := migrate.Run(ctx, db, *cmd, args...); err != nil {
		log.Error().Err(err).Msg("migration failed")
		_ = db.Close()
		os.Exit(1)
	}
	log.Info().Msg("migration finished")
}
