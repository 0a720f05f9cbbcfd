// Command migrate runs goose commands against the configured database.
//
//	migrate [-dsn url] up|down|status|version|redo|reset
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/carcraze/marketplace-api/internal/config"
	"github.com/carcraze/marketplace-api/internal/migrations"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dsn := flag.String("dsn", "", "database url (defaults to the DB_* environment)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		*dsn = cfg.DB.DSN()
	}

	if err := run(*dsn, command, flag.Args()...); err != nil {
		log.Error("migrate", "command", command, "error", err)
		os.Exit(1)
	}
	log.Info("migrate done", "command", command)
}

func run(dsn, command string, args ...string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var extra []string
	if len(args) > 1 {
		extra = args[1:]
	}
	return migrations.Run(context.Background(), db, command, extra...)
}
