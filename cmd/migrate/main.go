package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/config"
	"github.com/JadeHendricks/mern-devconnector/internal/db"
	"github.com/JadeHendricks/mern-devconnector/internal/observability"
)

const usage = `usage: migrate [up|down|status|version|redo|reset]

Applies the embedded schema migrations to DB_URL.`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case "up", "down", "status", "version", "redo", "reset":
	default:
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DB.URL, 1)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, command, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		log.Error("migration failed", "command", command, "err", err)
		pool.Close()
		os.Exit(1)
	}

	log.Info("migration finished", "command", command)
}
