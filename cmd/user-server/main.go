// Command user-server serves CRUD on the "user" table over HTTP. It runs the
// embedded migrations on Postgres before serving.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/database"
	"github.com/rzpsarthak13/sqlobjects/pkg/sqlobjects"
)

func main() {
	configPath := flag.String("config", os.Getenv("SQLOBJECTS_CONFIG"), "path to a YAML or JSON config file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	migrate := flag.Bool("migrate", true, "run database migrations before serving (postgres only)")
	flag.Parse()

	cfg, err := sqlobjects.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *addr, *migrate, logger); err != nil {
		logger.Fatal().Err(err).Msg("user-server failed")
	}
}

func run(ctx context.Context, cfg *sqlobjects.Config, addr string, migrate bool, logger zerolog.Logger) error {
	if migrate && cfg.Database.Type == database.TypePostgres {
		if err := database.Migrate(ctx, cfg.Database, logger); err != nil {
			return err
		}
	}

	client, err := sqlobjects.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	users, err := sqlobjects.Register(ctx, client, userSchema)
	if err != nil {
		return err
	}
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Stop()

	return serve(ctx, newServer(client, users, logger), addr, logger)
}
