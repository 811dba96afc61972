package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/migrations"
	"github.com/noah-isme/study-planner-api/pkg/config"
	"github.com/noah-isme/study-planner-api/pkg/database"
	"github.com/noah-isme/study-planner-api/pkg/logger"
)

var gooseRunFunc = goose.RunContext // mockable

const usage = `usage: migrate <command> [args]

commands:
  up          apply all pending migrations
  up-by-one   apply the next pending migration
  down        roll back the latest migration
  redo        roll back and re-apply the latest migration
  status      print migration status
  version     print the current schema version`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := run(ctx, db.DB, flag.Args()); err != nil {
		logr.Fatal("migration failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
	logr.Info("migration complete", zap.String("command", flag.Arg(0)))
}

func run(ctx context.Context, db *sql.DB, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing migrate command")
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(ctx, args[0], db, ".", args[1:]...)
}
