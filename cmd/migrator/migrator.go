package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	tools "github.com/NordCoder/Hookery/internal/config/tools"
	"github.com/NordCoder/Hookery/internal/obs"
	"github.com/NordCoder/Hookery/migrations"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct{ *zap.SugaredLogger }

func (l gooseLogger) Printf(format string, v ...any) { l.Infof(format, v...) }

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrator [up|up-by-one|up-to V|down|down-to V|redo|reset|status|version]")
	}
	flag.Parse()
	command := "up"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := tools.LoadMigrator()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := obs.NewLogger(cfg.Log.AsLoggerConfig("hookery/migrator"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, command, args); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
}

func run(cfg *tools.Migrator, logger *zap.Logger, command string, args []string) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(cfg.Table)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	logger.Info("migrations done", zap.String("command", command), zap.Int64("version", version))
	return nil
}
