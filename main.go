package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/AkatukiSora/hhreplay/internal/application"
	"github.com/AkatukiSora/hhreplay/internal/applog"
	"github.com/AkatukiSora/hhreplay/internal/config"
	"github.com/AkatukiSora/hhreplay/internal/persistence"
)

var (
	version   = "dev"
	commit    = "local"
	buildDate = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"HCL config file" default:"${config_file}" type:"path"`
	EnvFile  string `name:"env-file" help:"dotenv file loaded before the environment is read" type:"path"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	Debug    bool   `help:"Enable debug logging"`
	DB       string `name:"db" help:"SQLite database path (overrides config)" type:"path"`
	Memory   bool   `help:"Keep the hand library in memory for this run only"`

	cfg *config.Config `kong:"-"`
}

// CLI is the hhreplay command tree.
type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Parse   ParseCmd         `cmd:"" help:"Parse a hand-history file and print its hands"`
	Import  ImportCmd        `cmd:"" help:"Import hand-history files or a directory into the library"`
	Watch   WatchCmd         `cmd:"" help:"Import a hand-history directory and keep importing changed files"`
	List    ListCmd          `cmd:"" help:"List hands in the library, newest first"`
	Show    ShowCmd          `cmd:"" help:"Print one hand from the library"`
	Replay  ReplayCmd        `cmd:"" help:"Step through a hand action by action"`
	Export  ExportCmd        `cmd:"" help:"Export hands as PHH (TOML)"`
	Range   RangeCmd         `cmd:"" help:"Resolve the open-raise range chart for a hand"`
	Stats   StatsCmd         `cmd:"" help:"Aggregate player statistics over the library"`
	Runs    RunsCmd          `cmd:"" help:"Show recent import runs"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hhreplay"),
		kong.Description("Parse, store and replay poker hand histories"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     fmt.Sprintf("%s (%s, %s)", version, commit, buildDate),
			"config_file": config.DefaultFile,
		},
		kong.Bind(&cli.Globals),
	)
	err := cli.Globals.init()
	ctx.FatalIfErrorf(err)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

// init loads the configuration and sets up logging. Flags win over the
// config file and the environment.
func (g *Globals) init() error {
	cfg, err := config.Load(g.Config, g.EnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if g.DB != "" {
		cfg.DatabasePath = g.DB
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	applog.Init(cfg.LogLevel, cfg.Debug)
	if applog.IsDebug() {
		slog.Debug("debug logging enabled", "log_file", applog.LogPath(), "version", version)
	}
	slog.Debug("configuration loaded", "db", cfg.DatabasePath, "hands_dir", cfg.HandsDir, "pattern", cfg.HandsPattern)
	return nil
}

// openService builds the application service on the configured repository.
// When SQLite cannot be opened the library falls back to memory for this run.
func (g *Globals) openService() (*application.Service, func(), error) {
	opts := []application.Option{application.WithWorkers(g.cfg.Workers)}
	if g.Memory {
		return application.NewService(persistence.NewMemoryRepository(), opts...), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(g.cfg.DatabasePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}
	repo, err := persistence.NewSQLiteRepository(g.cfg.DatabasePath)
	if err != nil {
		slog.Warn("failed to initialize sqlite repository, using memory", "path", g.cfg.DatabasePath, "error", err)
		return application.NewService(persistence.NewMemoryRepository(), opts...), func() {}, nil
	}
	closeRepo := func() {
		if err := repo.Close(); err != nil {
			slog.Warn("close sqlite repository", "error", err)
		}
	}
	return application.NewService(repo, opts...), closeRepo, nil
}

// exitOnCancel turns a cancelled context into a clean exit.
func exitOnCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
