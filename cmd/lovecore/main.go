// LoveCore is a data-driven runtime for episodic visual novels.
// Usage: lovecore [--version] [--plain] [--script <file>] [--trace] [content_directory]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/cli"
	"github.com/nathoo/lovecore/config"
	"github.com/nathoo/lovecore/engine"
	"github.com/nathoo/lovecore/engine/save"
	"github.com/nathoo/lovecore/loader"
	"github.com/nathoo/lovecore/logger"
	"github.com/nathoo/lovecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: lovecore [--version] [--plain] [--script <file>] [--trace] [content_directory]"

func main() {
	plain := false
	trace := false
	var contentDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("lovecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "-h", "--help":
			fmt.Println(usage)
			return
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if contentDir != "" {
		cfg.ContentDir = contentDir
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, scriptFile, plain, trace); err != nil {
		log.Error("lovecore exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, scriptFile string, plain, trace bool) error {
	// Load and validate Lua story data and the dialogue files.
	content, dialogues, err := loader.Load(cfg.ContentDir, log)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	slots, closeSlots, err := openSlots(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSlots()

	s := engine.New(engine.Content{
		Game:       content.Game,
		Characters: content.Characters,
		Events:     content,
		Idle:       content,
		Dialogues:  dialogues,
	}, engine.Options{
		Slots:               slots,
		Seed:                cfg.Seed,
		MaxEpisodes:         cfg.MaxEpisodes,
		DailyInvestigations: cfg.DailyInvestigations,
		ClueReward:          cfg.ClueReward,
		EpisodeReward:       cfg.EpisodeReward,
	}, log)
	defer s.Close()

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(s)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run(ctx)
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(s)
		c.Trace = trace
		c.Run(ctx)
		return nil
	}

	return tui.Run(ctx, s)
}

// openSlots picks the save backend named in the configuration.
func openSlots(ctx context.Context, cfg config.Config) (save.Slots, func(), error) {
	if cfg.SaveBackend == config.BackendSQLite {
		db, err := save.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	return save.NewFileSlots(cfg.SaveDir), func() {}, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
