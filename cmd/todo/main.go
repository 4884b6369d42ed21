package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"taskpad/internal/cli"
	"taskpad/internal/config"
	"taskpad/internal/kv"
	"taskpad/internal/logging"
	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	group := flag.Bool("group", false, "group output by pending/done")
	configPath := flag.String("config", config.ResolveConfigPath(), "path to config.toml")
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	os.Exit(run(*configPath, flag.Args(), *group))
}

func run(configPath string, args []string, group bool) int {
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	interactive := len(args) == 0 || args[0] == "tui"
	log, closeLog := newLogger(cfg, interactive)
	defer closeLog()

	kvs, err := kv.Open(cfg.Backend, cfg.DataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s store: %v\n", cfg.Backend, err)
		return 1
	}
	defer kvs.Close()

	adapter := storage.New(kvs, cfg.StorageKey, log)
	s := store.Open(adapter,
		store.WithLogger(log),
		store.WithSortPersistence(cfg.PersistSort),
	)

	if interactive {
		if err := ui.Run(s, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
			return 1
		}
		return 0
	}

	code := cli.Run(s, args, cli.Options{Group: group})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}

// newLogger keeps the TUI's alternate screen clean by logging to a file.
func newLogger(cfg config.Config, interactive bool) (*slog.Logger, func()) {
	if !interactive {
		return logging.New(os.Stderr, cfg.LogLevel), func() {}
	}
	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		return logging.New(io.Discard, cfg.LogLevel), func() {}
	}
	return logging.New(f, cfg.LogLevel), func() { f.Close() }
}
