package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/peachleaf/internal/commands"
	"github.com/1broseidon/peachleaf/internal/config"
	"github.com/1broseidon/peachleaf/internal/daemon"
	"github.com/1broseidon/peachleaf/internal/hotkeys"
	"github.com/1broseidon/peachleaf/internal/lifecycle"
	"github.com/1broseidon/peachleaf/internal/metadata"
	"github.com/1broseidon/peachleaf/internal/notes"
	"github.com/1broseidon/peachleaf/internal/paths"
	"github.com/1broseidon/peachleaf/internal/platform"
	"github.com/1broseidon/peachleaf/internal/state"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runApp(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "cleanup":
		os.Exit(runCleanup(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: peachleaf <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Restore saved notes and run (foreground)")
	fmt.Fprintln(w, "  state               Show the saved window state")
	fmt.Fprintln(w, "  window <id>         Show one saved window")
	fmt.Fprintln(w, "  cleanup             Delete note files no saved window references")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Data lives in ~/.peach-leaf (override with %s).\n", paths.HomeEnv)
	fmt.Fprintln(w, "Run 'peachleaf <command> --help' for command-specific options.")
}

func runApp(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.peach-leaf/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: peachleaf run [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Restore the previous session and keep it saved until interrupted.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	cfgPath, err := paths.Expand(*configPath)
	if *configPath == "" {
		cfgPath, err = config.DefaultConfigPath()
	}
	if err != nil {
		log.Fatalf("Failed to resolve config path: %v", err)
	}
	cfg, err := config.LoadFromPath(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	statePath, err := paths.StatePath()
	if err != nil {
		log.Fatalf("Failed to resolve state path: %v", err)
	}
	noteStore, err := notes.Open()
	if err != nil {
		log.Fatalf("Failed to open notes directory: %v", err)
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()
	backend.SetScaleFactor(cfg.ScaleFactor)

	mgr, err := lifecycle.New(lifecycle.Options{
		Backend: backend,
		Store:   state.NewStore(statePath),
		Cache:   metadata.New(noteStore.Dir()),
		Notes:   noteStore,
		Logger:  logger,
		Config:  cfg,
	})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := daemon.NewSnapshotQueue(mgr.SaveState, logger)
	mgr.SetSnapshotQueue(queue)
	go queue.Run(ctx)

	dispatcher := commands.NewDispatcher(mgr)

	if err := mgr.Startup(ctx); err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}

	hotkeyHandler := hotkeys.NewHandler(backend, dispatcher)
	if cfg.NewNoteHotkey != "" {
		if err := hotkeyHandler.Register(cfg.NewNoteHotkey); err != nil {
			log.Printf("Warning: Failed to register new note hotkey: %v", err)
		} else {
			log.Printf("New note hotkey registered: %s", cfg.NewNoteHotkey)
		}
	}

	if cfg.AutosaveInterval > 0 {
		autosaver := daemon.NewAutosaver(daemon.AutosaverConfig{
			Interval: cfg.AutosaveInterval,
			Logger:   logger,
		}, mgr)
		go autosaver.Run(ctx)
	}

	apply := func(newCfg *config.Config) {
		mgr.UpdateConfig(newCfg)
		backend.SetScaleFactor(newCfg.ScaleFactor)
		level.Set(newCfg.SlogLevel())
		if newCfg.AutosaveInterval != cfg.AutosaveInterval || newCfg.NewNoteHotkey != cfg.NewNoteHotkey {
			log.Println("autosave_interval and new_note_hotkey changes apply after restart")
		}
	}
	watcher := config.NewWatcher(cfgPath, logger, apply)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Printf("Config watcher stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				watcher.Reload()

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down peachleaf...")
				if err := mgr.SaveState(); err != nil {
					log.Printf("Failed to save window state: %v", err)
				}
				hotkeyHandler.Unregister()
				cancel()
				backend.Quit()
				return
			}
		}
	}()

	log.Println("Entering event loop...")
	backend.EventLoop()
	return 0
}
