package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/mattjoyce/fleetfix/internal/api"
	"github.com/mattjoyce/fleetfix/internal/config"
	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/events"
	"github.com/mattjoyce/fleetfix/internal/log"
	"github.com/mattjoyce/fleetfix/internal/playbook"
	"github.com/mattjoyce/fleetfix/internal/run"
	"github.com/mattjoyce/fleetfix/internal/store"
	"github.com/mattjoyce/fleetfix/internal/tui/watch"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "playbook":
		return runPlaybookNoun(args)
	case "run":
		return runRunNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`fleetfix - Remediation playbook run dispatch service

Usage:
  fleetfix <noun> <action> [flags]

Core Resources (Nouns):
  system    Service lifecycle and health
  playbook  Playbook inspection
  run       Playbook run monitoring

System Commands:
  system start      Start the service in foreground
  system watch      Real-time run monitoring TUI

Playbook Commands:
  playbook check    Validate a rendered playbook file

Run Commands:
  run watch         Alias for system watch

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'fleetfix <noun> help' for resource-specific flags.
`)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: fleetfix version [--json]")
		return 1
	}

	info := versionInfo{Version: version, Commit: gitCommit, BuildTime: buildDate}

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("fleetfix %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}
	switch args[0] {
	case "start":
		return runStart(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system command: %s\n", args[0])
		return 1
	}
}

func runPlaybookNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fleetfix playbook check <file>")
		return 1
	}
	switch args[0] {
	case "check":
		return runPlaybookCheck(args[1:])
	case "help", "--help", "-h":
		fmt.Println("Usage: fleetfix playbook check <file>")
		fmt.Println()
		fmt.Println("Validate that a file is a well-formed Ansible playbook:")
		fmt.Println("a YAML sequence of plays, each with hosts and tasks.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown playbook command: %s\n", args[0])
		return 1
	}
}

func runRunNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fleetfix run watch [flags]")
		return 1
	}
	switch args[0] {
	case "watch":
		return runWatch(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown run command: %s\n", args[0])
		return 1
	}
}

// --- COMMANDS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "fleetfix.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("fleetfix starting", "version", version, "config", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.OpenSQLite(ctx, cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Store.Path, "error", err)
		return 1
	}
	defer db.Close()

	if err := store.BootstrapSQLite(ctx, db); err != nil {
		logger.Error("failed to bootstrap database schema", "error", err)
		return 1
	}
	logger.Info("database opened", "path", cfg.Store.Path)

	var client dispatcher.Client
	if cfg.Dispatcher.Mock {
		client = dispatcher.NewMock()
		logger.Warn("using in-memory mock dispatcher client")
	} else {
		client = dispatcher.NewHTTPClient(cfg.Dispatcher.BaseURL, cfg.Dispatcher.PSK, cfg.Dispatcher.Timeout)
		logger.Info("dispatcher client configured", "base_url", cfg.Dispatcher.BaseURL)
	}

	engine := run.NewService(store.NewSQLite(db), client, playbook.YAMLRenderer{}, cfg.Playbook)
	hub := events.NewHub(256)

	apiServer := api.New(api.Config{
		Listen: cfg.API.Listen,
		Tokens: cfg.API.Tokens,
	}, engine, client, hub, log.WithComponent("api"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	logger.Info("fleetfix running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("API server failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("fleetfix stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "Service API URL")
	apiKey := fs.String("api-key", os.Getenv("FLEETFIX_API_KEY"), "API Bearer Token")
	remediationID := fs.String("remediation", "", "Remediation id to watch")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or FLEETFIX_API_KEY env var.")
		return 1
	}
	if *remediationID == "" {
		fmt.Fprintln(os.Stderr, "Error: --remediation is required.")
		return 1
	}

	m := watch.New(*apiURL, *apiKey, *remediationID)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runPlaybookCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: fleetfix playbook check <file>")
		return 1
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		color.Red("✗ %s: %v", args[0], err)
		return 1
	}

	if err := playbook.Validate(content); err != nil {
		color.Red("✗ %s: %v", args[0], err)
		return 1
	}

	color.Green("✓ %s is a valid playbook", args[0])
	return 0
}
