package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/delivery"
	"github.com/mattjoyce/switchboard/internal/doctor"
	"github.com/mattjoyce/switchboard/internal/lock"
	"github.com/mattjoyce/switchboard/internal/log"
	"github.com/mattjoyce/switchboard/internal/signature"
	"github.com/mattjoyce/switchboard/internal/storage"
	"github.com/mattjoyce/switchboard/internal/webhook"
)

const version = "0.1.0"

// pruneInterval is how often the running service trims the delivery log.
const pruneInterval = time.Hour

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "signature":
		os.Exit(runSignatureNoun(args))
	case "twiml":
		os.Exit(runTwimlNoun(args))
	case "call":
		os.Exit(runCallNoun(args))
	case "sms":
		os.Exit(runSMSNoun(args))
	case "delivery":
		os.Exit(runDeliveryNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "doctor":
		os.Exit(runConfigCheck(args))
	case "version":
		fmt.Printf("switchboard version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`switchboard - Cloud telephony client and webhook gateway

Usage:
  switchboard <noun> <action> [flags]

Core Resources (Nouns):
  system     Webhook gateway lifecycle
  config     Configuration validation and integrity
  signature  Request signature tools
  twiml      Markup documents
  call       Voice calls via the REST API
  sms        Text messages via the REST API
  delivery   Received webhook deliveries

System Commands:
  system start            Start the webhook gateway in foreground

Config Commands:
  config check            Validate syntax, documents, and integrity
  config lock             Authorize current state (update integrity hashes)

Signature Commands:
  signature sign          Compute the signature for a URL and parameters
  signature validate      Check a signature against a URL and parameters

Markup Commands:
  twiml render [FILE]     Print the canonical document for markup or a plan
  twiml check [FILE]      Validate markup or a plan against the nesting rules

Call Commands:
  call list               List recent calls
  call create             Place an outbound call
  call hangup <sid>       End a call in progress
  call route <sid>        Send a live call to new markup

SMS Commands:
  sms send                Send a text message
  sms list                List recent messages

Delivery Commands:
  delivery list           List received webhook deliveries
  delivery show <id>      Show one delivery with its parameters
  delivery watch          Live view of incoming deliveries
  delivery prune          Delete deliveries past the retention window

General:
  version                 Show version information
  help                    Show this help message

Use 'switchboard <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

// action maps an action name to its runner and help printer.
type action struct {
	run  func([]string) int
	help func()
}

// dispatch runs the named action of a noun, handling help tokens the same
// way for every noun.
func dispatch(noun string, args []string, actions map[string]action, nounHelp func(*os.File)) int {
	if len(args) < 1 {
		nounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		nounHelp(os.Stdout)
		return 0
	}

	name, actionArgs := args[0], args[1:]
	a, ok := actions[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown %s action: %s\n", noun, name)
		return 1
	}
	if hasHelpFlag(actionArgs) {
		a.help()
		return 0
	}
	return a.run(actionArgs)
}

func runSystemNoun(args []string) int {
	return dispatch("system", args, map[string]action{
		"start": {runStart, printSystemStartHelp},
	}, printSystemNounHelp)
}

func runConfigNoun(args []string) int {
	return dispatch("config", args, map[string]action{
		"check": {runConfigCheck, printConfigCheckHelp},
		"lock":  {runConfigLock, printConfigLockHelp},
	}, printConfigNounHelp)
}

func isHelpToken(s string) bool {
	return s == "help" || s == "--help" || s == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

// --- HELP ---

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard system <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  start   Start the webhook gateway in foreground")
}

func printSystemStartHelp() {
	fmt.Println("Usage: switchboard system start [--config PATH]")
	fmt.Println("Serve the configured webhook endpoints until interrupted.")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard config <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  check   Validate syntax, documents, and integrity")
	fmt.Fprintln(w, "  lock    Authorize current state (update integrity hashes)")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: switchboard config check [--config PATH] [--format human|json] [--json] [--strict]")
	fmt.Println("Validate configuration. Exit 1 on errors, 2 on warnings with --strict.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: switchboard config lock [--config PATH | --config-dir DIR] [-v] [--dry-run]")
	fmt.Println("Hash config.yaml, secrets.yaml and plans/*.yaml into .checksums.")
}

// --- SHARED HELPERS ---

// resolveConfigPath returns path, or the discovered config location when
// path is empty.
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	discovered, err := config.DiscoverConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to discover config: %w", err)
	}
	return discovered, nil
}

func loadConfigForTool(path string) (*config.Config, string, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

// configDirFor returns the directory holding config.yaml for path, or ""
// when path is a standalone file outside the directory layout.
func configDirFor(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return path
	}
	if filepath.Base(path) == "config.yaml" {
		return filepath.Dir(path)
	}
	return ""
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := newFlagSet("start")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	resolved, err := resolveConfigPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if *configPath == "" {
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", resolved)
	}

	cfg, err := config.Load(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("switchboard starting", "version", version, "config", resolved)

	if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) == 0 {
		logger.Error("no webhook endpoints configured; nothing to serve")
		return 1
	}

	validator, err := signature.New(cfg.Account.SID, cfg.Account.AuthToken)
	if err != nil {
		logger.Error("failed to create signature validator", "error", err)
		return 1
	}

	webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhooks)
	if err != nil {
		logger.Error("failed to configure webhooks", "error", err)
		return 1
	}

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	store := delivery.New(db, delivery.WithDedupeTTL(cfg.Service.DedupeTTL))
	server := webhook.New(webhookConfig, validator, store, log.WithComponent("webhook"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	if cfg.Service.DeliveryRetention > 0 {
		go runPruner(ctx, store, cfg.Service.DeliveryRetention, log.WithComponent("prune"))
	}

	logger.Info("switchboard running (press Ctrl+C to stop)",
		"listen", webhookConfig.Listen,
		"endpoints", len(webhookConfig.Endpoints),
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		<-done
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("switchboard stopped")
	return 0
}

// runPruner trims the delivery log once at startup and then every
// pruneInterval until ctx is canceled.
func runPruner(ctx context.Context, store *delivery.Store, retention time.Duration, logger *slog.Logger) {
	prune := func() {
		n, err := store.Prune(ctx, retention)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("delivery prune failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Info("pruned deliveries", "removed", n, "retention", retention.String())
		}
	}

	prune()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func runConfigCheck(args []string) int {
	var configPath, format string
	var jsonOut, strict bool

	fs := newFlagSet("check")
	fs.StringVar(&configPath, "config", "", "Path to configuration file or directory")
	fs.StringVar(&format, "format", "human", "Output format: human or json")
	fs.BoolVar(&jsonOut, "json", false, "Shorthand for --format json")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as failures (exit 2)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if jsonOut {
		format = "json"
	}

	cfg, resolved, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	doc := doctor.New(cfg)
	if dir := configDirFor(resolved); dir != "" {
		doc.WithConfigDir(dir)
	}
	result := doc.Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath, configDir string
	var verbose, dryRun bool

	fs := newFlagSet("lock")
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.StringVar(&configDir, "config-dir", "", "Path to config directory")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Dry run")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if configPath != "" && configDir != "" {
		fmt.Fprintf(os.Stderr, "Error: use only one of --config or --config-dir\n")
		return 1
	}

	dir := configDir
	if dir == "" {
		resolved, err := resolveConfigPath(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		dir = configDirFor(resolved)
		if dir == "" {
			fmt.Fprintf(os.Stderr, "Error: %s is not a config directory or config.yaml\n", resolved)
			return 1
		}
	}

	files, err := config.DiscoverConfigFiles(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config files in %s: %v\n", dir, err)
		return 1
	}

	report, err := config.Lock(dir, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config in %s: %v\n", dir, err)
		return 1
	}

	if verbose {
		fmt.Printf("Processing directory: %s\n", report.ConfigDir)
		for _, file := range report.Files {
			tier := "operational"
			if files.FileTier(file.Path) == config.TierHighSecurity {
				tier = "high-security"
			}
			fmt.Printf("  HASH [%s] %s: %s\n", tier, file.Filename, file.Hash)
		}
		if dryRun {
			fmt.Printf("  DRY-RUN .checksums: %s (not written)\n", report.ChecksumPath)
		} else {
			fmt.Printf("  WROTE .checksums: %s\n", report.ChecksumPath)
		}
	}

	if dryRun {
		fmt.Printf("Dry run completed for %s (no files written)\n", report.ConfigDir)
	} else {
		fmt.Printf("Successfully locked configuration in %s\n", report.ConfigDir)
	}
	return 0
}
