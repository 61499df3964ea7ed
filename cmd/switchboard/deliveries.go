package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/mattjoyce/switchboard/internal/delivery"
	"github.com/mattjoyce/switchboard/internal/storage"
	"github.com/mattjoyce/switchboard/internal/tui/watch"
)

func runDeliveryNoun(args []string) int {
	return dispatch("delivery", args, map[string]action{
		"list":  {runDeliveryList, printDeliveryListHelp},
		"show":  {runDeliveryShow, printDeliveryShowHelp},
		"watch": {runDeliveryWatch, printDeliveryWatchHelp},
		"prune": {runDeliveryPrune, printDeliveryPruneHelp},
	}, printDeliveryNounHelp)
}

func printDeliveryNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard delivery <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  list        List received webhook deliveries")
	fmt.Fprintln(w, "  show <id>   Show one delivery with its parameters")
	fmt.Fprintln(w, "  watch       Live view of incoming deliveries")
	fmt.Fprintln(w, "  prune       Delete deliveries past the retention window")
}

func printDeliveryListHelp() {
	fmt.Println("Usage: switchboard delivery list [--endpoint NAME] [--call SID] [--since DURATION] [--limit N] [--json] [--config PATH]")
}

func printDeliveryShowHelp() {
	fmt.Println("Usage: switchboard delivery show <id> [--json] [--config PATH]")
}

func printDeliveryWatchHelp() {
	fmt.Println("Usage: switchboard delivery watch [--endpoint NAME] [--interval DURATION] [--config PATH]")
	fmt.Println("Poll the state database and show deliveries as they arrive. Press q to quit.")
}

func printDeliveryPruneHelp() {
	fmt.Println("Usage: switchboard delivery prune [--older-than DURATION] [--config PATH]")
	fmt.Println("Defaults to service.delivery_retention.")
}

// deliveryFlags holds the flags shared by the delivery actions.
type deliveryFlags struct {
	configPath string
	endpoint   string
}

func (d *deliveryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&d.configPath, "config", "", "Path to configuration file or directory")
	fs.StringVar(&d.endpoint, "endpoint", "", "Only deliveries to this endpoint name")
}

// openDeliveryStore loads the config and opens the delivery log it names.
func openDeliveryStore(ctx context.Context, configPath string) (*delivery.Store, *sql.DB, time.Duration, error) {
	cfg, _, err := loadConfigForTool(configPath)
	if err != nil {
		return nil, nil, 0, err
	}
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open database %s: %w", cfg.State.Path, err)
	}
	store := delivery.New(db, delivery.WithDedupeTTL(cfg.Service.DedupeTTL))
	return store, db, cfg.Service.DeliveryRetention, nil
}

func runDeliveryList(args []string) int {
	var common deliveryFlags
	var callSID string
	var since time.Duration
	var limit int
	var jsonOut bool

	fs := newFlagSet("list")
	common.register(fs)
	fs.StringVar(&callSID, "call", "", "Only deliveries for this call SID")
	fs.DurationVar(&since, "since", 0, "Only deliveries received within this window (e.g. 1h)")
	fs.IntVar(&limit, "limit", delivery.DefaultListLimit, "Maximum number of deliveries")
	fs.BoolVar(&jsonOut, "json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, db, _, err := openDeliveryStore(ctx, common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()

	filter := delivery.Filter{Endpoint: common.endpoint, CallSID: callSID, Limit: limit}
	if since > 0 {
		filter.Since = time.Now().Add(-since)
	}
	ds, err := store.List(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOut {
		return printJSON(ds)
	}
	if len(ds) == 0 {
		fmt.Println("No deliveries found.")
		return 0
	}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		sid := d.CallSID
		if d.MessageSID != "" {
			sid = d.MessageSID
		}
		dup := ""
		if d.Duplicate {
			dup = "yes"
		}
		rows = append(rows, []string{
			d.ID,
			d.ReceivedAt.Local().Format(time.DateTime),
			d.Endpoint,
			d.Status,
			sid,
			dup,
		})
	}
	fmt.Println(renderTable([]string{"ID", "Received", "Endpoint", "Status", "SID", "Duplicate"}, rows))
	return 0
}

func runDeliveryShow(args []string) int {
	var configPath string
	var jsonOut bool
	fs := newFlagSet("show")
	fs.StringVar(&configPath, "config", "", "Path to configuration file or directory")
	fs.BoolVar(&jsonOut, "json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		printDeliveryShowHelp()
		return 1
	}

	ctx := context.Background()
	store, db, _, err := openDeliveryStore(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()

	d, err := store.Get(ctx, fs.Arg(0))
	if errors.Is(err, delivery.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Delivery %s not found\n", fs.Arg(0))
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOut {
		return printJSON(d)
	}
	fmt.Printf("%s %s\n", headerStyle.Render("Delivery"), d.ID)
	fmt.Printf("  Endpoint:  %s\n", d.Endpoint)
	fmt.Printf("  Received:  %s\n", d.ReceivedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Status:    %s\n", d.Status)
	if d.CallSID != "" {
		fmt.Printf("  Call:      %s\n", d.CallSID)
	}
	if d.MessageSID != "" {
		fmt.Printf("  Message:   %s\n", d.MessageSID)
	}
	fmt.Printf("  Duplicate: %t\n", d.Duplicate)

	keys := make([]string, 0, len(d.Params))
	for k := range d.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, d.Params[k]})
	}
	if len(rows) > 0 {
		fmt.Println(renderTable([]string{"Parameter", "Value"}, rows))
	}
	return 0
}

func runDeliveryWatch(args []string) int {
	var common deliveryFlags
	var interval time.Duration
	fs := newFlagSet("watch")
	common.register(fs)
	fs.DurationVar(&interval, "interval", watch.DefaultInterval, "Poll interval")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	resolved, err := resolveConfigPath(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	ctx := context.Background()
	store, db, _, err := openDeliveryStore(ctx, resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()

	m := watch.New(store, watch.Options{
		Label:    resolved,
		Filter:   delivery.Filter{Endpoint: common.endpoint},
		Interval: interval,
	})
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running watch: %v\n", err)
		return 1
	}
	return 0
}

func runDeliveryPrune(args []string) int {
	var configPath string
	var olderThan time.Duration
	fs := newFlagSet("prune")
	fs.StringVar(&configPath, "config", "", "Path to configuration file or directory")
	fs.DurationVar(&olderThan, "older-than", 0, "Delete deliveries older than this (default service.delivery_retention)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, db, retention, err := openDeliveryStore(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()

	if olderThan <= 0 {
		olderThan = retention
	}
	n, err := store.Prune(ctx, olderThan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Pruned %d deliveries older than %s\n", n, olderThan)
	return 0
}
