package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/log"
	"github.com/mattjoyce/switchboard/internal/rest"
)

// apiTimeout bounds each CLI request to the REST API.
const apiTimeout = 30 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF"))

func runCallNoun(args []string) int {
	return dispatch("call", args, map[string]action{
		"list":   {runCallList, printCallListHelp},
		"create": {runCallCreate, printCallCreateHelp},
		"hangup": {runCallHangup, printCallHangupHelp},
		"route":  {runCallRoute, printCallRouteHelp},
	}, printCallNounHelp)
}

func runSMSNoun(args []string) int {
	return dispatch("sms", args, map[string]action{
		"send": {runSMSSend, printSMSSendHelp},
		"list": {runSMSList, printSMSListHelp},
	}, printSMSNounHelp)
}

func printCallNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard call <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  list          List recent calls")
	fmt.Fprintln(w, "  create        Place an outbound call")
	fmt.Fprintln(w, "  hangup <sid>  End a call in progress")
	fmt.Fprintln(w, "  route <sid>   Send a live call to new markup")
}

func printCallListHelp() {
	fmt.Println("Usage: switchboard call list [--to NUM] [--from NUM] [--status STATUS] [--limit N] [--json] [--config PATH]")
}

func printCallCreateHelp() {
	fmt.Println("Usage: switchboard call create --to NUM --from NUM --url URL [--method GET|POST] [--timeout SECONDS] [--status-callback URL] [--json]")
}

func printCallHangupHelp() {
	fmt.Println("Usage: switchboard call hangup <sid> [--config PATH]")
}

func printCallRouteHelp() {
	fmt.Println("Usage: switchboard call route <sid> --url URL [--method GET|POST] [--config PATH]")
}

func printSMSNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard sms <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  send   Send a text message")
	fmt.Fprintln(w, "  list   List recent messages")
}

func printSMSSendHelp() {
	fmt.Println("Usage: switchboard sms send --to NUM --from NUM --body TEXT [--status-callback URL] [--json] [--config PATH]")
}

func printSMSListHelp() {
	fmt.Println("Usage: switchboard sms list [--to NUM] [--from NUM] [--limit N] [--json] [--config PATH]")
}

// restClient builds an API client from the account section of the config,
// falling back to the credential environment variables.
func restClient(configPath string) (*rest.Client, error) {
	opts := []rest.Option{rest.WithLogger(log.WithComponent("rest"))}

	resolved := configPath
	if resolved == "" {
		if discovered, err := config.DiscoverConfigDir(); err == nil {
			resolved = discovered
		}
	}
	if resolved != "" {
		cfg, err := config.Load(resolved)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.Account.SID != "" && cfg.Account.AuthToken != "" {
			return rest.New(cfg.Account.SID, cfg.Account.AuthToken, append(opts, rest.WithBaseURL(cfg.Account.BaseURL))...)
		}
	}
	return rest.FromEnv(opts...)
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// apiFlags holds the flags every API action accepts.
type apiFlags struct {
	configPath string
	jsonOut    bool
}

func (a *apiFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&a.configPath, "config", "", "Path to configuration file or directory")
	fs.BoolVar(&a.jsonOut, "json", false, "Output in structured JSON format")
}

func runCallList(args []string) int {
	var common apiFlags
	var filter rest.CallFilter
	var limit int

	fs := newFlagSet("list")
	common.register(fs)
	fs.StringVar(&filter.To, "to", "", "Only calls to this number")
	fs.StringVar(&filter.From, "from", "", "Only calls from this number")
	fs.StringVar(&filter.Status, "status", "", "Only calls in this status")
	fs.IntVar(&limit, "limit", 20, "Maximum number of calls")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	page, err := client.Calls.List(ctx, filter, rest.PageOptions{PageSize: limit})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(page.Items)
	}
	if len(page.Items) == 0 {
		fmt.Println("No calls found.")
		return 0
	}
	rows := make([][]string, 0, len(page.Items))
	for _, c := range page.Items {
		rows = append(rows, []string{c.SID, c.From, c.To, c.Status, c.StartTime, c.Duration})
	}
	fmt.Println(renderTable([]string{"SID", "From", "To", "Status", "Started", "Duration"}, rows))
	return 0
}

func runCallCreate(args []string) int {
	var common apiFlags
	var p rest.CallParams
	var timeout int

	fs := newFlagSet("create")
	common.register(fs)
	fs.StringVar(&p.To, "to", "", "Number to call")
	fs.StringVar(&p.From, "from", "", "Caller ID (a verified or purchased number)")
	fs.StringVar(&p.URL, "url", "", "URL that returns the call's markup")
	fs.StringVar(&p.Method, "method", "", "HTTP method for --url (default POST)")
	fs.StringVar(&p.StatusCallback, "status-callback", "", "URL notified when the call ends")
	fs.StringVar(&p.SendDigits, "send-digits", "", "Keys to dial after connecting")
	fs.IntVar(&timeout, "timeout", 0, "Seconds to let the call ring")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if p.To == "" || p.From == "" || p.URL == "" {
		fmt.Fprintln(os.Stderr, "Error: --to, --from and --url are required")
		return 1
	}
	if fs.Changed("timeout") {
		p.Timeout = &timeout
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	call, err := client.Calls.Create(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(call)
	}
	fmt.Printf("Call %s created (%s)\n", call.SID, call.Status)
	return 0
}

func runCallHangup(args []string) int {
	var common apiFlags
	fs := newFlagSet("hangup")
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		printCallHangupHelp()
		return 1
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	call, err := client.Calls.Hangup(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(call)
	}
	fmt.Printf("Call %s: %s\n", call.SID, call.Status)
	return 0
}

func runCallRoute(args []string) int {
	var common apiFlags
	var target, method string
	fs := newFlagSet("route")
	common.register(fs)
	fs.StringVar(&target, "url", "", "URL that returns the new markup")
	fs.StringVar(&method, "method", "", "HTTP method for --url (default POST)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 || target == "" {
		printCallRouteHelp()
		return 1
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	call, err := client.Calls.Route(ctx, fs.Arg(0), target, method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(call)
	}
	fmt.Printf("Call %s routed to %s\n", call.SID, target)
	return 0
}

func runSMSSend(args []string) int {
	var common apiFlags
	var p rest.MessageParams

	fs := newFlagSet("send")
	common.register(fs)
	fs.StringVar(&p.To, "to", "", "Recipient number")
	fs.StringVar(&p.From, "from", "", "Sending number")
	fs.StringVar(&p.Body, "body", "", "Message text")
	fs.StringVar(&p.StatusCallback, "status-callback", "", "URL notified on delivery status changes")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if p.To == "" || p.From == "" || p.Body == "" {
		fmt.Fprintln(os.Stderr, "Error: --to, --from and --body are required")
		return 1
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	msg, err := client.Messages.Send(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(msg)
	}
	fmt.Printf("Message %s %s\n", msg.SID, msg.Status)
	return 0
}

func runSMSList(args []string) int {
	var common apiFlags
	var filter rest.MessageFilter
	var limit int

	fs := newFlagSet("list")
	common.register(fs)
	fs.StringVar(&filter.To, "to", "", "Only messages to this number")
	fs.StringVar(&filter.From, "from", "", "Only messages from this number")
	fs.IntVar(&limit, "limit", 20, "Maximum number of messages")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	client, err := restClient(common.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()
	page, err := client.Messages.List(ctx, filter, rest.PageOptions{PageSize: limit})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if common.jsonOut {
		return printJSON(page.Items)
	}
	if len(page.Items) == 0 {
		fmt.Println("No messages found.")
		return 0
	}
	rows := make([][]string, 0, len(page.Items))
	for _, m := range page.Items {
		rows = append(rows, []string{m.SID, m.From, m.To, m.Status, m.DateSent, m.Body})
	}
	fmt.Println(renderTable([]string{"SID", "From", "To", "Status", "Sent", "Body"}, rows))
	return 0
}
