package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/rest"
	"github.com/mattjoyce/switchboard/internal/signature"
	"github.com/mattjoyce/switchboard/internal/twiml"
	"github.com/mattjoyce/switchboard/internal/webhook"
)

func runSignatureNoun(args []string) int {
	return dispatch("signature", args, map[string]action{
		"sign":     {runSignatureSign, printSignatureSignHelp},
		"validate": {runSignatureValidate, printSignatureValidateHelp},
	}, printSignatureNounHelp)
}

func runTwimlNoun(args []string) int {
	return dispatch("twiml", args, map[string]action{
		"render": {runTwimlRender, printTwimlRenderHelp},
		"check":  {runTwimlCheck, printTwimlCheckHelp},
	}, printTwimlNounHelp)
}

func printSignatureNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard signature <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  sign       Compute the signature for a URL and parameters")
	fmt.Fprintln(w, "  validate   Check a signature against a URL and parameters")
}

func printSignatureSignHelp() {
	fmt.Println("Usage: switchboard signature sign --url URL [-p KEY=VALUE ...] [--body FORM] [--token TOKEN] [--config PATH]")
	fmt.Println("Print the base64 HMAC-SHA1 signature the provider would send.")
	fmt.Printf("The auth token comes from --token, then %s, then account.auth_token.\n", rest.EnvAuthToken)
}

func printSignatureValidateHelp() {
	fmt.Println("Usage: switchboard signature validate --url URL --signature SIG [-p KEY=VALUE ...] [--body FORM] [--token TOKEN] [--config PATH]")
	fmt.Println("Exit 0 when the signature matches, 1 otherwise.")
}

func printTwimlNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: switchboard twiml <action> [flags]")
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  render   Print the canonical document for markup or a plan")
	fmt.Fprintln(w, "  check    Validate markup or a plan against the nesting rules")
}

func printTwimlRenderHelp() {
	fmt.Println("Usage: switchboard twiml render [FILE|-] [--plan] | --endpoint PATH [--config PATH]")
	fmt.Println("Read markup (or a YAML plan with --plan) and print the canonical document.")
}

func printTwimlCheckHelp() {
	fmt.Println("Usage: switchboard twiml check [FILE|-] [--plan] | --endpoint PATH [--config PATH]")
	fmt.Println("Exit 0 when the document is valid, 1 otherwise.")
}

// signatureInput holds the flags shared by sign and validate.
type signatureInput struct {
	configPath string
	token      string
	uri        string
	params     []string
	body       string
}

func (in *signatureInput) register(fs *pflag.FlagSet) {
	fs.StringVar(&in.configPath, "config", "", "Path to configuration file or directory")
	fs.StringVar(&in.token, "token", "", "Auth token used as the signing key")
	fs.StringVar(&in.uri, "url", "", "Full URL the provider requested, including any query string")
	fs.StringArrayVarP(&in.params, "param", "p", nil, "POST parameter as KEY=VALUE (repeatable)")
	fs.StringVar(&in.body, "body", "", "URL-encoded POST body, merged with --param")
}

func (in *signatureInput) validator() (*signature.Validator, error) {
	token := in.token
	if token == "" {
		token = os.Getenv(rest.EnvAuthToken)
	}
	if token == "" {
		cfg, _, err := loadConfigForTool(in.configPath)
		if err != nil {
			return nil, fmt.Errorf("no --token or %s, and config unavailable: %w", rest.EnvAuthToken, err)
		}
		token = cfg.Account.AuthToken
	}
	return signature.New("", token)
}

func (in *signatureInput) values() (map[string]string, error) {
	form := url.Values{}
	if in.body != "" {
		parsed, err := url.ParseQuery(in.body)
		if err != nil {
			return nil, fmt.Errorf("parse --body: %w", err)
		}
		form = parsed
	}
	for _, kv := range in.params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q (expected KEY=VALUE)", kv)
		}
		form.Add(k, v)
	}
	return signature.FormParams(form), nil
}

func runSignatureSign(args []string) int {
	var in signatureInput
	fs := newFlagSet("sign")
	in.register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if in.uri == "" {
		fmt.Fprintln(os.Stderr, "Error: --url is required")
		return 1
	}

	params, err := in.values()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	v, err := in.validator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println(v.Sign(in.uri, params))
	return 0
}

func runSignatureValidate(args []string) int {
	var in signatureInput
	var sig string
	fs := newFlagSet("validate")
	in.register(fs)
	fs.StringVar(&sig, "signature", "", "Value of the "+signature.Header+" header")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if in.uri == "" || sig == "" {
		fmt.Fprintln(os.Stderr, "Error: --url and --signature are required")
		return 1
	}

	params, err := in.values()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	v, err := in.validator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !v.Validate(in.uri, params, sig) {
		fmt.Println("Signature invalid.")
		return 1
	}
	fmt.Println("Signature valid.")
	return 0
}

// documentInput holds the flags shared by render and check.
type documentInput struct {
	configPath string
	endpoint   string
	plan       bool
}

func (in *documentInput) register(fs *pflag.FlagSet) {
	fs.StringVar(&in.configPath, "config", "", "Path to configuration file or directory")
	fs.StringVar(&in.endpoint, "endpoint", "", "Use the document of the configured webhook endpoint with this path")
	fs.BoolVar(&in.plan, "plan", false, "Input is a YAML plan instead of markup")
}

// load builds the document from a configured endpoint, a file, or stdin.
func (in *documentInput) load(positional []string) (*twiml.Element, error) {
	if in.endpoint != "" {
		return in.loadEndpoint()
	}

	src := "-"
	if len(positional) > 0 {
		src = positional[0]
	}
	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}

	if in.plan {
		var steps []config.PlanStep
		if err := yaml.Unmarshal(data, &steps); err != nil {
			return nil, fmt.Errorf("parse plan: %w", err)
		}
		return webhook.CompilePlan(steps)
	}
	return twiml.Parse(string(data))
}

func (in *documentInput) loadEndpoint() (*twiml.Element, error) {
	cfg, _, err := loadConfigForTool(in.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Webhooks == nil {
		return nil, fmt.Errorf("no webhooks configured")
	}
	for _, ep := range cfg.Webhooks.Endpoints {
		if ep.Path != in.endpoint {
			continue
		}
		wc, err := webhook.FromGlobalConfig(&config.WebhooksConfig{Endpoints: []config.WebhookEndpoint{ep}})
		if err != nil {
			return nil, err
		}
		return wc.Endpoints[0].Document, nil
	}
	return nil, fmt.Errorf("no webhook endpoint with path %q", in.endpoint)
}

func runTwimlRender(args []string) int {
	var in documentInput
	fs := newFlagSet("render")
	in.register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	doc, err := in.load(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(doc.Document())
	return 0
}

func runTwimlCheck(args []string) int {
	var in documentInput
	fs := newFlagSet("check")
	in.register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	doc, err := in.load(fs.Args())
	if err != nil {
		fmt.Printf("Document invalid: %v\n", err)
		return 1
	}
	fmt.Printf("Document valid: %s with %d element(s)\n", doc.Kind(), countElements(doc))
	return 0
}

func countElements(e *twiml.Element) int {
	n := 1
	for _, c := range e.Children() {
		n += countElements(c)
	}
	return n
}
