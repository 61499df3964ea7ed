package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, path, content)
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal config gets defaults",
			yaml: `
state:
  path: ./test.db
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.State.Path != "./test.db" {
					t.Error("state.path not parsed")
				}
				if cfg.Service.Name != "switchboard" {
					t.Errorf("service.name default not applied: %q", cfg.Service.Name)
				}
				if cfg.Service.DedupeTTL != 24*time.Hour {
					t.Errorf("dedupe_ttl default not applied: %v", cfg.Service.DedupeTTL)
				}
				if cfg.Account.BaseURL != "https://api.twilio.com" {
					t.Errorf("base_url default not applied: %q", cfg.Account.BaseURL)
				}
				if cfg.Webhooks != nil {
					t.Error("webhooks should stay nil")
				}
			},
		},
		{
			name: "env interpolation",
			yaml: `
account:
  sid: AC123
  auth_token: ${SB_TEST_TOKEN}
webhooks:
  listen: 127.0.0.1:8081
  endpoints:
    - path: /voice
      name: voice
      plan:
        - say: hello
          voice: woman
        - gather:
            num_digits: 1
            steps:
              - say: press one
        - hangup: true
`,
			env: map[string]string{"SB_TEST_TOKEN": "s3cret"},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Account.AuthToken != "s3cret" {
					t.Errorf("auth_token = %q", cfg.Account.AuthToken)
				}
				ep := cfg.Webhooks.Endpoints[0]
				if len(ep.Plan) != 3 {
					t.Fatalf("plan steps = %d, want 3", len(ep.Plan))
				}
				if ep.Plan[0].Say != "hello" || ep.Plan[0].Voice != "woman" {
					t.Errorf("say step = %+v", ep.Plan[0])
				}
				g := ep.Plan[1].Gather
				if g == nil || g.NumDigits == nil || *g.NumDigits != 1 || len(g.Steps) != 1 {
					t.Errorf("gather step = %+v", g)
				}
				if !ep.Plan[2].Hangup {
					t.Error("hangup not parsed")
				}
			},
		},
		{
			name: "unresolved auth token",
			yaml: `
account:
  auth_token: ${SB_TEST_MISSING_TOKEN}
`,
			wantErr: "${SB_TEST_MISSING_TOKEN} is not set",
		},
		{
			name: "invalid log level",
			yaml: `
service:
  log_level: chatty
`,
			wantErr: "service.log_level",
		},
		{
			name: "webhooks need a token",
			yaml: `
webhooks:
  listen: 127.0.0.1:8081
`,
			wantErr: "account.auth_token is required",
		},
		{
			name: "duplicate endpoint paths",
			yaml: `
account:
  auth_token: t
webhooks:
  listen: 127.0.0.1:8081
  endpoints:
    - path: /voice
    - path: /voice
`,
			wantErr: "duplicate path",
		},
		{
			name: "response and plan together",
			yaml: `
account:
  auth_token: t
webhooks:
  listen: 127.0.0.1:8081
  endpoints:
    - path: /voice
      response: <Response/>
      plan:
        - hangup: true
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "bad body size",
			yaml: `
account:
  auth_token: t
webhooks:
  listen: 127.0.0.1:8081
  endpoints:
    - path: /voice
      max_body_size: lots
`,
			wantErr: "max_body_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.checkFn(t, cfg)
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	path := writeConfig(t, "service:\n  name: from-dir\n")
	cfg, err := Load(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.Name != "from-dir" {
		t.Errorf("service.name = %q", cfg.Service.Name)
	}
}

func TestLoadIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "config.yaml"), `
include:
  - secrets.yaml
  - endpoints.yaml
service:
  name: base
`)
	writeTestFile(t, filepath.Join(dir, "secrets.yaml"), `
account:
  sid: AC1
  auth_token: tok
`)
	writeTestFile(t, filepath.Join(dir, "endpoints.yaml"), `
webhooks:
  listen: 127.0.0.1:9000
  endpoints:
    - path: /sms
      response: <Response/>
`)

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Account.AuthToken != "tok" || cfg.Account.SID != "AC1" {
		t.Errorf("account not merged: %+v", cfg.Account)
	}
	if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) != 1 {
		t.Fatalf("webhooks not merged: %+v", cfg.Webhooks)
	}
	if len(cfg.SourceFiles) != 3 {
		t.Errorf("SourceFiles = %d, want 3", len(cfg.SourceFiles))
	}
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "config.yaml"), "include: [a.yaml]\n")
	writeTestFile(t, filepath.Join(dir, "a.yaml"), "include: [config.yaml]\n")

	_, err := Load(filepath.Join(dir, "config.yaml"))
	if err == nil || !strings.Contains(err.Error(), "circular") {
		t.Fatalf("expected circular include error, got %v", err)
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "config.yaml"), "service:\n  name: locked\n")
	if _, err := Lock(dir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err != nil {
		t.Fatalf("Load() after lock = %v", err)
	}

	writeTestFile(t, filepath.Join(dir, "config.yaml"), "service:\n  name: edited\n")
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "config lock") {
		t.Fatalf("expected tampering error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestInterpolateEnv(t *testing.T) {
	os.Setenv("SB_INTERP", "value")
	defer os.Unsetenv("SB_INTERP")

	cases := map[string]string{
		"${SB_INTERP}":          "value",
		"pre-${SB_INTERP}-post": "pre-value-post",
		"${SB_UNSET_VAR}":       "${SB_UNSET_VAR}",
		"$SB_INTERP":            "$SB_INTERP",
	}
	for in, want := range cases {
		if got := interpolateEnv(in); got != want {
			t.Errorf("interpolateEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", DefaultMaxBodySize, false},
		{"2048", 2048, false},
		{"64KB", 64 * 1024, false},
		{"1mb", 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"0", 0, true},
		{"-1KB", 0, true},
		{"big", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseSize(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
