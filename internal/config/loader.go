package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory holding
// config.yaml. Files listed under include are merged in order.
func Load(configPath string) (*Config, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}
	cfg.SourceFiles = make(map[string]*yaml.Node)
	addSourceNode(cfg, absPath)

	visited := map[string]bool{absPath: true}
	if len(cfg.Include) > 0 {
		if err := loadIncludes(cfg, cfg.Include, filepath.Dir(absPath), visited); err != nil {
			return nil, err
		}
	}

	cfg = applyConfigDefaults(cfg)

	paths := make([]string, 0, len(visited))
	for p := range visited {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	if err := verifyAllConfigHashes(paths); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DiscoverConfigDir finds the config directory by checking standard locations.
// Priority order: $SWITCHBOARD_CONFIG_DIR, ~/.config/switchboard, /etc/switchboard, ./config.yaml
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("SWITCHBOARD_CONFIG_DIR"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "switchboard")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}

	systemConfigDir := "/etc/switchboard"
	if _, err := os.Stat(systemConfigDir); err == nil {
		return systemConfigDir, nil
	}

	legacyConfigPath := "./config.yaml"
	if _, err := os.Stat(legacyConfigPath); err == nil {
		return legacyConfigPath, nil
	}

	return "", fmt.Errorf("no config found (checked: $SWITCHBOARD_CONFIG_DIR, ~/.config/switchboard, /etc/switchboard, ./config.yaml)")
}

func resolveConfigFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

func addSourceNode(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err == nil {
		cfg.SourceFiles[path] = &node
	}
}

// loadIncludes recursively loads and merges files from the include array.
// visited tracks loaded files to prevent cycles.
func loadIncludes(cfg *Config, includes []string, baseDir string, visited map[string]bool) error {
	for i, includePath := range includes {
		includePath = interpolateEnv(includePath)

		resolvedPath := includePath
		if !filepath.IsAbs(includePath) {
			resolvedPath = filepath.Join(baseDir, includePath)
		}

		absPath, err := filepath.Abs(resolvedPath)
		if err != nil {
			return fmt.Errorf("include[%d]: failed to resolve path %q: %w", i, includePath, err)
		}

		if visited[absPath] {
			return fmt.Errorf("include[%d]: circular dependency detected: %s", i, absPath)
		}

		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("include[%d]: file not found: %s\n"+
					"Referenced from: %s\n"+
					"Hint: Check the path is correct and the file exists", i, absPath, baseDir)
			}
			return fmt.Errorf("include[%d]: failed to access file %s: %w", i, absPath, err)
		}

		visited[absPath] = true
		addSourceNode(cfg, absPath)

		includedCfg, err := loadConfigFile(absPath)
		if err != nil {
			return fmt.Errorf("include[%d] (%s): %w", i, includePath, err)
		}

		mergeConfig(cfg, includedCfg)

		if len(includedCfg.Include) > 0 {
			if err := loadIncludes(cfg, includedCfg.Include, filepath.Dir(absPath), visited); err != nil {
				return err
			}
		}
	}

	return nil
}

// loadConfigFile loads and parses a single config file without defaults.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// mergeConfig merges src into dst, with src taking precedence for non-zero values.
// Webhook endpoints are appended.
func mergeConfig(dst, src *Config) {
	if src.Service.Name != "" {
		dst.Service.Name = src.Service.Name
	}
	if src.Service.LogLevel != "" {
		dst.Service.LogLevel = src.Service.LogLevel
	}
	if src.Service.DedupeTTL != 0 {
		dst.Service.DedupeTTL = src.Service.DedupeTTL
	}
	if src.Service.DeliveryRetention != 0 {
		dst.Service.DeliveryRetention = src.Service.DeliveryRetention
	}

	if src.State.Path != "" {
		dst.State.Path = src.State.Path
	}

	if src.Account.SID != "" {
		dst.Account.SID = src.Account.SID
	}
	if src.Account.AuthToken != "" {
		dst.Account.AuthToken = src.Account.AuthToken
	}
	if src.Account.BaseURL != "" {
		dst.Account.BaseURL = src.Account.BaseURL
	}

	if src.Webhooks != nil {
		if dst.Webhooks == nil {
			dst.Webhooks = &WebhooksConfig{}
		}
		if src.Webhooks.Listen != "" {
			dst.Webhooks.Listen = src.Webhooks.Listen
		}
		if src.Webhooks.PublicBaseURL != "" {
			dst.Webhooks.PublicBaseURL = src.Webhooks.PublicBaseURL
		}
		dst.Webhooks.Endpoints = append(dst.Webhooks.Endpoints, src.Webhooks.Endpoints...)
	}
}

func verifyAllConfigHashes(paths []string) error {
	// Group paths by directory to avoid loading the same checksums file multiple times
	dirToFiles := make(map[string][]string)
	for _, path := range paths {
		dir := filepath.Dir(path)
		dirToFiles[dir] = append(dirToFiles[dir], path)
	}

	for dir, files := range dirToFiles {
		checksums, err := LoadChecksums(dir)
		if err != nil {
			// If .checksums is missing, we skip verification for this directory.
			continue
		}

		for _, path := range files {
			basename := filepath.Base(path)
			expectedHash, ok := checksums.Hashes[basename]
			if !ok {
				return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
					"Run: switchboard config lock --config-dir %s", basename, dir, dir)
			}

			if err := VerifyFileHash(path, expectedHash); err != nil {
				return fmt.Errorf("config verification failed for %s: %w\n"+
					"This indicates tampering or unauthorized modification.\n"+
					"If you edited this file intentionally, run: switchboard config lock --config-dir %s", path, err, dir)
			}
		}
	}

	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.DedupeTTL == 0 {
		cfg.Service.DedupeTTL = defaults.Service.DedupeTTL
	}
	if cfg.Service.DeliveryRetention == 0 {
		cfg.Service.DeliveryRetention = defaults.Service.DeliveryRetention
	}

	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}

	if cfg.Account.BaseURL == "" {
		cfg.Account.BaseURL = defaults.Account.BaseURL
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.DedupeTTL < 0 {
		return fmt.Errorf("service.dedupe_ttl must not be negative")
	}
	if cfg.Service.DeliveryRetention < 0 {
		return fmt.Errorf("service.delivery_retention must not be negative")
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if err := checkUnresolved("account.sid", cfg.Account.SID); err != nil {
		return err
	}
	if err := checkUnresolved("account.auth_token", cfg.Account.AuthToken); err != nil {
		return err
	}

	if cfg.Webhooks == nil {
		return nil
	}
	if cfg.Account.AuthToken == "" {
		return fmt.Errorf("account.auth_token is required to verify webhook signatures")
	}
	if cfg.Webhooks.Listen == "" {
		return fmt.Errorf("webhooks.listen is required")
	}

	seen := make(map[string]bool)
	for i, ep := range cfg.Webhooks.Endpoints {
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("webhooks.endpoints[%d]: path must start with / (got %q)", i, ep.Path)
		}
		if seen[ep.Path] {
			return fmt.Errorf("webhooks.endpoints[%d]: duplicate path %q", i, ep.Path)
		}
		seen[ep.Path] = true
		if ep.Response != "" && len(ep.Plan) > 0 {
			return fmt.Errorf("webhooks.endpoints[%d] (%s): response and plan are mutually exclusive", i, ep.Path)
		}
		if _, err := ParseSize(ep.MaxBodySize); err != nil {
			return fmt.Errorf("webhooks.endpoints[%d] (%s): invalid max_body_size %q: %w", i, ep.Path, ep.MaxBodySize, err)
		}
	}

	return nil
}

// checkUnresolved rejects values still holding a ${VAR} placeholder so that
// a missing secret fails at startup rather than at the first request.
func checkUnresolved(field, value string) error {
	if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}
