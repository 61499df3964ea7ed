package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileTier classifies how strictly a config file is integrity checked.
type FileTier int

const (
	// TierOperational files only warn on checksum mismatch.
	TierOperational FileTier = iota
	// TierHighSecurity files carry credentials and fail hard on mismatch.
	TierHighSecurity
)

// ConfigFiles is the manifest of files in a config directory.
type ConfigFiles struct {
	Root    string
	Config  string
	Secrets string
	Plans   []string
}

// DiscoverConfigFiles walks a config directory and returns the manifest of discovered files.
// Returns error if config.yaml is missing (hard requirement).
func DiscoverConfigFiles(configDir string) (*ConfigFiles, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config dir %q: %w", configDir, err)
	}

	cf := &ConfigFiles{Root: absDir}

	configPath := filepath.Join(absDir, "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config.yaml not found in %s: %w", absDir, err)
	}
	cf.Config = configPath

	if path := filepath.Join(absDir, "secrets.yaml"); fileExists(path) {
		cf.Secrets = path
	}

	cf.Plans, err = walkYAMLDir(filepath.Join(absDir, "plans"))
	if err != nil {
		return nil, fmt.Errorf("failed to walk plans/: %w", err)
	}

	return cf, nil
}

// AllFiles returns every discovered file, config.yaml first.
func (cf *ConfigFiles) AllFiles() []string {
	files := []string{cf.Config}
	if cf.Secrets != "" {
		files = append(files, cf.Secrets)
	}
	return append(files, cf.Plans...)
}

// FileTier reports the integrity tier of path. config.yaml and secrets.yaml
// may hold the auth token.
func (cf *ConfigFiles) FileTier(path string) FileTier {
	if path == cf.Config || (cf.Secrets != "" && path == cf.Secrets) {
		return TierHighSecurity
	}
	return TierOperational
}

// HighSecurityFiles returns the discovered files in TierHighSecurity.
func (cf *ConfigFiles) HighSecurityFiles() []string {
	var out []string
	for _, f := range cf.AllFiles() {
		if cf.FileTier(f) == TierHighSecurity {
			out = append(out, f)
		}
	}
	return out
}

// walkYAMLDir returns sorted absolute paths of *.yaml files in dir.
// Returns nil (not error) if the directory doesn't exist.
func walkYAMLDir(dir string) ([]string, error) {
	if !dirExists(dir) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".yaml") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
