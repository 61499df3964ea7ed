package config

import (
	"fmt"
	"path/filepath"
)

// VerifyIntegrity checks all discovered files against the .checksums manifest.
// High-security mismatches produce errors (hard fail). Operational mismatches produce warnings.
func VerifyIntegrity(configDir string, files *ConfigFiles) (*IntegrityResult, error) {
	result := &IntegrityResult{Passed: true}

	checksumPath := filepath.Join(configDir, ".checksums")
	manifest, err := LoadChecksums(configDir)
	if err != nil {
		if len(files.HighSecurityFiles()) > 0 {
			result.Passed = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("no .checksums manifest found at %s but high-security files exist; run 'switchboard config lock'", checksumPath))
			return result, nil
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no .checksums manifest found at %s; run 'switchboard config lock' to enable integrity verification", checksumPath))
		return result, nil
	}

	report := func(tier FileTier, msg string) {
		if tier == TierHighSecurity {
			result.Passed = false
			result.Errors = append(result.Errors, msg)
			return
		}
		result.Warnings = append(result.Warnings, msg)
	}

	for _, path := range files.AllFiles() {
		tier := files.FileTier(path)
		rel, err := filepath.Rel(files.Root, path)
		if err != nil {
			return nil, err
		}

		expectedHash, inManifest := manifest.Hashes[rel]
		if !inManifest {
			report(tier, fmt.Sprintf("file %s not in .checksums manifest", rel))
			continue
		}

		actualHash, err := ComputeBlake3Hash(path)
		if err != nil {
			report(tier, fmt.Sprintf("failed to hash %s: %v", rel, err))
			continue
		}

		if actualHash != expectedHash {
			report(tier, fmt.Sprintf("hash mismatch for %s (expected %s, got %s)", rel, expectedHash, actualHash))
		}
	}

	return result, nil
}
