package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateChecksumsWithReportDryRun(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "secrets.yaml"), []byte("account:\n  auth_token: test\n"), 0600); err != nil {
		t.Fatal(err)
	}

	report, err := GenerateChecksumsWithReport(tmpDir, []string{"secrets.yaml", "config.yaml"}, true)
	if err != nil {
		t.Fatalf("GenerateChecksumsWithReport() failed: %v", err)
	}

	if report.Written {
		t.Fatal("report.Written = true, want false in dry-run")
	}

	if len(report.Files) != 2 {
		t.Fatalf("len(report.Files) = %d, want 2", len(report.Files))
	}

	if !report.Files[0].Exists || report.Files[0].Hash == "" {
		t.Fatal("secrets.yaml should exist with computed hash")
	}
	if report.Files[1].Exists || report.Files[1].Hash != "" {
		t.Fatal("config.yaml should be reported as missing without hash")
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestLockWritesChecksums(t *testing.T) {
	tmpDir := t.TempDir()
	setupIntegrityDir(t, tmpDir)

	report, err := Lock(tmpDir, false)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !report.Written {
		t.Fatal("report.Written = false, want true")
	}

	manifest, err := LoadChecksums(tmpDir)
	if err != nil {
		t.Fatalf("LoadChecksums() failed: %v", err)
	}
	for _, name := range []string{"config.yaml", "secrets.yaml", filepath.Join("plans", "ivr.yaml")} {
		if _, ok := manifest.Hashes[name]; !ok {
			t.Errorf("manifest missing %s: %v", name, manifest.Hashes)
		}
	}
}

func TestVerifyFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	writeTestFile(t, path, "service:\n  name: a\n")

	hash, err := ComputeBlake3Hash(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyFileHash(path, hash); err != nil {
		t.Fatalf("VerifyFileHash() = %v, want nil", err)
	}

	writeTestFile(t, path, "service:\n  name: b\n")
	if err := VerifyFileHash(path, hash); err == nil {
		t.Fatal("expected mismatch after edit")
	}
}

func TestLoadChecksumsMissing(t *testing.T) {
	if _, err := LoadChecksums(t.TempDir()); err == nil {
		t.Fatal("expected error for missing .checksums")
	}
}
