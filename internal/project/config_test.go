package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissing(t *testing.T) {
	_, found, err := Load(t.TempDir())
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[compiler]
optimize = true
optimize-runs = 999
evm-version = "london"
outputs = ["abi", "bin"]

[libraries]
"lib.sol:Math" = "0x1234567890123456789012345678901234567890"
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, found, err := Load(dir)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if !cfg.Compiler.Optimize || cfg.Compiler.OptimizeRuns != 999 || cfg.Compiler.EVMVersion != "london" {
		t.Fatalf("cfg = %+v", cfg.Compiler)
	}
	if cfg.Libraries["lib.sol:Math"] == "" {
		t.Fatal("library binding missing")
	}
}

func TestDefaultRuns(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("[compiler]\noptimize = true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Compiler.OptimizeRuns != 200 {
		t.Fatalf("default runs = %d", cfg.Compiler.OptimizeRuns)
	}
}
