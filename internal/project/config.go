// Package project reads solar.toml, the optional per-project compiler
// configuration. CLI flags override file values.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the solar.toml schema.
type Config struct {
	Compiler CompilerConfig `toml:"compiler"`
	// Libraries maps fully qualified library names to hex addresses used
	// by the linker.
	Libraries map[string]string `toml:"libraries"`
}

type CompilerConfig struct {
	Optimize      bool   `toml:"optimize"`
	OptimizeRuns  int    `toml:"optimize-runs"`
	EVMVersion    string `toml:"evm-version"`
	RevertStrings string `toml:"revert-strings"`
	// Outputs preselects artefacts: abi, bin, bin-runtime, asm, metadata, ast.
	Outputs []string `toml:"outputs"`
}

// ConfigFileName is looked up in the working directory.
const ConfigFileName = "solar.toml"

// Load reads dir/solar.toml. found is false when the file does not exist.
func Load(dir string) (cfg Config, found bool, err error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path) // #nosec G304 -- path rooted at the caller's dir
	if os.IsNotExist(err) {
		return Config{}, false, nil
	}
	if err != nil {
		return Config{}, false, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Compiler.OptimizeRuns == 0 {
		cfg.Compiler.OptimizeRuns = 200
	}
	return cfg, true, nil
}
