package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadConfigArgs reads the goasan rc-file and returns parsed "key value"
// lines as a flat args-style slice (e.g. ["app-size", "65536", "red-zone",
// "32"]), suitable for feeding into a cobra flag set the same way a shell
// would. Config file location: GOASAN_CONFIG_PATH env var, or ~/.goasanrc.
// Format: one "key value" pair per line, # comments and blank lines
// ignored. Returns nil if no config file is found.
//
// Grounded on the teacher's internal/cli.LoadConfigArgs.
func LoadConfigArgs() []string {
	path := os.Getenv("GOASAN_CONFIG_PATH")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".goasanrc")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		args = append(args, fields...)
	}
	return args
}

// ApplyArgs overlays key/value pairs as produced by LoadConfigArgs onto cfg,
// ignoring keys it does not recognize. Numeric and boolean parse failures
// are ignored, leaving the affected field at its prior value — a malformed
// rc-file line is not a configuration failure in the spec.md §7 sense,
// since Validate still runs on the result.
func ApplyArgs(cfg *Config, args []string) {
	for i := 0; i+1 < len(args); i += 2 {
		key, val := args[i], args[i+1]
		switch key {
		case "app-size":
			if n, err := strconv.ParseUint(val, 10, 64); err == nil {
				cfg.AppSize = uintptr(n)
			}
		case "red-zone":
			if n, err := strconv.ParseUint(val, 10, 64); err == nil {
				cfg.RedZoneBorder = n
			}
		case "quarantine":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.QuarantineCapacity = n
			}
		case "replace-malloc-free":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.ReplaceMallocFree = b
			}
		case "init-policy":
			if val == "strict" {
				cfg.InitPolicy = Strict
			} else if val == "permissive" {
				cfg.InitPolicy = Permissive
			}
		case "debug":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Debug = b
			}
		}
	}
}
