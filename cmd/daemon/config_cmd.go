// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/version"
)

func runConfigCLI(args []string) int {
	return runConfig(args, os.Stdout, os.Stderr)
}

func runConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	case "init":
		return runConfigInit(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  stemsplit config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  stemsplit config dump --effective [--file|-f config.yaml] [--format=yaml|json]")
	fmt.Fprintln(w, "  stemsplit config init --file|-f config.yaml [--force]")
}

func configFile(fs *flag.FlagSet) *string {
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	return &file
}

func resolveConfigPath(file string) string {
	if p := strings.TrimSpace(file); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(envConfigPath))
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stemsplit config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFile(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := resolveConfigPath(*file)
	if path == "" {
		fmt.Fprintf(stderr, "Error: --file is required (or set %s)\n", envConfigPath)
		return 2
	}

	if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stemsplit config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFile(fs)
	format := fs.String("format", "yaml", "output format: yaml or json")
	effective := fs.Bool("effective", false, "dump effective configuration (defaults + file + env)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !*effective {
		fmt.Fprintln(stderr, "Error: --effective is required")
		return 2
	}

	cfg, err := config.NewLoader(resolveConfigPath(*file), version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}
	cfg.Separator.BaseURL = maskURL(cfg.Separator.BaseURL)

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", *format)
		return 2
	}
}

// runConfigInit writes the defaults as a starting config file.
func runConfigInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stemsplit config init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := configFile(fs)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(stderr, "Error: %s exists (use --force to overwrite)\n", path)
		return 1
	}

	if err := config.WriteFile(path, config.Default()); err != nil {
		fmt.Fprintf(stderr, "Failed to write %s: %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "✓ wrote %s\n", path)
	return 0
}
