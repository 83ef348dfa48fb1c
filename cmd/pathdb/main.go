// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the pathdb CLI: a command-line front end over the
// in-memory labeled property-graph engine in pkg/pathdb, its textual
// snapshot dialect in pkg/dialect, its constraint checker in
// pkg/constraints, and its query helpers in pkg/query.
//
// Usage:
//
//	pathdb init                    Create .pathdb/project.yaml configuration
//	pathdb [--json] status         Show snapshot statistics
//	pathdb query trace ...         Find a reachability path between two entities
//	pathdb query search ...        Full-text search over entity attributes
//	pathdb [--json] check          Evaluate declared constraints
//	pathdb export <file>           Write the current snapshot to a file
//	pathdb import <file>           Replace the current snapshot from a file
//	pathdb sync <dest>             Replicate the on-disk store to another root
//	pathdb reset --yes             Delete local project data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .pathdb/project.yaml (default: ./.pathdb/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument (the command name), so
	// subcommand-specific flags like "reset --yes" pass through untouched.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pathdb - labeled directed property-graph engine CLI

pathdb stores entities, typed relations, and equivalence classes in an
in-memory graph, derives fact/text/path indexes lazily, and evaluates
bounded-depth, confidence-thresholded reachability queries against it.

Usage:
  pathdb <command> [options]

Commands:
  init      Create .pathdb/project.yaml configuration
  status    Show snapshot statistics
  query     Run a search or reachability trace query
  check     Evaluate declared constraints against the snapshot
  export    Write the current snapshot to a file
  import    Replace the current snapshot from a file
  sync      Replicate the on-disk store to another root
  reset     Delete local project data (destructive!)

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output (progress, info messages)
  -c, --config      Path to .pathdb/project.yaml
  -V, --version     Show version and exit

Examples:
  pathdb init
  pathdb import snapshot.pathdb
  pathdb query trace --from 1 --to 42
  pathdb --json check
  pathdb export snapshot.pathdb

Data Storage:
  Data is stored locally in the configured data directory
  (default: ~/.pathdb/data/<project_id>/)

For detailed command help: pathdb <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pathdb version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(2)
	}

	// JSON mode auto-enables quiet to prevent progress bars corrupting JSON output.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "check":
		runCheck(cmdArgs, *configPath, globals)
	case "export":
		runExport(cmdArgs, *configPath, globals)
	case "import":
		runImport(cmdArgs, *configPath, globals)
	case "sync":
		runSync(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
}
