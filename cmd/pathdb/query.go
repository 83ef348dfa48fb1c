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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/internal/ui"
	"github.com/kraklabs/pathdb/pkg/certificate"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/pathdb"
	"github.com/kraklabs/pathdb/pkg/query"
)

// runQuery dispatches 'pathdb query <subcommand>' to trace or search.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pathdb query <trace|search> [options]")
		os.Exit(2)
	}
	switch args[0] {
	case "trace":
		runQueryTrace(args[1:], configPath, globals)
	case "search":
		runQuerySearch(args[1:], configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown query subcommand: %s\n", args[0])
		os.Exit(2)
	}
}

func runQueryTrace(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query trace", flag.ExitOnError)
	source := fs.Uint("from", 0, "Source entity ID")
	target := fs.Uint("to", 0, "Target entity ID")
	maxDepth := fs.Int("max-depth", query.DefaultTraceMaxDepth, "Maximum hops to search")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb query trace --from <id> --to <id> [options]

Description:
  Find the shortest chain of relations from one entity to another (over
  every relation type present in the snapshot) and print a reachability
  certificate on success.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	db := mustOpenDB(configPath, globals)

	cert, err := query.TracePath(db, query.TraceArgs{
		Source:   graph.EntityID(*source),
		Target:   graph.EntityID(*target),
		MaxDepth: *maxDepth,
	})
	if err != nil {
		if globals.JSON {
			enc := json.NewEncoder(os.Stdout)
			_ = enc.Encode(map[string]any{"found": false, "error": err.Error()})
			return
		}
		ui.Warningf("%v", err)
		os.Exit(1)
	}

	proof, err := cert.Get(db)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot unwrap reachability certificate",
			"The certificate returned by TracePath does not belong to this DB",
			"This is unexpected. Please report this issue if it persists",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"found": true, "certificate": proof})
		return
	}

	printCertificate(proof)
}

func printCertificate(c certificate.Certificate) {
	ui.Header("Reachability Certificate")
	fmt.Printf("%s %s\n", ui.Label("Kind:"), c.Kind)
	fmt.Printf("%s %d\n", ui.Label("Version:"), c.Version)
}

func runQuerySearch(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query search", flag.ExitOnError)
	attrKey := fs.String("attr", "", "Attribute key to search")
	text := fs.String("text", "", "Search text")
	limit := fs.Int("limit", query.DefaultSearchLimit, "Maximum matches to return")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb query search --attr <key> --text <query> [options]

Description:
  Full-text search over one entity attribute, using the same tokenizer the
  text index was built with.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *attrKey == "" || *text == "" {
		errors.FatalError(errors.NewInputError(
			"Missing search arguments",
			"Both --attr and --text are required",
			"Run 'pathdb query search --attr name --text foo'",
		), globals.JSON)
	}

	db := mustOpenDB(configPath, globals)

	result, err := query.EntitiesWithAttrFTS(db, query.SearchArgs{AttrKey: *attrKey, Query: *text, Limit: *limit})
	if err != nil {
		errors.FatalError(errors.NewInputError("Invalid search", err.Error(), ""), globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	if len(result.Matches) == 0 {
		ui.Info("No matches.")
		return
	}
	for _, id := range result.Matches {
		fmt.Println(uint32(id))
	}
	if result.Truncated {
		ui.Warningf("Results truncated to %d matches; pass --limit to see more.", *limit)
	}
}

// mustOpenDB loads the project's config and current snapshot, exiting via
// errors.FatalError on any failure -- the shared startup path for every
// read-only query subcommand.
func mustOpenDB(configPath string, globals GlobalFlags) *pathdb.DB {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	dataDir, err := projectDataDir(cfg, configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	db, err := openDB(dataDir, cfg.DBConfig())
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	return db
}
