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

// Package errors provides the categorized, human-facing error type the
// pathdb CLI uses to report failures: every category carries a short title,
// a detail line explaining what went wrong, and a hint suggesting what to
// do about it, plus an optional wrapped cause. FatalError terminates the
// process for a categorized error, mapping its category to one of the
// three exit codes the CLI promises (0 success, 2 argument error, 1 any
// other domain error). Commands also exit directly, without FatalError, on
// flag-parsing, dispatch and a few command-specific failure paths.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Category classifies a CLIError for exit-code selection and, eventually,
// for any caller that wants to branch on error kind rather than just
// display it.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryInternal   Category = "internal"
	CategoryPermission Category = "permission"
	CategoryInput      Category = "input"
	CategoryNetwork    Category = "network"
	CategoryDatabase   Category = "database"
)

// CLIError is the structured error every pathdb command surfaces to its
// caller. Title is a short one-line summary suitable for a header, Detail
// explains what actually happened, and Hint tells the operator what to try
// next. Cause, when present, is the underlying error that triggered this
// one.
type CLIError struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Hint     string   `json:"hint,omitempty"`
	Cause    error    `json:"-"`
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *CLIError) Unwrap() error { return e.Cause }

// NewConfigError reports a problem loading, parsing, or validating
// configuration (an unreadable or malformed project.yaml, an unsupported
// schema version).
func NewConfigError(title, detail, hint string, cause error) error {
	return &CLIError{Category: CategoryConfig, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewInternalError reports a failure that should not be reachable through
// normal use (an unexpected I/O failure, a bug) -- the hint should point
// the user at reporting the issue, not at fixing their own setup.
func NewInternalError(title, detail, hint string, cause error) error {
	return &CLIError{Category: CategoryInternal, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewPermissionError reports a filesystem or OS permission failure
// (cannot create a directory, cannot write a file).
func NewPermissionError(title, detail, hint string, cause error) error {
	return &CLIError{Category: CategoryPermission, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewInputError reports a problem with what the user typed: a missing or
// malformed argument, a missing confirmation flag, invalid query syntax.
// It never wraps a cause -- the problem is the input itself, not something
// underneath it.
func NewInputError(title, detail, hint string) error {
	return &CLIError{Category: CategoryInput, Title: title, Detail: detail, Hint: hint}
}

// NewNetworkError reports a failure reaching a remote endpoint (a sidecar
// sync target, a snapshot store).
func NewNetworkError(title, detail, hint string, cause error) error {
	return &CLIError{Category: CategoryNetwork, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewDatabaseError reports a failure opening, reading, or writing the
// PathDB store itself (a missing database, a corrupted snapshot, a query
// that fails during evaluation).
func NewDatabaseError(title, detail, hint string, cause error) error {
	return &CLIError{Category: CategoryDatabase, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// exitCode maps a CLIError's category to the CLI's exit-code contract:
// argument errors exit 2, every other domain error exits 1.
func exitCode(err error) int {
	var cliErr *CLIError
	if asCLIError(err, &cliErr) && cliErr.Category == CategoryInput {
		return 2
	}
	return 1
}

func asCLIError(err error, target **CLIError) bool {
	for err != nil {
		if ce, ok := err.(*CLIError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// FatalError prints err (as JSON if jsonOutput is set, otherwise as a
// human-readable title/detail/hint block to stderr) and terminates the
// process with the exit code its category maps to.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	if !asCLIError(err, &cliErr) {
		cliErr = &CLIError{Category: CategoryInternal, Title: "Unexpected error", Detail: err.Error()}
	}

	if jsonOutput {
		payload := map[string]any{
			"error":    true,
			"category": cliErr.Category,
			"title":    cliErr.Title,
			"detail":   cliErr.Detail,
		}
		if cliErr.Hint != "" {
			payload["hint"] = cliErr.Hint
		}
		enc := json.NewEncoder(os.Stderr)
		_ = enc.Encode(payload)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cliErr.Title)
		if cliErr.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", cliErr.Detail)
		}
		if cliErr.Cause != nil {
			fmt.Fprintf(os.Stderr, "  caused by: %v\n", cliErr.Cause)
		}
		if cliErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "\nHint: %s\n", cliErr.Hint)
		}
	}

	os.Exit(exitCode(cliErr))
}
