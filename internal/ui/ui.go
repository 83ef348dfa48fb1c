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

// Package ui provides the pathdb CLI's console output: colored headers and
// labels via fatih/color, and progress bars via schollz/progressbar for
// long-running operations like reindexing or snapshot import.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Color objects used directly by command code for inline emphasis, mirroring
// fatih/color's package-level Color pattern.
var (
	Dim    = color.New(color.Faint)
	Cyan   = color.New(color.FgCyan)
	Green  = color.New(color.FgGreen, color.Bold)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed, color.Bold)
	Bold   = color.New(color.Bold)
)

// InitColors disables all color output when noColor is set, when NO_COLOR
// is present in the environment, or when stdout is not a terminal --
// matching fatih/color's own NO_COLOR contract but applied uniformly to
// every Color object this package exports.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold top-level section title.
func Header(title string) {
	fmt.Println(Bold.Sprint(title))
}

// SubHeader prints a secondary section title, indented under a Header.
func SubHeader(title string) {
	fmt.Printf("  %s\n", Bold.Sprint(title))
}

// Label formats a field label for use ahead of a value, e.g.
// fmt.Printf("%s %s\n", ui.Label("Schema:"), name).
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText formats text at reduced emphasis, for secondary detail printed
// alongside a primary value.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// Info prints an informational line to stdout.
func Info(msg string) {
	fmt.Println(msg)
}

// Infof prints a formatted informational line to stdout.
func Infof(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// Success prints a green-checked success line to stdout.
func Success(msg string) {
	fmt.Printf("%s %s\n", Green.Sprint("OK"), msg)
}

// Successf prints a formatted green-checked success line to stdout.
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning line to stderr.
func Warning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Yellow.Sprint("warning:"), msg)
}

// Warningf prints a formatted yellow warning line to stderr.
func Warningf(format string, args ...interface{}) {
	Warning(fmt.Sprintf(format, args...))
}

// CountText formats a count as a plain decimal string (no padding or
// alignment) for status output.
func CountText(n int) string {
	return fmt.Sprintf("%d", n)
}

// Errorf prints a formatted red error line to stderr, for non-fatal
// problems a command wants to surface without calling FatalError.
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Red.Sprint("error:"), fmt.Sprintf(format, args...))
}

// NewProgressBar builds a terminal progress bar for a long-running phase
// (e.g. "Rebuilding path index", "Importing snapshot"). total <= 0 yields
// a spinner instead of a percentage bar, matching progressbar's own
// convention for unknown-length work.
func NewProgressBar(total int64, description string) *progressbar.ProgressBar {
	if color.NoColor {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetVisibility(false),
		)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100_000_000),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}
