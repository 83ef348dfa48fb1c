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

// Package snapshotsync replicates a PathDB store's on-disk layout between
// two filesystem trees: content-addressed directories copy-if-missing,
// append-only logs copy unconditionally when requested, and mutable HEAD
// pointers update last so a reader never observes a HEAD pointing at
// content that hasn't landed yet.
package snapshotsync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/schollz/progressbar/v3"
)

// contentAddressedDirs are copied copy-if-missing: a file already present
// at the destination is assumed to hold identical content, since its path
// is its hash, and is never re-copied.
var contentAddressedDirs = []string{
	"modules",
	"snapshots",
	"quality",
	filepath.Join("pathdb", "blobs"),
	filepath.Join("pathdb", "snapshots"),
}

// optionalContentAddressedDirs are copied the same way as
// contentAddressedDirs but only when present; their absence is not an
// error, just a smaller replication.
var optionalContentAddressedDirs = []string{
	"checkpoints",
}

// logFiles are append-only logs copied unconditionally (overwriting the
// destination) when Config.IncludeLogs is set.
var logFiles = []string{
	filepath.Join("pathdb", "index.log"),
	filepath.Join("pathdb", "audit.log"),
}

// headFiles are mutable pointer files updated last, after every
// content-addressed directory and requested log has been replicated.
var headFiles = []string{
	filepath.Join("pathdb", "HEAD"),
}

// Config describes one sync operation.
type Config struct {
	SourceRoot string
	DestRoot   string
	// IncludeLogs copies append-only logs unconditionally (content-addressed
	// directories are always copy-if-missing regardless of this flag).
	IncludeLogs bool
	// IncludeCheckpoints additionally replicates the optional checkpoints/
	// content-addressed directory.
	IncludeCheckpoints bool
	// DryRun reports what would be copied without writing anything.
	DryRun bool
	// CompressBlobs zstd-compresses files copied into pathdb/blobs (the one
	// content-addressed directory expected to hold large, immutable,
	// compressible content), writing them with a ".zst" suffix at the
	// destination.
	CompressBlobs bool
	// ShowProgress renders a terminal progress spinner while files copy,
	// for interactive use from cmd/pathdb.
	ShowProgress bool
}

// Result summarizes one sync operation.
type Result struct {
	FilesCopied   int
	BytesCopied   int64
	FilesSkipped  int // already present at destination (copy-if-missing hit)
	DirsNotFound  []string
}

// Sync replicates cfg.SourceRoot onto cfg.DestRoot per the copy-if-missing
// / unconditional-logs / HEAD-last rules. A source directory that does not
// exist at all is a no-op for that directory, not an error, since a fresh
// store legitimately has no quality/ or checkpoints/ yet. A source path
// that exists but is not a directory is an error.
func Sync(cfg Config) (Result, error) {
	var result Result

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("syncing "+cfg.SourceRoot),
			progressbar.OptionSpinnerType(14),
		)
		defer func() { _ = bar.Finish() }()
	}

	dirs := append([]string{}, contentAddressedDirs...)
	if cfg.IncludeCheckpoints {
		dirs = append(dirs, optionalContentAddressedDirs...)
	}

	for _, rel := range dirs {
		copied, skipped, bytes, found, err := syncContentAddressedDir(cfg, rel, bar)
		if err != nil {
			return result, fmt.Errorf("snapshotsync: %s: %w", rel, err)
		}
		if !found {
			result.DirsNotFound = append(result.DirsNotFound, rel)
			continue
		}
		result.FilesCopied += copied
		result.FilesSkipped += skipped
		result.BytesCopied += bytes
	}

	if cfg.IncludeLogs {
		for _, rel := range logFiles {
			n, err := syncFileUnconditional(cfg, rel)
			if err != nil {
				return result, fmt.Errorf("snapshotsync: %s: %w", rel, err)
			}
			if n >= 0 {
				result.FilesCopied++
				result.BytesCopied += n
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}
	}

	for _, rel := range headFiles {
		n, err := syncFileUnconditional(cfg, rel)
		if err != nil {
			return result, fmt.Errorf("snapshotsync: %s: %w", rel, err)
		}
		if n >= 0 {
			result.FilesCopied++
			result.BytesCopied += n
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	return result, nil
}

func syncContentAddressedDir(cfg Config, rel string, bar *progressbar.ProgressBar) (copied, skipped int, bytes int64, found bool, err error) {
	srcDir := filepath.Join(cfg.SourceRoot, rel)
	info, statErr := os.Stat(srcDir)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return 0, 0, 0, false, nil
		}
		return 0, 0, 0, false, statErr
	}
	if !info.IsDir() {
		return 0, 0, 0, false, fmt.Errorf("%s exists but is not a directory", srcDir)
	}

	compress := cfg.CompressBlobs && rel == filepath.Join("pathdb", "blobs")

	walkErr := filepath.Walk(srcDir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		relFile, relErr := filepath.Rel(cfg.SourceRoot, path)
		if relErr != nil {
			return relErr
		}
		destPath := filepath.Join(cfg.DestRoot, relFile)
		if compress && !strings.HasSuffix(destPath, ".zst") {
			destPath += ".zst"
		}

		if _, statErr := os.Stat(destPath); statErr == nil {
			skipped++
			return nil
		} else if !os.IsNotExist(statErr) {
			return statErr
		}

		if cfg.DryRun {
			copied++
			bytes += fi.Size()
			return nil
		}
		var (
			n       int64
			copyErr error
		)
		if compress {
			n, copyErr = compressFileWithRetry(path, destPath)
		} else {
			n, copyErr = copyFileWithRetry(path, destPath)
		}
		if copyErr != nil {
			return copyErr
		}
		copied++
		bytes += n
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})
	if walkErr != nil {
		return copied, skipped, bytes, true, walkErr
	}
	return copied, skipped, bytes, true, nil
}

// syncFileUnconditional copies one file regardless of whether the
// destination already exists, returning its byte count, or -1 if the
// source file does not exist (a no-op, not an error).
func syncFileUnconditional(cfg Config, rel string) (int64, error) {
	srcPath := filepath.Join(cfg.SourceRoot, rel)
	info, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return -1, err
	}
	if info.IsDir() {
		return -1, fmt.Errorf("%s exists but is not a file", srcPath)
	}
	if cfg.DryRun {
		return info.Size(), nil
	}
	destPath := filepath.Join(cfg.DestRoot, rel)
	return copyFileWithRetry(srcPath, destPath)
}

// copyFileWithRetry copies src to a temp file next to dst and renames it
// into place, retrying transient failures (e.g. a source file mid-write on
// a networked filesystem) with bounded exponential backoff.
func copyFileWithRetry(src, dst string) (int64, error) {
	var n int64
	op := func() error {
		copied, err := copyFileAtomic(src, dst)
		if err != nil {
			return err
		}
		n = copied
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	if err := backoff.Retry(op, b); err != nil {
		return 0, err
	}
	return n, nil
}

// compressFileWithRetry zstd-compresses src into dst (dst already carries
// the ".zst" suffix), with the same atomic-rename and retry discipline as
// copyFileWithRetry. The returned byte count is the compressed size
// actually written, not the source size, so Result.BytesCopied reflects
// what landed on disk.
func compressFileWithRetry(src, dst string) (int64, error) {
	var n int64
	op := func() error {
		written, err := compressFileAtomic(src, dst)
		if err != nil {
			return err
		}
		n = written
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	if err := backoff.Retry(op, b); err != nil {
		return 0, err
	}
	return n, nil
}

func compressFileAtomic(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("snapshotsync: zstd writer: %w", err)
	}
	_, copyErr := io.Copy(enc, in)
	closeEncErr := enc.Close()
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return 0, copyErr
	}
	if closeEncErr != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("snapshotsync: zstd close: %w", closeEncErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return 0, closeErr
	}
	written, statErr := os.Stat(tmp)
	if statErr != nil {
		_ = os.Remove(tmp)
		return 0, statErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return written.Size(), nil
}

func copyFileAtomic(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return 0, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return 0, closeErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return n, nil
}
