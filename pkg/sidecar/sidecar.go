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

// Package sidecar implements the debounced background writer that mirrors
// a DB's derived indexes (FactIndex, TextIndex, PathIndex's LRU tier) to a
// small CBOR file next to the main snapshot, so a later process can skip
// the O(n) index rebuild on startup. The sidecar is advisory: correctness
// of the DB never depends on its presence, and a version mismatch or
// missing file just means indexes rebuild lazily from scratch.
package sidecar

import (
	"fmt"
	"os"
	"sync"
	"time"
	"weak"

	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// writeLatency tracks how long a sidecar flush (marshal + atomic rename)
// takes, so an operator can see whether the debounce interval is actually
// giving the writer enough headroom under load. Registered against the
// default registry in the package's init, since sidecar.New has no
// registry parameter of its own to thread through.
var writeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "pathdb",
	Subsystem: "sidecar",
	Name:      "write_latency_seconds",
	Help:      "Time taken to marshal and atomically write one sidecar snapshot.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	prometheus.MustRegister(writeLatency)
}

// Version is the sidecar file's format tag, written into every snapshot and
// checked on load; a mismatch means the file is ignored and indexes rebuild
// lazily.
const Version = "pathdb_index_sidecar_v1"

// DefaultDebounce mirrors spec's INDEX_SIDECAR_DEBOUNCE: the writer waits
// this long after the most recent MarkDirty before composing a snapshot.
const DefaultDebounce = 2 * time.Second

// Snapshot is the on-disk shape of a sidecar file.
type Snapshot struct {
	Version    string                     `cbor:"version"`
	SnapshotID string                     `cbor:"snapshot_id,omitempty"`
	FactIndex  *pathdb.FactIndexSnapshot  `cbor:"fact_index,omitempty"`
	TextIndex  *pathdb.TextIndexSnapshot  `cbor:"text_indexes,omitempty"`
	PathLRU    *pathdb.PathLRUSnapshot    `cbor:"path_lru,omitempty"`
}

type command int

const (
	cmdMarkDirty command = iota
	cmdShutdown
)

// Writer is the background debounced sidecar writer. A Writer holds only a
// weak reference to its owning DB: if the DB is garbage collected the
// writer's next attempt to dereference it fails and the goroutine exits
// cleanly instead of pinning a dead DB in memory.
type Writer struct {
	path       string
	debounce   time.Duration
	dbRef      weak.Pointer[pathdb.DB]
	snapshotID string

	cmds chan command
	done chan struct{}

	mu   sync.Mutex
	last Snapshot // last snapshot written, exposed for tests/inspection
}

// New starts a Writer for db, persisting sidecar snapshots to path. debounce
// of zero uses DefaultDebounce. snapshotID is recorded in every written
// snapshot so a loader can tell whether the sidecar still matches the
// on-disk main snapshot it was written alongside.
func New(db *pathdb.DB, path string, debounce time.Duration, snapshotID string) *Writer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Writer{
		path:       path,
		debounce:   debounce,
		dbRef:      weak.Make(db),
		snapshotID: snapshotID,
		cmds:       make(chan command, 64),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

// MarkDirty notifies the writer that the DB changed. Non-blocking: if the
// command channel is full (writer already has a pending mark) the call is
// a no-op, since one pending dirty mark already guarantees a future flush.
func (w *Writer) MarkDirty() {
	select {
	case w.cmds <- cmdMarkDirty:
	default:
	}
}

// Shutdown flushes a pending dirty snapshot (if any) and stops the writer.
// Blocks until the background goroutine has exited.
func (w *Writer) Shutdown() {
	w.cmds <- cmdShutdown
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)

	dirty := false
	var timer *time.Timer
	var timerC <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case cmd, ok := <-w.cmds:
			if !ok {
				return
			}
			switch cmd {
			case cmdMarkDirty:
				dirty = true
				stopTimer()
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			case cmdShutdown:
				stopTimer()
				if dirty {
					w.flush()
				}
				return
			}
		case <-timerC:
			timerC = nil
			if dirty {
				if w.flush() {
					dirty = false
				} else {
					// DB is gone; nothing left to mirror.
					return
				}
			}
		}
	}
}

// flush composes and atomically writes one snapshot. Returns false if the
// owning DB has been collected, signaling the writer should exit.
func (w *Writer) flush() bool {
	start := time.Now()
	defer func() { writeLatency.Observe(time.Since(start).Seconds()) }()

	db := w.dbRef.Value()
	if db == nil {
		return false
	}

	factSnap := db.FactIndex().Snapshot()
	textSnap := db.TextIndex().Snapshot()
	pathSnap := db.PathIndex().Snapshot()

	snap := Snapshot{
		Version:    Version,
		SnapshotID: w.snapshotID,
		FactIndex:  &factSnap,
		TextIndex:  &textSnap,
		PathLRU:    &pathSnap,
	}

	if err := writeAtomic(w.path, snap); err != nil {
		return true // keep the writer alive; try again on the next mark
	}

	w.mu.Lock()
	w.last = snap
	w.mu.Unlock()
	return true
}

func writeAtomic(path string, snap Snapshot) error {
	data, err := cbor.Marshal(snap)
	if err != nil {
		return fmt.Errorf("sidecar: marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("sidecar: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("sidecar: rename: %w", err)
	}
	return nil
}

// Load reads a sidecar file from path. A missing file or a version mismatch
// is reported via ok=false rather than an error: the sidecar is advisory,
// and both cases mean the caller should just let indexes rebuild lazily.
func Load(path string) (snap Snapshot, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("sidecar: read: %w", err)
	}
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("sidecar: decode: %w", err)
	}
	if snap.Version != Version {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Apply installs a loaded Snapshot's indexes onto db, skipping the entity
// scan RebuildIfDirty would otherwise pay on first query. Callers should
// only call this when the snapshot's SnapshotID matches the main snapshot
// db was just loaded from; otherwise the cached indexes may not reflect
// the loaded data and should be left to rebuild from scratch.
func Apply(db *pathdb.DB, snap Snapshot) {
	if snap.FactIndex != nil {
		db.FactIndex().RestoreSnapshot(*snap.FactIndex)
	}
	if snap.TextIndex != nil {
		db.TextIndex().RestoreSnapshot(*snap.TextIndex)
	}
	if snap.PathLRU != nil {
		db.PathIndex().RestoreSnapshot(*snap.PathLRU)
	}
}
