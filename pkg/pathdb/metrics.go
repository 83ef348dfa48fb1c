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

package pathdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors a *DB exposes about its own
// engine health: index rebuild frequency and cache occupancy. Registered
// against a caller-supplied registry (rather than the global default) so a
// process embedding more than one DB doesn't collide on metric names.
type metrics struct {
	factIndexRebuilds prometheus.Counter
	textIndexRebuilds prometheus.Counter
	pathIndexEntries  prometheus.GaugeFunc
}

// RegisterMetrics registers db's engine-health gauges and counters
// (FactIndex/TextIndex dirty-rebuild counts, PathIndex cached-signature
// count) against reg, labeled by name. Mirrors cie's use of
// prometheus/client_golang for engine-health metrics; call once per DB
// instance.
func (db *DB) RegisterMetrics(reg prometheus.Registerer, name string) error {
	labels := prometheus.Labels{"db": name}

	db.metrics.factIndexRebuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "pathdb",
		Subsystem:   "fact_index",
		Name:        "rebuilds_total",
		Help:        "Number of times the FactIndex was rebuilt from scratch after being marked dirty.",
		ConstLabels: labels,
	})
	db.metrics.textIndexRebuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "pathdb",
		Subsystem:   "text_index",
		Name:        "rebuilds_total",
		Help:        "Number of times the TextIndex was rebuilt from scratch after being marked dirty.",
		ConstLabels: labels,
	})
	db.metrics.pathIndexEntries = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "pathdb",
		Subsystem:   "path_index",
		Name:        "cached_signatures",
		Help:        "Number of path signatures currently cached (eager plus LRU tiers).",
		ConstLabels: labels,
	}, func() float64 { return float64(db.paths.Len()) })

	for _, c := range []prometheus.Collector{db.metrics.factIndexRebuilds, db.metrics.textIndexRebuilds, db.metrics.pathIndexEntries} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
