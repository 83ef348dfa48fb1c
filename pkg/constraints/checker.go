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

// Package constraints implements ConstraintChecker: runtime enforcement of
// the theory constraints declared in a schema's meta-plane (key,
// functional, symmetric/transitive fibered closures, where-in,
// cardinality) against the fact tuples actually present in a PathDB. It
// fails closed on any constraint kind it does not recognize, matching
// check_axi_constraints_ok_v1's "refused: unknown/unsupported constraint"
// behavior, with one carve-out: a named prose block
// (`constraint Name: ...`) is preserved but inert and never trips the
// fail-closed rule, since it documents intent rather than declaring an
// enforceable rule.
package constraints

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/metaplane"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// checkDuration tracks how long one CheckAll pass takes across every
// relation in a schema, registered against the default registry the first
// time this package is loaded -- mirrors sidecar's writeLatency pattern.
var checkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "pathdb",
	Subsystem: "constraints",
	Name:      "check_all_duration_seconds",
	Help:      "Time taken to evaluate every declared constraint for a schema's relations.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	prometheus.MustRegister(checkDuration)
}

// Violation is one constraint failure found while checking a schema.
type Violation struct {
	Kind     metaplane.ConstraintKind
	Relation string
	Message  string
}

func (v Violation) Error() string { return v.Message }

// Checker enforces the constraints declared in one schema of a
// MetaPlaneIndex against the facts stored in the same PathDB the index was
// built from.
type Checker struct {
	db     *pathdb.DB
	meta   *metaplane.MetaPlaneIndex
	schema string
}

// New builds a Checker for schemaName using db's current meta-plane and
// fact data.
func New(db *pathdb.DB, meta *metaplane.MetaPlaneIndex, schemaName string) *Checker {
	return &Checker{db: db, meta: meta, schema: schemaName}
}

// tuple is one fact's field values, keyed by field name, as the EntityID
// each field edge points at.
type tuple struct {
	fact   graph.EntityID
	fields map[string]graph.EntityID
}

// CheckAll runs every declared constraint for every relation in the
// checker's schema and returns every violation found (not just the first),
// so a single check_all call reports everything wrong with an instance at
// once. An unrecognized constraint kind (other than a named block) is
// itself reported as a violation: the checker refuses to silently treat an
// unknown rule as satisfied.
//
// Relations are independent of one another -- each owns a disjoint set of
// tuples and constraint declarations -- so CheckAll fans the per-relation
// work out across an errgroup and merges the results back in a fixed
// (alphabetical) relation order, keeping output deterministic despite the
// concurrent evaluation.
func (c *Checker) CheckAll() []Violation {
	start := time.Now()
	defer func() { checkDuration.Observe(time.Since(start).Seconds()) }()

	schemaIdx, ok := c.meta.Schema(c.schema)
	if !ok {
		return []Violation{{Message: fmt.Sprintf("constraints: unknown schema %q", c.schema)}}
	}

	relations := make([]string, 0, len(schemaIdx.ConstraintsByRelation))
	for relation := range schemaIdx.ConstraintsByRelation {
		relations = append(relations, relation)
	}
	sort.Strings(relations)

	results := make([][]Violation, len(relations))
	var g errgroup.Group
	for i, relation := range relations {
		i, relation := i, relation
		decls := schemaIdx.ConstraintsByRelation[relation]
		g.Go(func() error {
			results[i] = c.checkRelation(relation, decls, schemaIdx)
			return nil
		})
	}
	_ = g.Wait() // checkRelation never returns an error; Wait only joins goroutines.

	var violations []Violation
	for _, rv := range results {
		violations = append(violations, rv...)
	}
	return violations
}

// checkRelation runs every declared constraint against one relation's
// tuples.
func (c *Checker) checkRelation(relation string, decls []metaplane.ConstraintDecl, schemaIdx *metaplane.SchemaIndex) []Violation {
	tuples := c.loadTuples(relation, schemaIdx)
	var violations []Violation
	for _, decl := range decls {
		switch decl.Kind {
		case metaplane.ConstraintKey:
			violations = append(violations, c.checkKey(relation, decl, tuples)...)
		case metaplane.ConstraintFunctional:
			violations = append(violations, c.checkFunctional(relation, decl, tuples)...)
		case metaplane.ConstraintSymmetric:
			violations = append(violations, c.checkClosure(relation, decl, tuples, true)...)
		case metaplane.ConstraintTransitive:
			violations = append(violations, c.checkClosure(relation, decl, tuples, false)...)
		case metaplane.ConstraintWhereIn:
			violations = append(violations, c.checkWhereIn(relation, decl, tuples)...)
		case metaplane.ConstraintCardinality:
			violations = append(violations, c.checkCardinality(relation, decl, tuples)...)
		case metaplane.ConstraintNamedBlock:
			// Preserved, intentionally never executed.
		default:
			violations = append(violations, Violation{
				Kind: decl.Kind, Relation: relation,
				Message: fmt.Sprintf("constraints: refused to check relation %q: unknown/unsupported constraint kind %q", relation, decl.Kind),
			})
		}
	}
	return violations
}

func (c *Checker) loadTuples(relation string, schemaIdx *metaplane.SchemaIndex) []tuple {
	facts := c.db.FactIndex().FactsOf(c.schema, relation)
	relDecl, hasDecl := schemaIdx.Relations[relation]

	var out []tuple
	for _, raw := range facts.ToSlice() {
		factID := graph.EntityID(raw)
		t := tuple{fact: factID, fields: make(map[string]graph.EntityID)}
		if hasDecl {
			for _, f := range relDecl.Fields {
				fieldRelID, ok := c.db.Interner.IDOf(f.Name)
				if !ok {
					continue
				}
				targets := c.db.Relations.Targets(fieldRelID, factID)
				if targets.IsEmpty() {
					continue
				}
				t.fields[f.Name] = graph.EntityID(targets.ToSlice()[0])
			}
		}
		out = append(out, t)
	}
	return out
}

func fieldKey(t tuple, fields []string) (string, bool) {
	var parts []string
	for _, f := range fields {
		v, ok := t.fields[f]
		if !ok {
			return "", false
		}
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, "|"), true
}

func (c *Checker) checkKey(relation string, decl metaplane.ConstraintDecl, tuples []tuple) []Violation {
	seen := make(map[string]graph.EntityID)
	var violations []Violation
	for _, t := range tuples {
		key, ok := fieldKey(t, decl.Fields)
		if !ok {
			continue
		}
		if prior, exists := seen[key]; exists && prior != t.fact {
			violations = append(violations, Violation{
				Kind: decl.Kind, Relation: relation,
				Message: fmt.Sprintf("key violation: relation %q fields %v: facts %d and %d share the same key", relation, decl.Fields, prior, t.fact),
			})
			continue
		}
		seen[key] = t.fact
	}
	return violations
}

func (c *Checker) checkFunctional(relation string, decl metaplane.ConstraintDecl, tuples []tuple) []Violation {
	seen := make(map[graph.EntityID]graph.EntityID)
	var violations []Violation
	for _, t := range tuples {
		src, ok1 := t.fields[decl.SrcField]
		dst, ok2 := t.fields[decl.DstField]
		if !ok1 || !ok2 {
			continue
		}
		if prior, exists := seen[src]; exists && prior != dst {
			violations = append(violations, Violation{
				Kind: decl.Kind, Relation: relation,
				Message: fmt.Sprintf("functional violation: relation %q: %s -> %s is not a function (entity %d maps to both %d and %d)", relation, decl.SrcField, decl.DstField, src, prior, dst),
			})
			continue
		}
		seen[src] = dst
	}
	return violations
}

// checkClosure computes the fibered symmetric or transitive closure of the
// (OnFrom, OnTo) pair, grouped by Params (the fiber key): closure within
// one fiber never mixes with another. It then re-runs any key/functional
// constraints declared on the same relation against the closed tuple set,
// surfacing violations that only exist once the closure is taken into
// account (e.g. a transitive edge introduced across a fiber creating a
// duplicate key). Grounded on the fiber-scoped closure semantics exercised
// by axi_constraints_ok_unit_tests.rs's transitive/symmetric param tests.
func (c *Checker) checkClosure(relation string, decl metaplane.ConstraintDecl, tuples []tuple, symmetric bool) []Violation {
	if decl.OnFrom == "" || decl.OnTo == "" {
		return nil
	}

	type fiberKey = string
	byFiber := make(map[fiberKey][]tuple)
	for _, t := range tuples {
		fk, ok := fieldKey(t, decl.Params)
		if !ok && len(decl.Params) > 0 {
			continue
		}
		byFiber[fk] = append(byFiber[fk], t)
	}

	var closed []tuple
	for _, fiberTuples := range byFiber {
		pairs := make(map[[2]graph.EntityID]bool)
		for _, t := range fiberTuples {
			from, ok1 := t.fields[decl.OnFrom]
			to, ok2 := t.fields[decl.OnTo]
			if !ok1 || !ok2 {
				continue
			}
			pairs[[2]graph.EntityID{from, to}] = true
			if symmetric {
				pairs[[2]graph.EntityID{to, from}] = true
			}
		}
		if !symmetric {
			pairs = transitiveClosure(pairs)
		}
		for pair := range pairs {
			t := tuple{fact: graph.EntityID(len(closed)), fields: map[string]graph.EntityID{decl.OnFrom: pair[0], decl.OnTo: pair[1]}}
			for _, p := range decl.Params {
				if fiberTuples != nil {
					if v, ok := fiberTuples[0].fields[p]; ok {
						t.fields[p] = v
					}
				}
			}
			closed = append(closed, t)
		}
	}

	schemaIdx, _ := c.meta.Schema(c.schema)
	var violations []Violation
	if schemaIdx != nil {
		for _, other := range schemaIdx.ConstraintsByRelation[relation] {
			switch other.Kind {
			case metaplane.ConstraintKey:
				violations = append(violations, c.checkKey(relation, other, closed)...)
			case metaplane.ConstraintFunctional:
				violations = append(violations, c.checkFunctional(relation, other, closed)...)
			}
		}
	}
	return violations
}

func transitiveClosure(pairs map[[2]graph.EntityID]bool) map[[2]graph.EntityID]bool {
	changed := true
	for changed {
		changed = false
		for p1 := range pairs {
			for p2 := range pairs {
				if p1[1] != p2[0] {
					continue
				}
				candidate := [2]graph.EntityID{p1[0], p2[1]}
				if !pairs[candidate] {
					pairs[candidate] = true
					changed = true
				}
			}
		}
	}
	return pairs
}

func (c *Checker) checkWhereIn(relation string, decl metaplane.ConstraintDecl, tuples []tuple) []Violation {
	allowed := make(map[string]bool)
	for _, v := range decl.WhereInValues {
		allowed[v] = true
	}
	var violations []Violation
	for _, t := range tuples {
		target, ok := t.fields[decl.WhereField]
		if !ok {
			continue
		}
		e, ok := c.db.Entities.Get(target)
		if !ok {
			continue
		}
		name, ok := nameOf(c.db, e)
		if !ok || !allowed[name] {
			violations = append(violations, Violation{
				Kind: decl.Kind, Relation: relation,
				Message: fmt.Sprintf("where-in violation: relation %q field %q value %q is not in %v", relation, decl.WhereField, name, decl.WhereInValues),
			})
		}
	}
	return violations
}

func (c *Checker) checkCardinality(relation string, decl metaplane.ConstraintDecl, tuples []tuple) []Violation {
	counts := make(map[string]int)
	for _, t := range tuples {
		key, ok := fieldKey(t, decl.Fields)
		if !ok {
			continue
		}
		counts[key]++
	}
	var keys []string
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var violations []Violation
	for _, k := range keys {
		if counts[k] > decl.Max {
			violations = append(violations, Violation{
				Kind: decl.Kind, Relation: relation,
				Message: fmt.Sprintf("cardinality violation: relation %q fields %v: found %d tuples, max %d", relation, decl.Fields, counts[k], decl.Max),
			})
		}
	}
	return violations
}

func nameOf(db *pathdb.DB, e graph.Entity) (string, bool) {
	nameKeyID, ok := db.Interner.IDOf(metaplane.AttrName)
	if !ok {
		return "", false
	}
	v, ok := e.Attrs[nameKeyID]
	if !ok || v.Kind != graph.KindString {
		return "", false
	}
	return v.Str, true
}
