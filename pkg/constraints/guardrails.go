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

package constraints

import (
	"fmt"
	"math"

	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/metaplane"
)

// Severity classifies how confident a guardrail is that a proposed mutation
// is actually a mistake, grounded on guardrails.rs's stated goal of
// "identify potentially dangerous operations" as a tier below hard failure.
type Severity string

const (
	// SeverityInfo notes something a caller may want to know without
	// implying a problem. CheckProposedFact does not currently emit it.
	SeverityInfo Severity = "info"
	// SeverityWarning flags a likely mistake that a human should review.
	SeverityWarning Severity = "warning"
	// SeverityCritical flags a proposed fact that would immediately break
	// a key or cardinality constraint once committed.
	SeverityCritical Severity = "critical"
)

// guardrailFact is a sentinel entity id standing in for a not-yet-committed
// fact while probing whether adding it would trip a constraint. Real fact
// ids are assigned by pathdb.DB.AddEntity starting from a small counter, so
// collision against this sentinel is not a practical concern for a single
// advisory check.
const guardrailFact = graph.EntityID(math.MaxUint32)

// GuardrailViolation is an advisory finding from CheckProposedFact: unlike
// Violation, it never blocks anything -- a caller decides what to do with
// it (reject, warn, log, ask a human). Hint carries a short plain-English
// explanation a learning-support UI can surface directly, matching
// guardrails.rs's "Learning Hints" / "Explanation Generation" goals.
type GuardrailViolation struct {
	Severity Severity
	Kind     metaplane.ConstraintKind
	Relation string
	Message  string
	Hint     string
}

// CheckProposedFact simulates adding a fact of the given relation with the
// given field values and reports every key/cardinality/functional
// constraint it would newly violate, without writing anything to the
// database. The proposed fact is folded into the relation's current tuple
// set under a sentinel id and run back through the same checkKey /
// checkCardinality / checkFunctional logic CheckAll uses, so a guardrail
// can never drift out of sync with what CheckAll would eventually catch
// post-commit -- it is the same rule, evaluated one step earlier. Findings
// already present against the existing tuples (a pre-existing violation
// this fact had nothing to do with) are diffed out so a guardrail never
// blames the wrong mutation.
//
// Only constraint kinds that can be violated by a single new tuple in
// isolation are checked (key, cardinality, functional); symmetric/
// transitive closures and where-in membership depend on context a
// single-fact probe can't usefully pre-validate, so they are left to
// CheckAll after commit.
func (c *Checker) CheckProposedFact(relation string, fields map[string]graph.EntityID) []GuardrailViolation {
	schemaIdx, ok := c.meta.Schema(c.schema)
	if !ok {
		return []GuardrailViolation{{
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("guardrail: unknown schema %q, cannot validate proposed fact", c.schema),
		}}
	}

	existing := c.loadTuples(relation, schemaIdx)
	proposed := tuple{fact: guardrailFact, fields: fields}
	candidates := append(append([]tuple{}, existing...), proposed)

	var out []GuardrailViolation
	for _, decl := range schemaIdx.ConstraintsByRelation[relation] {
		switch decl.Kind {
		case metaplane.ConstraintKey:
			for _, v := range newViolations(c.checkKey(relation, decl, existing), c.checkKey(relation, decl, candidates)) {
				out = append(out, GuardrailViolation{
					Severity: SeverityCritical, Kind: v.Kind, Relation: relation, Message: v.Message,
					Hint: fmt.Sprintf("relation %q requires fields %v to be unique; an existing fact already uses this combination", relation, decl.Fields),
				})
			}
		case metaplane.ConstraintCardinality:
			for _, v := range newViolations(c.checkCardinality(relation, decl, existing), c.checkCardinality(relation, decl, candidates)) {
				out = append(out, GuardrailViolation{
					Severity: SeverityCritical, Kind: v.Kind, Relation: relation, Message: v.Message,
					Hint: fmt.Sprintf("relation %q allows at most %d tuples per %v; this fact would exceed that", relation, decl.Max, decl.Fields),
				})
			}
		case metaplane.ConstraintFunctional:
			for _, v := range newViolations(c.checkFunctional(relation, decl, existing), c.checkFunctional(relation, decl, candidates)) {
				out = append(out, GuardrailViolation{
					Severity: SeverityWarning, Kind: v.Kind, Relation: relation, Message: v.Message,
					Hint: fmt.Sprintf("relation %q's %s -> %s is declared functional; this fact would map an existing source to a second target", relation, decl.SrcField, decl.DstField),
				})
			}
		}
	}
	return out
}

// newViolations returns the entries of after not present in before,
// compared by message text (each Violation.Message already names the
// relation, fields and offending entities, so it is unique enough to use
// as a diff key here).
func newViolations(before, after []Violation) []Violation {
	seen := make(map[string]bool, len(before))
	for _, v := range before {
		seen[v.Message] = true
	}
	var out []Violation
	for _, v := range after {
		if !seen[v.Message] {
			out = append(out, v)
		}
	}
	return out
}
