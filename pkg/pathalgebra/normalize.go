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

package pathalgebra

import "fmt"

// RuleRef names one of the nine canonical rewrite rules. Certificates of
// kind rewrite_derivation carry these verbatim so a proof can be replayed
// rule-by-rule by a checker that never re-derives normalization itself.
type RuleRef string

const (
	RuleInvInv            RuleRef = "inv_inv"             // inv(inv(x)) -> x
	RuleInvReflexive      RuleRef = "inv_reflexive"        // inv(id(t)) -> id(t)
	RuleInvSeq            RuleRef = "inv_seq"              // inv(a . b) -> inv(b) . inv(a)
	RuleInvTrans          RuleRef = "inv_trans"            // inv(trans(x)) -> trans(inv(x))
	RuleTransReflexive    RuleRef = "trans_reflexive"       // trans(id(t)) -> id(t)
	RuleTransTrans        RuleRef = "trans_trans"           // trans(trans(x)) -> trans(x)
	RuleSeqReflexiveLeft  RuleRef = "seq_reflexive_left"     // id(t) . x -> x
	RuleSeqReflexiveRight RuleRef = "seq_reflexive_right"    // x . id(t) -> x
	RuleSeqAssoc          RuleRef = "seq_assoc"              // (a . b) . c -> a . (b . c)
)

// AllRules lists the nine rules in canonical application order.
var AllRules = []RuleRef{
	RuleInvInv, RuleInvReflexive, RuleInvSeq, RuleInvTrans,
	RuleTransReflexive, RuleTransTrans,
	RuleSeqReflexiveLeft, RuleSeqReflexiveRight, RuleSeqAssoc,
}

// maxNormalizeIterations bounds the fixed-point loop. A well-formed
// PathExpr normalizes in time linear in its size; exceeding this is a
// capacity-budget condition, not a semantic error.
const maxNormalizeIterations = 10_000

// DerivationStep records one rewrite application: the rule used, and the
// before/after subexpression it fired on, rendered for human/checker
// readability.
type DerivationStep struct {
	Rule   RuleRef `json:"rule" cbor:"rule"`
	Before string  `json:"before" cbor:"before"`
	After  string  `json:"after" cbor:"after"`
}

// Normalize rewrites expr to its unique normal form, returning the
// replayable derivation trace alongside it. Returns an error if the fixed
// point is not reached within the iteration budget (a malformed or
// pathologically deep expression), per the capacity-budget error class.
func Normalize(expr *PathExpr) (*PathExpr, []DerivationStep, error) {
	current := expr.Clone()
	var trace []DerivationStep

	for i := 0; i < maxNormalizeIterations; i++ {
		next, step, applied := rewriteOnce(current)
		if !applied {
			return current, trace, nil
		}
		trace = append(trace, step)
		current = next
	}
	return nil, nil, fmt.Errorf("pathalgebra: normalization did not converge within %d rewrite steps", maxNormalizeIterations)
}

// rewriteOnce applies the first matching rule found in a single bottom-up
// (post-order) scan, so rewrites always fire on the most deeply nested
// redex first, matching a standard innermost rewrite strategy.
func rewriteOnce(e *PathExpr) (*PathExpr, DerivationStep, bool) {
	if e == nil {
		return e, DerivationStep{}, false
	}

	switch e.Kind {
	case Seq:
		if l, step, ok := rewriteOnce(e.Left); ok {
			return &PathExpr{Kind: Seq, Left: l, Right: e.Right}, step, true
		}
		if r, step, ok := rewriteOnce(e.Right); ok {
			return &PathExpr{Kind: Seq, Left: e.Left, Right: r}, step, true
		}
	case Inv, Trans:
		if inner, step, ok := rewriteOnce(e.Inner); ok {
			return &PathExpr{Kind: e.Kind, Inner: inner}, step, true
		}
	}

	if rewritten, rule, ok := matchRule(e); ok {
		return rewritten, DerivationStep{Rule: rule, Before: e.String(), After: rewritten.String()}, true
	}
	return e, DerivationStep{}, false
}

// matchRule tries each of the nine rules against the root of e.
func matchRule(e *PathExpr) (*PathExpr, RuleRef, bool) {
	switch e.Kind {
	case Inv:
		switch e.Inner.Kind {
		case Inv:
			return e.Inner.Inner, RuleInvInv, true
		case Reflexive:
			return e.Inner, RuleInvReflexive, true
		case Seq:
			return &PathExpr{Kind: Seq, Left: &PathExpr{Kind: Inv, Inner: e.Inner.Right}, Right: &PathExpr{Kind: Inv, Inner: e.Inner.Left}}, RuleInvSeq, true
		case Trans:
			return &PathExpr{Kind: Trans, Inner: &PathExpr{Kind: Inv, Inner: e.Inner.Inner}}, RuleInvTrans, true
		}
	case Trans:
		switch e.Inner.Kind {
		case Reflexive:
			return e.Inner, RuleTransReflexive, true
		case Trans:
			return e.Inner, RuleTransTrans, true
		}
	case Seq:
		if e.Left.Kind == Reflexive {
			return e.Right, RuleSeqReflexiveLeft, true
		}
		if e.Right.Kind == Reflexive {
			return e.Left, RuleSeqReflexiveRight, true
		}
		if e.Left.Kind == Seq {
			return &PathExpr{Kind: Seq, Left: e.Left.Left, Right: &PathExpr{Kind: Seq, Left: e.Left.Right, Right: e.Right}}, RuleSeqAssoc, true
		}
	}
	return nil, "", false
}

// Replay applies a recorded derivation's rules in order to expr, verifying
// at each step that the recorded Before matches the text of the
// subexpression the rule fires on. It is the trusted-checker-side
// counterpart to Normalize: it never searches for a rewrite, it only
// confirms one was legitimately applied.
func Replay(expr *PathExpr, trace []DerivationStep) (*PathExpr, error) {
	current := expr
	for i, step := range trace {
		rewritten, got, ok := matchRuleAnywhere(current)
		if !ok || got.Rule != step.Rule {
			return nil, fmt.Errorf("pathalgebra: derivation step %d: rule %q did not apply", i, step.Rule)
		}
		if got.Before != step.Before {
			return nil, fmt.Errorf("pathalgebra: derivation step %d expected %q, found %q", i, step.Before, got.Before)
		}
		current = rewritten
	}
	return current, nil
}

// matchRuleAnywhere is used by Replay to re-derive the same single step
// Normalize would have taken, including the redex text recorded as Before.
func matchRuleAnywhere(e *PathExpr) (*PathExpr, DerivationStep, bool) {
	return rewriteOnce(e)
}
