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

// Package certificate defines the versioned, JSON-serializable
// proof-carrying result formats emitted by PathDB query and normalization
// operations, intended to be consumed by a trusted external checker without
// that checker needing to re-run PathDB's own search.
package certificate

import (
	"encoding/json"
	"fmt"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/pathalgebra"
)

// Version constants, one per certificate shape ever emitted. Old versions
// are never renumbered: a checker pins the versions it understands.
const (
	VersionReachabilityV1       = 1
	VersionReachabilityV2       = 2
	VersionPathEquivCongruenceV2 = 2
	VersionNormalizePathV2      = 2
	VersionRewriteDerivationV2  = 2
	VersionRewriteDerivationV3  = 3
	VersionResolutionV2         = 2
	VersionDeltaFMigrationV1    = 1
)

// Kind discriminates the certificate payload shape, serialized as the JSON
// "kind" tag.
type Kind string

const (
	KindReachability      Kind = "reachability"
	KindPathEquivCongruence Kind = "path_equiv_congruence"
	KindNormalizePath     Kind = "normalize_path"
	KindRewriteDerivation Kind = "rewrite_derivation"
	KindResolution        Kind = "resolution"
	KindDeltaFMigration   Kind = "delta_f_migration"
)

// Certificate is the top-level versioned, kind-tagged envelope. The payload
// field is kept as json.RawMessage so Marshal/Unmarshal round-trip exactly
// and callers dispatch on Kind before decoding Payload into a concrete
// struct below.
type Certificate struct {
	Version int             `json:"version"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ReachabilityStep is one edge in a reachability witness chain.
type ReachabilityStep struct {
	From             graph.EntityID      `json:"from"`
	RelLabel         string              `json:"rel_type"`
	To               graph.EntityID      `json:"to"`
	RelConfidenceNum uint32              `json:"rel_confidence_fp"`
	RelationID       *graph.RelationID   `json:"relation_id,omitempty"`
}

// ReachabilityProofV2 is a right-associated witness chain: either a
// reflexive (zero-step) proof at an entity, or one step followed by the
// rest of the chain. Grounded directly on the Rust ReachabilityProofV2
// shape (Reflexive | Step { ..., rest }).
type ReachabilityProofV2 struct {
	Reflexive *graph.EntityID     `json:"reflexive,omitempty"`
	Step      *ReachabilityStep   `json:"step,omitempty"`
	Rest      *ReachabilityProofV2 `json:"rest,omitempty"`
}

// NewReachabilityProofV2FromRelationIDs builds a witness by validating that
// relationIDs forms a connected chain starting at start, then reifying it
// as a right-associated Step/Reflexive chain. This is the Go counterpart of
// reachability_proof_v2_from_relation_ids: both require the chain to
// validate via RelationStore before a witness can be constructed at all.
func NewReachabilityProofV2FromRelationIDs(relations *graph.RelationStore, start graph.EntityID, relationIDs []graph.RelationID) (*ReachabilityProofV2, error) {
	if len(relationIDs) == 0 {
		s := start
		return &ReachabilityProofV2{Reflexive: &s}, nil
	}

	chainStart, end, err := relations.ValidateChain(relationIDs)
	if err != nil {
		return nil, err
	}
	if chainStart != start {
		return nil, fmt.Errorf("certificate: relation chain starts at entity %d, not at %d", chainStart, start)
	}
	_ = end

	rest := &ReachabilityProofV2{}
	{
		lastRelID := relationIDs[len(relationIDs)-1]
		rel, ok := relations.Get(lastRelID)
		if !ok {
			return nil, fmt.Errorf("certificate: missing relation %d in RelationStore", lastRelID)
		}
		e := rel.Target
		rest = &ReachabilityProofV2{Reflexive: &e}
	}

	for i := len(relationIDs) - 1; i >= 0; i-- {
		relID := relationIDs[i]
		rel, ok := relations.Get(relID)
		if !ok {
			return nil, fmt.Errorf("certificate: missing relation %d in RelationStore", relID)
		}
		id := relID
		step := &ReachabilityStep{
			From:             rel.Source,
			To:               rel.Target,
			RelConfidenceNum: rel.Confidence.Numerator,
			RelationID:       &id,
		}
		rest = &ReachabilityProofV2{Step: step, Rest: rest}
	}
	return rest, nil
}

// EndEntity walks the chain to its terminal reflexive entity.
func (p *ReachabilityProofV2) EndEntity() (graph.EntityID, error) {
	cur := p
	for cur != nil {
		if cur.Reflexive != nil {
			return *cur.Reflexive, nil
		}
		cur = cur.Rest
	}
	return 0, fmt.Errorf("certificate: malformed reachability proof: no terminal reflexive node")
}

// CombinedConfidence multiplies every step's edge confidence via fixed-point
// arithmetic, matching the monotone-non-increasing composition rule used by
// PathEvaluator.
func (p *ReachabilityProofV2) CombinedConfidence() fixedprob.FixedProb {
	result := fixedprob.One
	cur := p
	for cur != nil {
		if cur.Step != nil {
			result = result.Mul(fixedprob.FixedProb{Numerator: cur.Step.RelConfidenceNum})
		}
		cur = cur.Rest
	}
	return result
}

// NormalizePathPayload certifies that Before normalizes to After via Trace,
// replayable without search via pathalgebra.Replay.
type NormalizePathPayload struct {
	Before string                       `json:"before"`
	After  string                       `json:"after"`
	Trace  []pathalgebra.DerivationStep `json:"trace"`
}

// PathEquivCongruencePayload certifies that two path expressions are equal
// under the rewrite system by normalizing both to the same normal form.
type PathEquivCongruencePayload struct {
	Left       string `json:"left"`
	Right      string `json:"right"`
	NormalForm string `json:"normal_form"`
}

// RewriteDerivationPayload certifies a step-by-step rewrite. Versions 2 and
// 3 share this one shape: every trace step carries its rule name plus
// before/after text (pathalgebra.DerivationStep).
type RewriteDerivationPayload struct {
	Before string                       `json:"before"`
	After  string                       `json:"after"`
	Trace  []pathalgebra.DerivationStep `json:"trace"`
}

// ResolutionPayload certifies that an equivalence-class resolution chose
// Canonical among Members.
type ResolutionPayload struct {
	Canonical graph.EntityID   `json:"canonical"`
	Members   []graph.EntityID `json:"members"`
}

// NewReachability wraps a ReachabilityProofV2 in the top-level envelope.
func NewReachability(proof *ReachabilityProofV2) (Certificate, error) {
	return wrap(VersionReachabilityV2, KindReachability, proof)
}

// NewNormalizePath wraps a NormalizePathPayload in the top-level envelope.
func NewNormalizePath(p NormalizePathPayload) (Certificate, error) {
	return wrap(VersionNormalizePathV2, KindNormalizePath, p)
}

// NewPathEquivCongruence wraps a PathEquivCongruencePayload in the top-level
// envelope.
func NewPathEquivCongruence(p PathEquivCongruencePayload) (Certificate, error) {
	return wrap(VersionPathEquivCongruenceV2, KindPathEquivCongruence, p)
}

// NewRewriteDerivation wraps a RewriteDerivationPayload at the given
// version (2 or 3; both use the same payload shape in this port since Go's
// DerivationStep already carries before/after text).
func NewRewriteDerivation(version int, p RewriteDerivationPayload) (Certificate, error) {
	return wrap(version, KindRewriteDerivation, p)
}

// NewResolution wraps a ResolutionPayload in the top-level envelope.
func NewResolution(p ResolutionPayload) (Certificate, error) {
	return wrap(VersionResolutionV2, KindResolution, p)
}

func wrap(version int, kind Kind, payload any) (Certificate, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Certificate{}, fmt.Errorf("certificate: encode %s payload: %w", kind, err)
	}
	return Certificate{Version: version, Kind: kind, Payload: raw}, nil
}

// DecodeReachability decodes c's payload as a ReachabilityProofV2, erroring
// if c.Kind is not reachability.
func DecodeReachability(c Certificate) (*ReachabilityProofV2, error) {
	if c.Kind != KindReachability {
		return nil, fmt.Errorf("certificate: expected kind %q, got %q", KindReachability, c.Kind)
	}
	var p ReachabilityProofV2
	if err := json.Unmarshal(c.Payload, &p); err != nil {
		return nil, fmt.Errorf("certificate: decode reachability payload: %w", err)
	}
	return &p, nil
}

// DecodeNormalizePath decodes c's payload as a NormalizePathPayload.
func DecodeNormalizePath(c Certificate) (*NormalizePathPayload, error) {
	if c.Kind != KindNormalizePath {
		return nil, fmt.Errorf("certificate: expected kind %q, got %q", KindNormalizePath, c.Kind)
	}
	var p NormalizePathPayload
	if err := json.Unmarshal(c.Payload, &p); err != nil {
		return nil, fmt.Errorf("certificate: decode normalize_path payload: %w", err)
	}
	return &p, nil
}

// VerifyNormalizePath re-checks a NormalizePathPayload by replaying its
// trace against its own Before text, confirming it reaches After without
// re-deriving normalization via search. This is the certificate-level
// counterpart to pathalgebra.Replay and is the function a trusted checker
// would call.
func VerifyNormalizePath(p *NormalizePathPayload) error {
	before, err := pathalgebra.ParseDebugString(p.Before)
	if err != nil {
		return fmt.Errorf("certificate: parse before: %w", err)
	}
	got, err := pathalgebra.Replay(before, p.Trace)
	if err != nil {
		return err
	}
	if got.String() != p.After {
		return fmt.Errorf("certificate: replayed result %q does not match claimed after %q", got.String(), p.After)
	}
	return nil
}
