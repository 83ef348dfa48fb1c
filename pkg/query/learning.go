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

package query

import (
	"sort"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/metaplane"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// Canonical learning vocabulary (v1), grounded on learning.rs's
// TYPE_CONCEPT/TYPE_SAFETY_GUIDELINE/TYPE_EXAMPLE/TYPE_TEXT and
// REL_REQUIRES/REL_EXPLAINS/REL_DEMONSTRATES/REL_CONCEPT_DESCRIPTION. These
// match the canonical MachinistLearning example module; a future
// extension-block mechanism may let a schema declare its own role
// vocabulary instead of relying on this fixed set of names.
const (
	TypeConcept         = "Concept"
	TypeSafetyGuideline = "SafetyGuideline"
	TypeExample         = "Example"
	TypeText            = "Text"

	RelRequires           = "requires"
	RelExplains           = "explains"
	RelDemonstrates       = "demonstrates"
	RelConceptDescription = "conceptDescription"
)

// LearningEdge is one typed binary edge extracted for a LearningGraph.
type LearningEdge struct {
	RelType    string
	From       metaplane.TypedEntity
	To         metaplane.TypedEntity
	RelationID *graph.RelationID
	Confidence fixedprob.FixedProb
}

// LearningGraph is a schema-scoped view of the learning-oriented extension
// structures (concepts, prerequisites, guidelines, examples) a canonical
// module's instance data encodes as ordinary entities and relations.
// Grounded on learning.rs's LearningGraph.
type LearningGraph struct {
	Schema string

	Concepts []metaplane.TypedEntity

	Requires            []LearningEdge // requires(concept, prerequisite)
	Explains            []LearningEdge // explains(concept, guideline)
	Demonstrates        []LearningEdge // demonstrates(example, concept)
	ConceptDescriptions []LearningEdge // conceptDescription(concept, text)
}

// ExtractLearningGraph builds a LearningGraph for schemaName from db's
// current state. Grounded on learning.rs's extract_learning_graph: resolve
// the four typed entity sets, then pull each named relation restricted to
// its declared (from-type, to-type) pair.
func ExtractLearningGraph(db *pathdb.DB, typing *metaplane.AxiTypingContext, schemaName string) LearningGraph {
	concepts := typedEntityMap(typing.FindByAxiType(db, schemaName, TypeConcept))
	guidelines := typedEntityMap(typing.FindByAxiType(db, schemaName, TypeSafetyGuideline))
	examples := typedEntityMap(typing.FindByAxiType(db, schemaName, TypeExample))
	texts := typedEntityMap(typing.FindByAxiType(db, schemaName, TypeText))

	g := LearningGraph{
		Schema:              schemaName,
		Requires:            extractEdges(db, RelRequires, concepts, concepts),
		Explains:            extractEdges(db, RelExplains, concepts, guidelines),
		Demonstrates:        extractEdges(db, RelDemonstrates, examples, concepts),
		ConceptDescriptions: extractEdges(db, RelConceptDescription, concepts, texts),
	}
	for _, te := range concepts {
		g.Concepts = append(g.Concepts, te)
	}
	sort.Slice(g.Concepts, func(i, j int) bool { return g.Concepts[i].Entity < g.Concepts[j].Entity })
	return g
}

func typedEntityMap(entities []metaplane.TypedEntity) map[graph.EntityID]metaplane.TypedEntity {
	m := make(map[graph.EntityID]metaplane.TypedEntity, len(entities))
	for _, te := range entities {
		m[te.Entity] = te
	}
	return m
}

func extractEdges(db *pathdb.DB, relType string, from, to map[graph.EntityID]metaplane.TypedEntity) []LearningEdge {
	relTypeID, ok := db.Interner.IDOf(relType)
	if !ok {
		return nil
	}

	var out []LearningEdge
	for fromID, fromTE := range from {
		targets := db.Relations.Targets(relTypeID, fromID)
		for _, targetRaw := range targets.ToSlice() {
			toID := graph.EntityID(targetRaw)
			toTE, ok := to[toID]
			if !ok {
				continue
			}
			edge := LearningEdge{RelType: relType, From: fromTE, To: toTE, Confidence: fixedprob.One}
			if relID, ok := db.Relations.EdgeRelationID(relTypeID, fromID, toID); ok {
				if rel, ok := db.Relations.Get(relID); ok {
					id := relID
					edge.RelationID = &id
					edge.Confidence = rel.Confidence
				}
			}
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From.Entity != out[j].From.Entity {
			return out[i].From.Entity < out[j].From.Entity
		}
		return out[i].To.Entity < out[j].To.Entity
	})
	return out
}
