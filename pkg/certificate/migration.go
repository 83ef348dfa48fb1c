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

package certificate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kraklabs/pathdb/pkg/graph"
)

// FieldDeclV1 is one field of a relation declaration within a SchemaV1.
type FieldDeclV1 struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RelationDeclV1 is one n-ary relation declared by a schema.
type RelationDeclV1 struct {
	Name   string        `json:"name"`
	Fields []FieldDeclV1 `json:"fields"`
}

// SchemaV1 is the shared, serializable shape of a schema's signature (its
// object types and relation declarations) used by Δ_F/Σ_F migration
// certificates on both the source and target side of a morphism. Grounded
// on migration.rs's module doc: "shared, serializable data structures ...
// used by the Rust runtime (to compute migrations) and the certificate
// layer (to emit witnesses to the trusted checker)".
type SchemaV1 struct {
	Name        string           `json:"name"`
	ObjectTypes []string         `json:"object_types"`
	Relations   []RelationDeclV1 `json:"relations"`
}

// ArrowMapV1 is the object-type-to-object-type and relation-to-relation
// renaming that makes up a schema morphism's action, keyed by source-side
// name, valued by the corresponding target-side name.
type ArrowMapV1 struct {
	ObjectMap   map[string]string `json:"object_map"`
	RelationMap map[string]string `json:"relation_map"`
}

// SchemaMorphismV1 F: Source -> Target is a named functor between two
// schema signatures, carried by a migration certificate so a checker can
// recompute the migration independently rather than trust the emitter.
type SchemaMorphismV1 struct {
	Name   string     `json:"name"`
	Source string     `json:"source"`
	Target string     `json:"target"`
	Arrows ArrowMapV1 `json:"arrows"`
}

// ObjectV1 is one instance object: an entity id tagged with the object
// type name it inhabits in its schema.
type ObjectV1 struct {
	ID   graph.EntityID `json:"id"`
	Type string         `json:"type"`
}

// FactV1 is one instance tuple: a relation name plus its field bindings,
// each field name mapped to the entity id occupying that field.
type FactV1 struct {
	Relation string                    `json:"relation"`
	Fields   map[string]graph.EntityID `json:"fields"`
}

// InstanceV1 is a schema-scoped snapshot of data: the objects and facts a
// migration certificate's morphism is applied to (or produces).
type InstanceV1 struct {
	Schema  string     `json:"schema"`
	Objects []ObjectV1 `json:"objects"`
	Facts   []FactV1   `json:"facts"`
}

// MigrationDirection distinguishes the two migration certificate shapes
// spec.md §4.13 names: Δ_F pushes a Source instance forward along F to a
// Target instance; Σ_F pulls a Target instance back along F to a Source
// instance. Both share the same payload shape, differing only in which
// instance is given and which is the recomputed/checked one.
type MigrationDirection string

const (
	// DirectionDeltaF is the pushforward: GivenInstance is source-schema
	// data, ComputedInstance is what F maps it to in the target schema.
	DirectionDeltaF MigrationDirection = "delta_f"
	// DirectionSigmaF is the pullback: GivenInstance is target-schema
	// data, ComputedInstance is what F maps it back to in the source
	// schema.
	DirectionSigmaF MigrationDirection = "sigma_f"
)

// MigrationPayload is the Δ_F/Σ_F certificate body: "carry the schema
// morphism, the source/target schemas, the instance(s), and the computed
// target/source instance; checker is expected to recompute and compare"
// (spec.md §4.13).
type MigrationPayload struct {
	Direction        MigrationDirection `json:"direction"`
	Morphism         SchemaMorphismV1   `json:"morphism"`
	SourceSchema     SchemaV1           `json:"source_schema"`
	TargetSchema     SchemaV1           `json:"target_schema"`
	GivenInstance    InstanceV1         `json:"given_instance"`
	ComputedInstance InstanceV1         `json:"computed_instance"`
}

// NewDeltaFMigration wraps a pushforward MigrationPayload in the top-level
// envelope.
func NewDeltaFMigration(morphism SchemaMorphismV1, source, target SchemaV1, sourceInstance, computedTargetInstance InstanceV1) (Certificate, error) {
	return wrap(VersionDeltaFMigrationV1, KindDeltaFMigration, MigrationPayload{
		Direction: DirectionDeltaF, Morphism: morphism,
		SourceSchema: source, TargetSchema: target,
		GivenInstance: sourceInstance, ComputedInstance: computedTargetInstance,
	})
}

// NewSigmaFMigration wraps a pullback MigrationPayload in the top-level
// envelope.
func NewSigmaFMigration(morphism SchemaMorphismV1, source, target SchemaV1, targetInstance, computedSourceInstance InstanceV1) (Certificate, error) {
	return wrap(VersionDeltaFMigrationV1, KindDeltaFMigration, MigrationPayload{
		Direction: DirectionSigmaF, Morphism: morphism,
		SourceSchema: source, TargetSchema: target,
		GivenInstance: targetInstance, ComputedInstance: computedSourceInstance,
	})
}

// DecodeMigration decodes c's payload as a MigrationPayload, erroring if
// c.Kind is not delta_f_migration.
func DecodeMigration(c Certificate) (*MigrationPayload, error) {
	if c.Kind != KindDeltaFMigration {
		return nil, fmt.Errorf("certificate: expected kind %q, got %q", KindDeltaFMigration, c.Kind)
	}
	var p MigrationPayload
	if err := json.Unmarshal(c.Payload, &p); err != nil {
		return nil, fmt.Errorf("certificate: decode migration payload: %w", err)
	}
	return &p, nil
}

// ApplyMorphism recomputes the instance F maps inst to, by renaming every
// object's type and every fact's relation (and field names) through
// morphism's ArrowMapV1. Object and fact identities (entity ids) are
// preserved -- a migration relabels what schema a piece of data belongs
// to, it never invents or destroys entities.
func ApplyMorphism(morphism SchemaMorphismV1, targetSchemaName string, inst InstanceV1) InstanceV1 {
	out := InstanceV1{Schema: targetSchemaName}
	for _, obj := range inst.Objects {
		mappedType := obj.Type
		if m, ok := morphism.Arrows.ObjectMap[obj.Type]; ok {
			mappedType = m
		}
		out.Objects = append(out.Objects, ObjectV1{ID: obj.ID, Type: mappedType})
	}
	for _, fact := range inst.Facts {
		mappedRelation := fact.Relation
		if m, ok := morphism.Arrows.RelationMap[fact.Relation]; ok {
			mappedRelation = m
		}
		fields := make(map[string]graph.EntityID, len(fact.Fields))
		for k, v := range fact.Fields {
			fields[k] = v
		}
		out.Facts = append(out.Facts, FactV1{Relation: mappedRelation, Fields: fields})
	}
	return out
}

// VerifyMigration independently recomputes ComputedInstance from
// GivenInstance by applying p.Morphism (forward for Δ_F, and still forward
// since Σ_F's GivenInstance/ComputedInstance are already oriented
// source-to-target within the stored payload) and reports a mismatch --
// the same recompute-and-compare contract every other Verify* function in
// this package follows.
func VerifyMigration(p *MigrationPayload) error {
	targetSchema := p.TargetSchema.Name
	if p.Direction == DirectionSigmaF {
		targetSchema = p.SourceSchema.Name
	}
	recomputed := ApplyMorphism(p.Morphism, targetSchema, p.GivenInstance)
	if !instancesEqual(recomputed, p.ComputedInstance) {
		return fmt.Errorf("certificate: recomputed instance does not match claimed computed instance for morphism %q", p.Morphism.Name)
	}
	return nil
}

func instancesEqual(a, b InstanceV1) bool {
	if a.Schema != b.Schema || len(a.Objects) != len(b.Objects) || len(a.Facts) != len(b.Facts) {
		return false
	}
	aObjs := append([]ObjectV1{}, a.Objects...)
	bObjs := append([]ObjectV1{}, b.Objects...)
	sort.Slice(aObjs, func(i, j int) bool { return aObjs[i].ID < aObjs[j].ID })
	sort.Slice(bObjs, func(i, j int) bool { return bObjs[i].ID < bObjs[j].ID })
	for i := range aObjs {
		if aObjs[i] != bObjs[i] {
			return false
		}
	}

	aFacts := append([]FactV1{}, a.Facts...)
	bFacts := append([]FactV1{}, b.Facts...)
	factKey := func(f FactV1) string {
		raw, _ := json.Marshal(f)
		return string(raw)
	}
	sort.Slice(aFacts, func(i, j int) bool { return factKey(aFacts[i]) < factKey(aFacts[j]) })
	sort.Slice(bFacts, func(i, j int) bool { return factKey(bFacts[i]) < factKey(bFacts[j]) })
	for i := range aFacts {
		if factKey(aFacts[i]) != factKey(bFacts[i]) {
			return false
		}
	}
	return true
}
