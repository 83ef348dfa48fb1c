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

// Package metaplane reifies the axi schema/theory/instance vocabulary as
// graph entities and relations inside the same PathDB graph they describe,
// and provides the typing context used to fact-type-check instance data
// against it. The string vocabulary below is load-bearing: the textual
// dialect importer/exporter and the constraint checker must agree on it
// exactly, so it is centralized here the same way the original
// implementation centralizes it in one module to avoid importer/exporter
// drift.
package metaplane

import "fmt"

// Meta entity types.
const (
	TypeModule       = "AxiMetaModule"
	TypeSchema       = "AxiMetaSchema"
	TypeObjectType   = "AxiMetaObjectType"
	TypeRelationDecl = "AxiMetaRelationDecl"
	TypeFieldDecl    = "AxiMetaFieldDecl"
	TypeSubtypeDecl  = "AxiMetaSubtypeDecl"
	TypeTheory       = "AxiMetaTheory"
	TypeConstraint   = "AxiMetaConstraint"
	TypeEquation     = "AxiMetaEquation"
	TypeRewriteRule  = "AxiMetaRewriteRule"
	TypeInstance     = "AxiMetaInstance"
)

// Meta relations (edge labels).
const (
	RelHasSchema          = "axi_has_schema"
	RelSchemaHasObject     = "axi_schema_has_object"
	RelSchemaHasRelation   = "axi_schema_has_relation"
	RelRelationHasField    = "axi_relation_has_field"
	RelSchemaHasSubtype    = "axi_schema_has_subtype"
	RelSchemaHasTheory     = "axi_schema_has_theory"
	RelTheoryHasConstraint = "axi_theory_has_constraint"
	RelTheoryHasEquation   = "axi_theory_has_equation"
	RelTheoryHasRewriteRule = "axi_theory_has_rewrite_rule"
	RelHasInstance         = "axi_has_instance"

	// RelSubtypeOf is the subtype relation between object type
	// declarations (sub -> sup).
	RelSubtypeOf = "axi_subtype_of"

	// RelFactOf links a relation-tuple (fact node) to its relation
	// declaration.
	RelFactOf = "axi_fact_of"

	// RelFactInContext is a derived edge scoping a fact node to a
	// context/world entity, computed at import time from the tuple's
	// @context-annotated field so queries never depend on checker-level
	// semantics to scope facts.
	RelFactInContext = "axi_fact_in_context"
)

// Common attributes.
const (
	// AttrMetaID is a stable id on meta entities, used to avoid
	// duplicates on repeated import.
	AttrMetaID = "axi_meta_id"
	// AttrName is the human-readable name of a meta entity.
	AttrName = "name"
	// AttrDialect tags the dialect a module was imported from
	// ("axi_v1" / "axi_schema_v1").
	AttrDialect = "axi_dialect"
	// AttrAxiDigestV1 stores the FNV-1a 64 digest of the originating
	// text, if known.
	AttrAxiDigestV1 = "axi_digest_v1"

	// AttrAxiModule, AttrAxiSchemaName, AttrAxiInstance mark provenance
	// on both instance data and meta entities.
	AttrAxiModule     = "axi_module"
	AttrAxiSchemaName = "axi_schema"
	AttrAxiInstance   = "axi_instance"

	// AttrAxiRelation and AttrAxiFactID are attached to fact (tuple)
	// entities imported from relation assignments.
	AttrAxiRelation = "axi_relation"
	AttrAxiFactID   = "axi_fact_id"

	// Field decl attrs.
	AttrFieldName  = "axi_field"
	AttrFieldType  = "axi_field_type"
	AttrFieldIndex = "axi_field_index"

	// Subtype decl attrs.
	AttrSubtypeSub       = "axi_sub"
	AttrSubtypeSup       = "axi_sup"
	AttrSubtypeInclusion = "axi_inclusion"

	// Constraint attrs.
	AttrConstraintKind          = "axi_constraint_kind"
	AttrConstraintRelation      = "axi_constraint_relation"
	AttrConstraintName          = "axi_constraint_name"
	AttrConstraintSrcField      = "axi_constraint_src_field"
	AttrConstraintDstField      = "axi_constraint_dst_field"
	AttrConstraintFields        = "axi_constraint_fields"
	AttrConstraintParamFields   = "axi_constraint_param_fields"
	AttrConstraintWhereField    = "axi_constraint_where_field"
	AttrConstraintWhereInValues = "axi_constraint_where_in_values"
	AttrConstraintMax           = "axi_constraint_max"
	AttrConstraintText          = "axi_constraint_text"
	AttrConstraintIndex         = "axi_constraint_index"

	// Equation attrs.
	AttrEquationLHS   = "axi_equation_lhs"
	AttrEquationRHS   = "axi_equation_rhs"
	AttrEquationIndex = "axi_equation_index"

	// Rewrite rule attrs.
	AttrRewriteRuleOrientation = "axi_rewrite_rule_orientation"
	AttrRewriteRuleVars        = "axi_rewrite_rule_vars"
	AttrRewriteRuleLHS         = "axi_rewrite_rule_lhs"
	AttrRewriteRuleRHS         = "axi_rewrite_rule_rhs"
	AttrRewriteRuleIndex       = "axi_rewrite_rule_index"

	// Instance decl attrs.
	AttrInstanceSchema = "axi_instance_schema"
)

// MetaIDModule builds the stable id of a module meta entity.
func MetaIDModule(moduleName string) string {
	return fmt.Sprintf("axi_meta_module:%s", moduleName)
}

// MetaIDSchema builds the stable id of a schema meta entity.
func MetaIDSchema(moduleName, schemaName string) string {
	return fmt.Sprintf("axi_meta_schema:%s:%s", moduleName, schemaName)
}

// MetaIDObjectType builds the stable id of an object type declaration.
func MetaIDObjectType(moduleName, schemaName, objectName string) string {
	return fmt.Sprintf("axi_meta_object:%s:%s:%s", moduleName, schemaName, objectName)
}

// MetaIDRelationDecl builds the stable id of a relation declaration.
func MetaIDRelationDecl(moduleName, schemaName, relationName string) string {
	return fmt.Sprintf("axi_meta_relation:%s:%s:%s", moduleName, schemaName, relationName)
}

// MetaIDFieldDecl builds the stable id of a field declaration.
func MetaIDFieldDecl(moduleName, schemaName, relationName, fieldName string) string {
	return fmt.Sprintf("axi_meta_field:%s:%s:%s:%s", moduleName, schemaName, relationName, fieldName)
}

// MetaIDSubtypeDecl builds the stable id of a subtype declaration.
func MetaIDSubtypeDecl(moduleName, schemaName, sub, sup string) string {
	return fmt.Sprintf("axi_meta_subtype:%s:%s:%s<%s", moduleName, schemaName, sub, sup)
}

// MetaIDTheory builds the stable id of a theory meta entity.
func MetaIDTheory(moduleName, theoryName string) string {
	return fmt.Sprintf("axi_meta_theory:%s:%s", moduleName, theoryName)
}

// MetaIDConstraint builds the stable id of a constraint declaration.
func MetaIDConstraint(moduleName, theoryName string, index int) string {
	return fmt.Sprintf("axi_meta_constraint:%s:%s:%d", moduleName, theoryName, index)
}

// MetaIDEquation builds the stable id of an equation declaration.
func MetaIDEquation(moduleName, theoryName, equationName string) string {
	return fmt.Sprintf("axi_meta_equation:%s:%s:%s", moduleName, theoryName, equationName)
}

// MetaIDRewriteRule builds the stable id of a rewrite rule declaration.
func MetaIDRewriteRule(moduleName, theoryName, ruleName string) string {
	return fmt.Sprintf("axi_meta_rewrite_rule:%s:%s:%s", moduleName, theoryName, ruleName)
}

// MetaIDInstance builds the stable id of an instance declaration.
func MetaIDInstance(moduleName, instanceName string) string {
	return fmt.Sprintf("axi_meta_instance:%s:%s", moduleName, instanceName)
}
