package normalization

import (
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

// Document is the normalized form of a query document.
type Document struct {
	Operations []*Operation
}

type Operation struct {
	// Name is the operation name or, for anonymous operations, the placeholder Query, Mutation or Subscription.
	Name          string
	Anonymous     bool
	OperationType ast.OperationType
	RootType      string
	Variables     []Variable
	SelectionSet  *SelectionSet
}

// Variable is a variable definition of an operation.
type Variable struct {
	Name         string
	Type         typeindex.TypeRef
	DefaultValue *Value
}

// SelectionSet is one selection set of the query document resolved against TargetType.
// Every selection set of the document is a distinct node, equal shapes at different locations are not merged.
type SelectionSet struct {
	TargetType string
	Selections []*Selection
	// Variants holds one selection set per concrete type selected through type conditions
	// on a union or interface target, in first-seen order.
	Variants []*Variant
}

func (s *SelectionSet) selectionByResponseKey(responseKey string) *Selection {
	for i := range s.Selections {
		if s.Selections[i].ResponseKey == responseKey {
			return s.Selections[i]
		}
	}
	return nil
}

func (s *SelectionSet) variantFor(typeName string) *Variant {
	if variant := s.Variant(typeName); variant != nil {
		return variant
	}
	variant := &Variant{
		TypeName:     typeName,
		SelectionSet: &SelectionSet{TargetType: typeName},
	}
	s.Variants = append(s.Variants, variant)
	return variant
}

// Variant returns the variant for typeName or nil.
func (s *SelectionSet) Variant(typeName string) *Variant {
	for i := range s.Variants {
		if s.Variants[i].TypeName == typeName {
			return s.Variants[i]
		}
	}
	return nil
}

// Selection is a single field selection.
type Selection struct {
	ResponseKey string
	FieldName   string
	Alias       string
	Type        typeindex.TypeRef
	Arguments   []FieldArgument
	// SelectionSet is set for fields of a composite type.
	SelectionSet *SelectionSet
}

func (s *Selection) IsLeaf() bool {
	return s.SelectionSet == nil
}

type Variant struct {
	TypeName     string
	SelectionSet *SelectionSet
}

// FieldArgument is an argument supplied to a field, typed by the declaration of the schema field.
type FieldArgument struct {
	Name  string
	Type  typeindex.TypeRef
	Value Value
}
