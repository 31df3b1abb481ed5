// Package extraction collects the schema types a normalized document depends on besides its selection sets:
// the input objects reachable from arguments and variables and the enums and custom scalars used anywhere.
package extraction

import (
	"github.com/phf/go-queue/queue"

	"github.com/wundergraph/graphql-querygen/pkg/normalization"
	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

type InputObject struct {
	Name   string
	Fields []InputField
	// References holds the names of the input objects referenced by Fields, first-seen order, without duplicates.
	References []string
}

type InputField struct {
	Name       string
	Type       typeindex.TypeRef
	Required   bool
	HasDefault bool
}

// InputObjects returns all input objects transitively reachable from the declared types of arguments
// and the types of operation variables, in first-seen order.
func InputObjects(index *typeindex.Index, document *normalization.Document) ([]*InputObject, error) {
	worklist := queue.New()
	seen := make(map[string]struct{})

	enqueue := func(typeRef typeindex.TypeRef) {
		name := typeRef.InnerName()
		if index.Kind(name) != typeindex.KindInputObject {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		worklist.PushBack(name)
	}

	for _, operation := range document.Operations {
		for _, variable := range operation.Variables {
			enqueue(variable.Type)
		}
		walkSelectionSets(operation.SelectionSet, func(set *normalization.SelectionSet) {
			for _, selection := range set.Selections {
				for _, argument := range selection.Arguments {
					enqueue(argument.Type)
				}
			}
		})
	}

	var inputObjects []*InputObject
	for worklist.Len() != 0 {
		name := worklist.PopFront().(string)
		definition, err := index.InputObject(name)
		if err != nil {
			return nil, err
		}
		inputObject := &InputObject{
			Name:   definition.Name,
			Fields: make([]InputField, 0, len(definition.InputFields)),
		}
		referenced := make(map[string]struct{})
		for _, field := range definition.InputFields {
			inputObject.Fields = append(inputObject.Fields, InputField{
				Name:       field.Name,
				Type:       field.Type,
				Required:   field.IsRequired(),
				HasDefault: field.HasDefault,
			})
			innerName := field.Type.InnerName()
			if index.Kind(innerName) != typeindex.KindInputObject {
				continue
			}
			if _, ok := referenced[innerName]; !ok {
				referenced[innerName] = struct{}{}
				inputObject.References = append(inputObject.References, innerName)
			}
			enqueue(field.Type)
		}
		inputObjects = append(inputObjects, inputObject)
	}

	return inputObjects, nil
}

// LeafTypes returns the enums and custom scalars used by field results, arguments, variables and input object fields.
// Both lists are in first-seen order and disjoint, built-in scalars are never returned.
func LeafTypes(index *typeindex.Index, document *normalization.Document, inputObjects []*InputObject) (enums []*typeindex.TypeDefinition, scalars []string, err error) {
	seen := make(map[string]struct{})

	visit := func(typeRef typeindex.TypeRef) error {
		name := typeRef.InnerName()
		if _, ok := seen[name]; ok || typeindex.IsBuiltinScalar(name) {
			return nil
		}
		definition, err := index.Lookup(name)
		if err != nil {
			return err
		}
		switch definition.Kind {
		case typeindex.KindEnum:
			enum, err := index.Enum(name)
			if err != nil {
				return err
			}
			enums = append(enums, enum)
		case typeindex.KindScalar:
			scalars = append(scalars, definition.Name)
		default:
			return nil
		}
		seen[name] = struct{}{}
		return nil
	}

	for _, operation := range document.Operations {
		for _, variable := range operation.Variables {
			if err = visit(variable.Type); err != nil {
				return nil, nil, err
			}
		}
		walkSelectionSets(operation.SelectionSet, func(set *normalization.SelectionSet) {
			for _, selection := range set.Selections {
				if err != nil {
					return
				}
				if err = visit(selection.Type); err != nil {
					return
				}
				for _, argument := range selection.Arguments {
					if err = visit(argument.Type); err != nil {
						return
					}
				}
			}
		})
		if err != nil {
			return nil, nil, err
		}
	}

	for _, inputObject := range inputObjects {
		for _, field := range inputObject.Fields {
			if err = visit(field.Type); err != nil {
				return nil, nil, err
			}
		}
	}

	return enums, scalars, nil
}

// walkSelectionSets calls fn for set and every nested selection set in depth-first pre-order.
func walkSelectionSets(set *normalization.SelectionSet, fn func(set *normalization.SelectionSet)) {
	if set == nil {
		return
	}
	fn(set)
	for _, selection := range set.Selections {
		walkSelectionSets(selection.SelectionSet, fn)
	}
	for _, variant := range set.Variants {
		walkSelectionSets(variant.SelectionSet, fn)
	}
}
