package querygen

import (
	"strconv"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/pkg/extraction"
	"github.com/wundergraph/graphql-querygen/pkg/ir"
	"github.com/wundergraph/graphql-querygen/pkg/naming"
	"github.com/wundergraph/graphql-querygen/pkg/normalization"
	"github.com/wundergraph/graphql-querygen/pkg/topsort"
	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

type builder struct {
	index *typeindex.Index
	namer *naming.Namer
	// types receives input objects, enums and scalars, document receives query fragments and argument structs.
	types     *ir.Document
	document  *ir.Document
	fragments map[string]*ir.QueryFragment
}

func newBuilder(index *typeindex.Index, document *ir.Document) *builder {
	return &builder{
		index:     index,
		namer:     naming.New(),
		types:     document,
		document:  document,
		fragments: make(map[string]*ir.QueryFragment),
	}
}

// schemaTypes builds the descriptors of all input objects, enums and custom scalars used by document.
func (b *builder) schemaTypes(document *normalization.Document) error {
	inputObjects, err := extraction.InputObjects(b.index, document)
	if err != nil {
		return err
	}
	enums, scalars, err := extraction.LeafTypes(b.index, document, inputObjects)
	if err != nil {
		return err
	}

	b.inputObjects(inputObjects)
	b.enums(enums)
	b.scalars(scalars)
	return nil
}

// operations builds the query fragments and argument structs of all operations of document.
// prefix keeps the operation signatures of different documents apart.
func (b *builder) operations(prefix string, document *normalization.Document) {
	for i, operation := range document.Operations {
		b.operation(prefix+strconv.Itoa(i), operation)
	}
	b.sortQueryFragments()
}

func irKind(kind typeindex.Kind) ir.Kind {
	switch kind {
	case typeindex.KindObject:
		return ir.KindObject
	case typeindex.KindInterface:
		return ir.KindInterface
	case typeindex.KindUnion:
		return ir.KindUnion
	case typeindex.KindEnum:
		return ir.KindEnum
	case typeindex.KindInputObject:
		return ir.KindInputObject
	default:
		return ir.KindScalar
	}
}

func operationType(operationType ast.OperationType) string {
	switch operationType {
	case ast.OperationTypeMutation:
		return "mutation"
	case ast.OperationTypeSubscription:
		return "subscription"
	default:
		return "query"
	}
}

func (b *builder) inputObjects(inputObjects []*extraction.InputObject) {
	sorted := topsort.Sort(inputObjects,
		func(inputObject *extraction.InputObject) string { return inputObject.Name },
		func(inputObject *extraction.InputObject) []string { return inputObject.References },
	)

	names := make(map[string]string, len(inputObjects))
	for _, inputObject := range inputObjects {
		names[inputObject.Name], _ = b.namer.Assign(naming.KeySignature("input", inputObject.Name), naming.TypeName(inputObject.Name))
	}

	for _, inputObject := range sorted.Nodes {
		descriptor := &ir.InputObject{
			Name:        names[inputObject.Name],
			GraphQLName: inputObject.Name,
			Fields:      make([]*ir.InputField, 0, len(inputObject.Fields)),
		}
		for _, field := range inputObject.Fields {
			innerType := field.Type.InnerName()
			kind := b.index.Kind(innerType)
			descriptor.Fields = append(descriptor.Fields, &ir.InputField{
				Name:      field.Name,
				Type:      field.Type.String(),
				InnerType: innerType,
				Kind:      irKind(kind),
				Required:  field.Required,
				Boxed: kind == typeindex.KindInputObject &&
					(sorted.IsBackEdge(inputObject.Name, innerType) || sorted.SameCycle(inputObject.Name, innerType)),
			})
		}
		b.types.InputObjects = append(b.document.InputObjects, descriptor)
	}
}

func (b *builder) enums(enums []*typeindex.TypeDefinition) {
	for _, enum := range enums {
		name, _ := b.namer.Assign(naming.KeySignature("enum", enum.Name), naming.TypeName(enum.Name))
		values := make([]string, len(enum.Values))
		copy(values, enum.Values)
		b.types.Enums = append(b.document.Enums, &ir.Enum{
			Name:        name,
			GraphQLName: enum.Name,
			Values:      values,
		})
	}
}

func (b *builder) scalars(scalars []string) {
	for _, scalar := range scalars {
		name, _ := b.namer.Assign(naming.KeySignature("scalar", scalar), naming.TypeName(scalar))
		b.types.Scalars = append(b.document.Scalars, &ir.Scalar{
			Name:        name,
			GraphQLName: scalar,
		})
	}
}

func (b *builder) operation(position string, operation *normalization.Operation) {
	rootName := naming.TypeName(operation.Name)
	signature := naming.KeySignature("operation", position)
	root := b.queryFragment(operation.SelectionSet, signature, rootName)
	root.OperationName = operation.Name
	root.OperationType = operationType(operation.OperationType)

	if len(operation.Variables) == 0 {
		return
	}

	argumentStruct := &ir.ArgumentStruct{
		Fragment:  root.Name,
		Variables: make([]*ir.Variable, 0, len(operation.Variables)),
	}
	argumentStruct.Name, _ = b.namer.Assign(naming.KeySignature("arguments", position), root.Name+"Arguments")
	for _, variable := range operation.Variables {
		innerType := variable.Type.InnerName()
		descriptor := &ir.Variable{
			Name:      variable.Name,
			Type:      variable.Type.String(),
			InnerType: innerType,
			Kind:      irKind(b.index.Kind(innerType)),
		}
		if variable.DefaultValue != nil {
			descriptor.Default = variable.DefaultValue.String()
		}
		argumentStruct.Variables = append(argumentStruct.Variables, descriptor)
	}
	root.ArgumentStruct = argumentStruct.Name
	b.document.ArgumentStructs = append(b.document.ArgumentStructs, argumentStruct)
}

// queryFragment names set and registers its descriptor and the descriptors of all nested sets in depth-first pre-order.
// Sets sharing a name with an already registered set of the same shape are not registered again.
func (b *builder) queryFragment(set *normalization.SelectionSet, signature naming.Signature, candidates ...string) *ir.QueryFragment {
	name, shared := b.namer.Assign(signature, candidates...)
	if shared {
		return b.fragments[name]
	}

	fragment := &ir.QueryFragment{
		Name:     name,
		TypeName: set.TargetType,
		Fields:   make([]*ir.Field, 0, len(set.Selections)),
	}
	b.document.QueryFragments = append(b.document.QueryFragments, fragment)
	b.fragments[name] = fragment

	for _, selection := range set.Selections {
		innerType := selection.Type.InnerName()
		field := &ir.Field{
			Name:        selection.ResponseKey,
			GraphQLName: selection.FieldName,
			Alias:       selection.Alias,
			Type:        selection.Type.String(),
			InnerType:   innerType,
			Kind:        irKind(b.index.Kind(innerType)),
		}
		for _, argument := range selection.Arguments {
			field.Arguments = append(field.Arguments, &ir.Argument{
				Name:      argument.Name,
				Type:      argument.Type.String(),
				Value:     argument.Value.String(),
				Variables: argument.Value.VariableNames(),
			})
		}
		if selection.SelectionSet != nil {
			nested := b.queryFragment(selection.SelectionSet, naming.SelectionSetSignature(selection.SelectionSet),
				naming.TypeName(innerType),
				name+naming.TypeName(selection.ResponseKey),
			)
			field.Fragment = nested.Name
		}
		fragment.Fields = append(fragment.Fields, field)
	}

	for _, variant := range set.Variants {
		nested := b.queryFragment(variant.SelectionSet, naming.SelectionSetSignature(variant.SelectionSet),
			naming.TypeName(variant.TypeName),
			name+naming.TypeName(variant.TypeName),
		)
		fragment.Variants = append(fragment.Variants, &ir.Variant{
			TypeName: variant.TypeName,
			Fragment: nested.Name,
		})
	}

	return fragment
}

func (b *builder) sortQueryFragments() {
	sorted := topsort.Sort(b.document.QueryFragments,
		func(fragment *ir.QueryFragment) string { return fragment.Name },
		func(fragment *ir.QueryFragment) []string {
			deps := make([]string, 0, len(fragment.Fields)+len(fragment.Variants))
			for _, field := range fragment.Fields {
				if field.Fragment != "" {
					deps = append(deps, field.Fragment)
				}
			}
			for _, variant := range fragment.Variants {
				deps = append(deps, variant.Fragment)
			}
			return deps
		},
	)
	b.document.QueryFragments = sorted.Nodes
}
