// Package typeindex builds an immutable lookup table over the type definitions of a GraphQL schema.
//
// The index is the only owner of schema type definitions during a run.
// Every other structure refers to types by name and resolves them through the index.
// An Index is read-only after FromSchema returned and may be shared between goroutines.
package typeindex

import (
	"strings"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/pkg/queryerrors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindScalar
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindInputObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindInterface:
		return "interface"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindInputObject:
		return "input"
	default:
		return "unknown"
	}
}

const TypenameFieldName = "__typename"

var builtinScalars = []string{"Int", "Float", "String", "Boolean", "ID"}

// IsBuiltinScalar reports whether name is one of the scalars every GraphQL schema provides.
func IsBuiltinScalar(name string) bool {
	for i := range builtinScalars {
		if builtinScalars[i] == name {
			return true
		}
	}
	return false
}

type TypeDefinition struct {
	Kind        Kind
	Name        string
	Fields      []FieldDefinition      // object, interface
	Interfaces  []string               // object, interface
	Members     []string               // union
	Values      []string               // enum
	InputFields []InputValueDefinition // input object
}

func (t *TypeDefinition) IsComposite() bool {
	return t.Kind == KindObject || t.Kind == KindInterface || t.Kind == KindUnion
}

func (t *TypeDefinition) IsLeaf() bool {
	return t.Kind == KindScalar || t.Kind == KindEnum
}

func (t *TypeDefinition) FieldByName(name string) (FieldDefinition, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return t.Fields[i], true
		}
	}
	return FieldDefinition{}, false
}

func (t *TypeDefinition) InputFieldByName(name string) (InputValueDefinition, bool) {
	for i := range t.InputFields {
		if t.InputFields[i].Name == name {
			return t.InputFields[i], true
		}
	}
	return InputValueDefinition{}, false
}

func (t *TypeDefinition) implements(interfaceName string) bool {
	for i := range t.Interfaces {
		if t.Interfaces[i] == interfaceName {
			return true
		}
	}
	return false
}

type FieldDefinition struct {
	Name      string
	Type      TypeRef
	Arguments []InputValueDefinition
}

func (f FieldDefinition) ArgumentByName(name string) (InputValueDefinition, bool) {
	for i := range f.Arguments {
		if f.Arguments[i].Name == name {
			return f.Arguments[i], true
		}
	}
	return InputValueDefinition{}, false
}

// InputValueDefinition is an argument of a field or a field of an input object.
type InputValueDefinition struct {
	Name       string
	Type       TypeRef
	HasDefault bool
}

// IsRequired reports whether a value must be supplied.
func (i InputValueDefinition) IsRequired() bool {
	return i.Type.IsNonNull() && !i.HasDefault
}

type Index struct {
	types            map[string]*TypeDefinition
	order            []string
	queryType        string
	mutationType     string
	subscriptionType string
}

// FromSchema indexes all type definitions and type extensions of definition.
// It never fails. Dangling references are kept as they are and only reported once something looks them up.
func FromSchema(definition *ast.Document) *Index {
	index := &Index{
		types:            make(map[string]*TypeDefinition, len(definition.RootNodes)+len(builtinScalars)),
		queryType:        rootTypeName(definition.Index.QueryTypeName, "Query"),
		mutationType:     rootTypeName(definition.Index.MutationTypeName, "Mutation"),
		subscriptionType: rootTypeName(definition.Index.SubscriptionTypeName, "Subscription"),
	}

	for _, name := range builtinScalars {
		index.definition(KindScalar, name)
	}

	for _, node := range definition.RootNodes {
		switch node.Kind {
		case ast.NodeKindObjectTypeDefinition:
			object := definition.ObjectTypeDefinitions[node.Ref]
			index.addFields(definition, KindObject, definition.ObjectTypeDefinitionNameString(node.Ref), object.FieldsDefinition.Refs, object.ImplementsInterfaces.Refs)
		case ast.NodeKindObjectTypeExtension:
			object := definition.ObjectTypeExtensions[node.Ref]
			index.addFields(definition, KindObject, definition.Input.ByteSliceString(object.Name), object.FieldsDefinition.Refs, object.ImplementsInterfaces.Refs)
		case ast.NodeKindInterfaceTypeDefinition:
			iface := definition.InterfaceTypeDefinitions[node.Ref]
			index.addFields(definition, KindInterface, definition.InterfaceTypeDefinitionNameString(node.Ref), iface.FieldsDefinition.Refs, iface.ImplementsInterfaces.Refs)
		case ast.NodeKindInterfaceTypeExtension:
			iface := definition.InterfaceTypeExtensions[node.Ref]
			index.addFields(definition, KindInterface, definition.Input.ByteSliceString(iface.Name), iface.FieldsDefinition.Refs, iface.ImplementsInterfaces.Refs)
		case ast.NodeKindUnionTypeDefinition:
			index.addMembers(definition, definition.UnionTypeDefinitionNameString(node.Ref), definition.UnionTypeDefinitions[node.Ref].UnionMemberTypes.Refs)
		case ast.NodeKindUnionTypeExtension:
			union := definition.UnionTypeExtensions[node.Ref]
			index.addMembers(definition, definition.Input.ByteSliceString(union.Name), union.UnionMemberTypes.Refs)
		case ast.NodeKindEnumTypeDefinition:
			index.addValues(definition, definition.EnumTypeDefinitionNameString(node.Ref), definition.EnumTypeDefinitions[node.Ref].EnumValuesDefinition.Refs)
		case ast.NodeKindEnumTypeExtension:
			enum := definition.EnumTypeExtensions[node.Ref]
			index.addValues(definition, definition.Input.ByteSliceString(enum.Name), enum.EnumValuesDefinition.Refs)
		case ast.NodeKindScalarTypeDefinition:
			index.definition(KindScalar, definition.ScalarTypeDefinitionNameString(node.Ref))
		case ast.NodeKindScalarTypeExtension:
			index.definition(KindScalar, definition.Input.ByteSliceString(definition.ScalarTypeExtensions[node.Ref].Name))
		case ast.NodeKindInputObjectTypeDefinition:
			index.addInputFields(definition, definition.InputObjectTypeDefinitionNameString(node.Ref), definition.InputObjectTypeDefinitions[node.Ref].InputFieldsDefinition.Refs)
		case ast.NodeKindInputObjectTypeExtension:
			input := definition.InputObjectTypeExtensions[node.Ref]
			index.addInputFields(definition, definition.Input.ByteSliceString(input.Name), input.InputFieldsDefinition.Refs)
		}
	}

	return index
}

func rootTypeName(name ast.ByteSlice, fallback string) string {
	if len(name) == 0 {
		return fallback
	}
	return string(name)
}

// definition returns the definition with the given name, creating it if needed.
// Names are cloned because they outlive the input buffer of the schema document.
func (i *Index) definition(kind Kind, name string) *TypeDefinition {
	if existing, ok := i.types[name]; ok {
		if existing.Kind == KindUnknown {
			existing.Kind = kind
		}
		return existing
	}
	name = strings.Clone(name)
	typeDefinition := &TypeDefinition{Kind: kind, Name: name}
	i.types[name] = typeDefinition
	i.order = append(i.order, name)
	return typeDefinition
}

func (i *Index) addFields(definition *ast.Document, kind Kind, name string, fieldRefs, interfaceRefs []int) {
	typeDefinition := i.definition(kind, name)
	for _, ref := range interfaceRefs {
		typeDefinition.Interfaces = append(typeDefinition.Interfaces, strings.Clone(definition.TypeNameString(ref)))
	}
	for _, ref := range fieldRefs {
		field := FieldDefinition{
			Name: strings.Clone(definition.FieldDefinitionNameString(ref)),
			Type: TypeRefFromAST(definition, definition.FieldDefinitionType(ref)),
		}
		for _, argumentRef := range definition.FieldDefinitions[ref].ArgumentsDefinition.Refs {
			field.Arguments = append(field.Arguments, inputValueDefinition(definition, argumentRef))
		}
		typeDefinition.Fields = append(typeDefinition.Fields, field)
	}
}

func (i *Index) addMembers(definition *ast.Document, name string, memberRefs []int) {
	typeDefinition := i.definition(KindUnion, name)
	for _, ref := range memberRefs {
		typeDefinition.Members = append(typeDefinition.Members, strings.Clone(definition.TypeNameString(ref)))
	}
}

func (i *Index) addValues(definition *ast.Document, name string, valueRefs []int) {
	typeDefinition := i.definition(KindEnum, name)
	for _, ref := range valueRefs {
		typeDefinition.Values = append(typeDefinition.Values, strings.Clone(definition.EnumValueDefinitionNameString(ref)))
	}
}

func (i *Index) addInputFields(definition *ast.Document, name string, inputValueRefs []int) {
	typeDefinition := i.definition(KindInputObject, name)
	for _, ref := range inputValueRefs {
		typeDefinition.InputFields = append(typeDefinition.InputFields, inputValueDefinition(definition, ref))
	}
}

func inputValueDefinition(definition *ast.Document, ref int) InputValueDefinition {
	return InputValueDefinition{
		Name:       strings.Clone(definition.InputValueDefinitionNameString(ref)),
		Type:       TypeRefFromAST(definition, definition.InputValueDefinitionType(ref)),
		HasDefault: definition.InputValueDefinitions[ref].DefaultValue.IsDefined,
	}
}

// Lookup returns the type definition with the given name.
func (i *Index) Lookup(name string) (*TypeDefinition, error) {
	typeDefinition, ok := i.types[name]
	if !ok {
		return nil, queryerrors.ErrUnknownType(name)
	}
	return typeDefinition, nil
}

// Field resolves fieldName on the object or interface typeName.
// __typename resolves on every object, interface and union.
func (i *Index) Field(typeName, fieldName string) (FieldDefinition, error) {
	typeDefinition, err := i.Lookup(typeName)
	if err != nil {
		return FieldDefinition{}, err
	}
	if fieldName == TypenameFieldName && typeDefinition.IsComposite() {
		return FieldDefinition{Name: TypenameFieldName, Type: NonNull(Named("String"))}, nil
	}
	if typeDefinition.Kind != KindObject && typeDefinition.Kind != KindInterface {
		return FieldDefinition{}, queryerrors.ErrExpectedObject(typeName)
	}
	field, ok := typeDefinition.FieldByName(fieldName)
	if !ok {
		return FieldDefinition{}, queryerrors.ErrUnknownField(fieldName, typeName)
	}
	return field, nil
}

// Enum returns the enum definition with the given name.
func (i *Index) Enum(name string) (*TypeDefinition, error) {
	typeDefinition, ok := i.types[name]
	if !ok || typeDefinition.Kind != KindEnum {
		return nil, queryerrors.ErrUnknownEnum(name)
	}
	return typeDefinition, nil
}

// InputObject returns the input object definition with the given name.
func (i *Index) InputObject(name string) (*TypeDefinition, error) {
	typeDefinition, ok := i.types[name]
	if !ok || typeDefinition.Kind != KindInputObject {
		return nil, queryerrors.ErrUnknownType(name)
	}
	return typeDefinition, nil
}

// Kind returns the kind of the named type or KindUnknown if the schema doesn't define it.
func (i *Index) Kind(name string) Kind {
	typeDefinition, ok := i.types[name]
	if !ok {
		return KindUnknown
	}
	return typeDefinition.Kind
}

func (i *Index) RootOperationType(operationType ast.OperationType) string {
	switch operationType {
	case ast.OperationTypeMutation:
		return i.mutationType
	case ast.OperationTypeSubscription:
		return i.subscriptionType
	default:
		return i.queryType
	}
}

// PossibleTypes returns the concrete object types a value of the named type can have.
// Union members and interface implementations are returned in declaration order.
func (i *Index) PossibleTypes(name string) []string {
	typeDefinition, ok := i.types[name]
	if !ok {
		return nil
	}
	switch typeDefinition.Kind {
	case KindObject:
		return []string{typeDefinition.Name}
	case KindUnion:
		return typeDefinition.Members
	case KindInterface:
		var possibleTypes []string
		for _, typeName := range i.order {
			candidate := i.types[typeName]
			if candidate.Kind == KindObject && candidate.implements(name) {
				possibleTypes = append(possibleTypes, candidate.Name)
			}
		}
		return possibleTypes
	default:
		return nil
	}
}

// IsPossibleType reports whether typeName can be used as type condition inside a selection on abstractType.
func (i *Index) IsPossibleType(abstractType, typeName string) bool {
	if abstractType == typeName {
		return true
	}
	for _, possibleType := range i.PossibleTypes(abstractType) {
		if possibleType == typeName {
			return true
		}
	}
	typeDefinition, ok := i.types[typeName]
	return ok && typeDefinition.Kind == KindInterface && typeDefinition.implements(abstractType)
}
