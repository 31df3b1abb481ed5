// Package normalization resolves the operations of a GraphQL query document against a type index.
//
// Fragment spreads are inlined at every use site, inline fragments without a distinct type condition
// are spliced into the enclosing selection set and type conditions on unions and interfaces become
// variants. The resulting selection sets form a tree that mirrors the query document.
package normalization

import (
	"strings"

	log "github.com/jensneuse/abstractlogger"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/pkg/queryerrors"
	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

type Options struct {
	// OperationName restricts normalization to the operation with this name.
	// Empty means all operations in document order.
	OperationName string
	Logger        log.Logger
}

// Normalize normalizes the operations of operation. It stops at the first error.
func Normalize(index *typeindex.Index, operation *ast.Document, options Options) (*Document, error) {
	logger := options.Logger
	if logger == nil {
		logger = log.NoopLogger
	}

	n := &normalizer{
		index:     index,
		operation: operation,
		logger:    logger,
	}

	document := &Document{}
	for _, node := range operation.RootNodes {
		if node.Kind != ast.NodeKindOperationDefinition {
			continue
		}
		name := operation.OperationDefinitionNameString(node.Ref)
		if options.OperationName != "" && name != options.OperationName {
			continue
		}
		normalized, err := n.normalizeOperation(node.Ref)
		if err != nil {
			logger.Debug("normalizer.Normalize",
				log.String("operation", name),
				log.Error(err),
			)
			return nil, err
		}
		document.Operations = append(document.Operations, normalized)
	}

	if len(document.Operations) == 0 {
		if options.OperationName != "" {
			return nil, queryerrors.ErrUnsupportedQueryDocument("operation %s not found", options.OperationName)
		}
		return nil, queryerrors.ErrUnsupportedQueryDocument("document contains no operation")
	}

	return document, nil
}

type normalizer struct {
	index     *typeindex.Index
	operation *ast.Document
	logger    log.Logger

	variables     map[string]typeindex.TypeRef
	operationName string
	fragmentStack []string
}

func placeholderName(operationType ast.OperationType) string {
	switch operationType {
	case ast.OperationTypeMutation:
		return "Mutation"
	case ast.OperationTypeSubscription:
		return "Subscription"
	default:
		return "Query"
	}
}

func (n *normalizer) normalizeOperation(ref int) (*Operation, error) {
	definition := n.operation.OperationDefinitions[ref]

	normalized := &Operation{
		Name:          strings.Clone(n.operation.OperationDefinitionNameString(ref)),
		OperationType: definition.OperationType,
		RootType:      n.index.RootOperationType(definition.OperationType),
	}
	if normalized.Name == "" {
		normalized.Name = placeholderName(definition.OperationType)
		normalized.Anonymous = true
	}

	n.operationName = normalized.Name
	n.fragmentStack = n.fragmentStack[:0]
	n.variables = make(map[string]typeindex.TypeRef, len(definition.VariableDefinitions.Refs))

	for _, variableRef := range definition.VariableDefinitions.Refs {
		variable := Variable{
			Name: strings.Clone(n.operation.VariableDefinitionNameString(variableRef)),
			Type: typeindex.TypeRefFromAST(n.operation, n.operation.VariableDefinitionType(variableRef)),
		}
		if _, exists := n.variables[variable.Name]; exists {
			return nil, queryerrors.ErrUnsupportedQueryDocument("variable $%s is defined more than once on operation %s", variable.Name, normalized.Name)
		}
		n.variables[variable.Name] = variable.Type
		normalized.Variables = append(normalized.Variables, variable)
	}

	// defaults may only be converted once all variables are known
	for i, variableRef := range definition.VariableDefinitions.Refs {
		if !n.operation.VariableDefinitionHasDefaultValue(variableRef) {
			continue
		}
		value, err := n.value(n.operation.VariableDefinitionDefaultValue(variableRef), normalized.Variables[i].Type, normalized.Variables[i].Name)
		if err != nil {
			return nil, err
		}
		normalized.Variables[i].DefaultValue = &value
	}

	if _, err := n.index.Lookup(normalized.RootType); err != nil {
		return nil, err
	}

	selectionSet, err := n.selectionSet(normalized.RootType, definition.SelectionSet)
	if err != nil {
		return nil, err
	}
	normalized.SelectionSet = selectionSet

	n.logger.Debug("normalizer.normalizeOperation",
		log.String("operation", normalized.Name),
		log.String("rootType", normalized.RootType),
		log.Int("variables", len(normalized.Variables)),
	)

	return normalized, nil
}

func (n *normalizer) selectionSet(targetType string, selectionSetRef int) (*SelectionSet, error) {
	set := &SelectionSet{TargetType: targetType}
	if err := n.collect(set, selectionSetRef); err != nil {
		return nil, err
	}
	if n.index.Kind(targetType) == typeindex.KindUnion && len(set.Variants) == 0 {
		return nil, queryerrors.ErrUnsupportedQueryDocument("selections on union %s must use inline fragments", targetType)
	}
	return set, nil
}

// collect adds the selections of the selection set with the given ref to set.
func (n *normalizer) collect(set *SelectionSet, selectionSetRef int) error {
	for _, selectionRef := range n.operation.SelectionSets[selectionSetRef].SelectionRefs {
		selection := n.operation.Selections[selectionRef]
		var err error
		switch selection.Kind {
		case ast.SelectionKindField:
			err = n.field(set, selection.Ref)
		case ast.SelectionKindInlineFragment:
			typeCondition := ""
			if n.operation.InlineFragmentHasTypeCondition(selection.Ref) {
				typeCondition = n.operation.InlineFragmentTypeConditionNameString(selection.Ref)
			}
			err = n.fragment(set, typeCondition, n.operation.InlineFragments[selection.Ref].SelectionSet)
		case ast.SelectionKindFragmentSpread:
			err = n.fragmentSpread(set, selection.Ref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *normalizer) fragmentSpread(set *SelectionSet, spreadRef int) error {
	name := n.operation.FragmentSpreadNameString(spreadRef)
	for i := range n.fragmentStack {
		if n.fragmentStack[i] == name {
			return queryerrors.ErrUnsupportedQueryDocument("fragment %s spreads itself", name)
		}
	}

	fragmentRef, exists := n.operation.FragmentDefinitionRef(n.operation.FragmentSpreadNameBytes(spreadRef))
	if !exists {
		return queryerrors.ErrUnsupportedQueryDocument("fragment %s is not defined", name)
	}

	n.fragmentStack = append(n.fragmentStack, strings.Clone(name))
	err := n.fragment(set, string(n.operation.FragmentDefinitionTypeName(fragmentRef)), n.operation.FragmentDefinitions[fragmentRef].SelectionSet)
	n.fragmentStack = n.fragmentStack[:len(n.fragmentStack)-1]
	return err
}

// fragment adds the selections of a fragment with the given type condition to set.
// Fragments that apply to the target type unconditionally are spliced, others become variants.
func (n *normalizer) fragment(set *SelectionSet, typeCondition string, selectionSetRef int) error {
	if typeCondition == "" || typeCondition == set.TargetType {
		return n.collect(set, selectionSetRef)
	}

	conditionKind := n.index.Kind(typeCondition)
	if conditionKind == typeindex.KindUnknown {
		return queryerrors.ErrUnknownType(typeCondition)
	}

	switch n.index.Kind(set.TargetType) {
	case typeindex.KindObject:
		// an object selected through one of its abstract types is still the object
		if n.index.IsPossibleType(typeCondition, set.TargetType) {
			return n.collect(set, selectionSetRef)
		}
		return queryerrors.ErrUnsupportedQueryDocument("type condition %s can never apply to object %s", typeCondition, set.TargetType)
	case typeindex.KindUnion, typeindex.KindInterface:
		if conditionKind != typeindex.KindObject {
			return queryerrors.ErrUnsupportedQueryDocument("type condition %s on %s must be an object type", typeCondition, set.TargetType)
		}
		if !n.index.IsPossibleType(set.TargetType, typeCondition) {
			return queryerrors.ErrUnsupportedQueryDocument("%s is not a possible type of %s", typeCondition, set.TargetType)
		}
		return n.collect(set.variantFor(strings.Clone(typeCondition)).SelectionSet, selectionSetRef)
	default:
		return queryerrors.ErrExpectedObject(set.TargetType)
	}
}

func (n *normalizer) field(set *SelectionSet, fieldRef int) error {
	fieldName := n.operation.FieldNameString(fieldRef)
	responseKey := fieldName
	alias := ""
	if n.operation.FieldAliasIsDefined(fieldRef) {
		alias = strings.Clone(n.operation.FieldAliasString(fieldRef))
		responseKey = alias
	}

	if fieldName != typeindex.TypenameFieldName && n.index.Kind(set.TargetType) == typeindex.KindUnion {
		return queryerrors.ErrUnsupportedQueryDocument("field %s selected on union %s outside of an inline fragment", fieldName, set.TargetType)
	}

	fieldDefinition, err := n.index.Field(set.TargetType, fieldName)
	if err != nil {
		return err
	}

	if existing := set.selectionByResponseKey(responseKey); existing != nil {
		return n.mergeField(existing, fieldDefinition, fieldRef)
	}

	selection := &Selection{
		ResponseKey: strings.Clone(responseKey),
		FieldName:   fieldDefinition.Name,
		Alias:       alias,
		Type:        fieldDefinition.Type,
	}

	selection.Arguments, err = n.arguments(fieldDefinition, fieldRef)
	if err != nil {
		return err
	}

	typeName := fieldDefinition.Type.InnerName()
	typeDefinition, err := n.index.Lookup(typeName)
	if err != nil {
		return err
	}

	hasSelections := n.operation.Fields[fieldRef].HasSelections
	switch {
	case typeDefinition.IsComposite():
		if !hasSelections {
			return queryerrors.ErrUnsupportedQueryDocument("field %s of type %s must have a selection set", responseKey, typeName)
		}
		selection.SelectionSet, err = n.selectionSet(typeName, n.operation.Fields[fieldRef].SelectionSet)
		if err != nil {
			return err
		}
	case typeDefinition.IsLeaf():
		if hasSelections {
			return queryerrors.ErrUnsupportedQueryDocument("field %s of leaf type %s must not have a selection set", responseKey, typeName)
		}
	default:
		return queryerrors.ErrUnsupportedQueryDocument("field %s has unsupported output type %s", responseKey, typeName)
	}

	set.Selections = append(set.Selections, selection)
	return nil
}

func (n *normalizer) arguments(fieldDefinition typeindex.FieldDefinition, fieldRef int) ([]FieldArgument, error) {
	var arguments []FieldArgument
	for _, argumentRef := range n.operation.Fields[fieldRef].Arguments.Refs {
		argumentName := n.operation.ArgumentNameString(argumentRef)
		argumentDefinition, ok := fieldDefinition.ArgumentByName(argumentName)
		if !ok {
			return nil, queryerrors.ErrUnknownArgument(argumentName, fieldDefinition.Name)
		}
		value, err := n.value(n.operation.ArgumentValue(argumentRef), argumentDefinition.Type, argumentDefinition.Name)
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, FieldArgument{
			Name:  argumentDefinition.Name,
			Type:  argumentDefinition.Type,
			Value: value,
		})
	}
	return arguments, nil
}

// sameArguments reports whether both argument lists supply the same values, regardless of their order.
func sameArguments(a, b []FieldArgument) bool {
	if len(a) != len(b) {
		return false
	}
	values := make(map[string]string, len(a))
	for i := range a {
		values[a[i].Name] = a[i].Value.String()
	}
	for i := range b {
		value, ok := values[b[i].Name]
		if !ok || value != b[i].Value.String() {
			return false
		}
	}
	return true
}

// mergeField merges a repeated selection of the same response key into the existing one.
// Both selections must select the same field with the same arguments.
func (n *normalizer) mergeField(existing *Selection, fieldDefinition typeindex.FieldDefinition, fieldRef int) error {
	if existing.FieldName != fieldDefinition.Name {
		return queryerrors.ErrUnsupportedQueryDocument("response key %s selects both %s and %s", existing.ResponseKey, existing.FieldName, fieldDefinition.Name)
	}
	arguments, err := n.arguments(fieldDefinition, fieldRef)
	if err != nil {
		return err
	}
	if !sameArguments(existing.Arguments, arguments) {
		return queryerrors.ErrUnsupportedQueryDocument("response key %s selects %s with different arguments", existing.ResponseKey, existing.FieldName)
	}
	if existing.SelectionSet == nil || !n.operation.Fields[fieldRef].HasSelections {
		return nil
	}
	return n.collect(existing.SelectionSet, n.operation.Fields[fieldRef].SelectionSet)
}

// value converts an argument value declared with the given type.
// name is the argument or variable the value was supplied to.
func (n *normalizer) value(value ast.Value, declared typeindex.TypeRef, name string) (Value, error) {
	switch value.Kind {
	case ast.ValueKindNull:
		return Value{Kind: ValueKindNull}, nil
	case ast.ValueKindVariable:
		variableName := n.operation.VariableValueNameString(value.Ref)
		if _, ok := n.variables[variableName]; !ok {
			return Value{}, queryerrors.ErrUnsupportedQueryDocument("variable $%s is not defined on operation %s", variableName, n.operationName)
		}
		return Value{Kind: ValueKindVariable, Raw: strings.Clone(variableName)}, nil
	case ast.ValueKindString:
		return Value{
			Kind:  ValueKindString,
			Raw:   strings.Clone(n.operation.StringValueContentString(value.Ref)),
			Block: n.operation.StringValues[value.Ref].BlockString,
		}, nil
	case ast.ValueKindBoolean:
		if n.operation.BooleanValue(value.Ref) {
			return Value{Kind: ValueKindBoolean, Raw: "true"}, nil
		}
		return Value{Kind: ValueKindBoolean, Raw: "false"}, nil
	case ast.ValueKindInteger, ast.ValueKindFloat:
		raw, err := n.operation.ValueToJSON(value)
		if err != nil {
			return Value{}, err
		}
		kind := ValueKindInt
		if value.Kind == ast.ValueKindFloat {
			kind = ValueKindFloat
		}
		return Value{Kind: kind, Raw: string(raw)}, nil
	case ast.ValueKindEnum:
		if n.index.Kind(declared.InnerName()) != typeindex.KindEnum && !n.customScalar(declared) {
			return Value{}, queryerrors.ErrArgumentNotEnum(name)
		}
		return Value{Kind: ValueKindEnum, Raw: strings.Clone(n.operation.EnumValueNameString(value.Ref))}, nil
	case ast.ValueKindList:
		itemType := declared.Nullable()
		if itemType.Kind == typeindex.TypeRefKindList {
			itemType = *itemType.OfType
		}
		list := Value{Kind: ValueKindList}
		for _, ref := range n.operation.ListValues[value.Ref].Refs {
			item, err := n.value(n.operation.Value(ref), itemType, name)
			if err != nil {
				return Value{}, err
			}
			list.List = append(list.List, item)
		}
		return list, nil
	case ast.ValueKindObject:
		if n.customScalar(declared) {
			return n.scalarObject(value, typeindex.Named(declared.InnerName()))
		}
		if kind := n.index.Kind(declared.InnerName()); kind != typeindex.KindInputObject && kind != typeindex.KindUnknown {
			return Value{}, queryerrors.ErrUnsupportedQueryDocument("object value supplied to %s of type %s", name, declared)
		}
		inputObject, err := n.index.InputObject(declared.InnerName())
		if err != nil {
			return Value{}, err
		}
		object := Value{Kind: ValueKindObject}
		for _, ref := range n.operation.ObjectValues[value.Ref].Refs {
			fieldName := n.operation.ObjectFieldNameString(ref)
			inputField, ok := inputObject.InputFieldByName(fieldName)
			if !ok {
				return Value{}, queryerrors.ErrUnknownField(fieldName, inputObject.Name)
			}
			fieldValue, err := n.value(n.operation.ObjectFieldValue(ref), inputField.Type, inputField.Name)
			if err != nil {
				return Value{}, err
			}
			object.Fields = append(object.Fields, ObjectField{Name: inputField.Name, Value: fieldValue})
		}
		return object, nil
	default:
		return Value{}, queryerrors.ErrUnsupportedQueryDocument("unsupported value kind %v", value.Kind)
	}
}

// customScalar reports whether declared is a scalar defined by the schema.
// Custom scalars accept any literal, their fields and values are not checked against the schema.
func (n *normalizer) customScalar(declared typeindex.TypeRef) bool {
	name := declared.InnerName()
	return !typeindex.IsBuiltinScalar(name) && n.index.Kind(name) == typeindex.KindScalar
}

func (n *normalizer) scalarObject(value ast.Value, scalar typeindex.TypeRef) (Value, error) {
	object := Value{Kind: ValueKindObject}
	for _, ref := range n.operation.ObjectValues[value.Ref].Refs {
		fieldName := strings.Clone(n.operation.ObjectFieldNameString(ref))
		fieldValue, err := n.value(n.operation.ObjectFieldValue(ref), scalar, fieldName)
		if err != nil {
			return Value{}, err
		}
		object.Fields = append(object.Fields, ObjectField{Name: fieldName, Value: fieldValue})
	}
	return object, nil
}
