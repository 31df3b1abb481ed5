// Package codegen renders an ir.Document as Go source for struct tag based GraphQL clients.
//
// Query fragments become structs whose fields carry graphql tags, e.g. `graphql:"film(id: $id)"`.
// Input objects carry json tags. Every argument struct gets a Variables method returning the
// variables map expected by the client.
package codegen

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/wundergraph/graphql-querygen/pkg/ir"
	"github.com/wundergraph/graphql-querygen/pkg/naming"
	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

type Config struct {
	PackageName string
	// Types holds schema derived descriptors that are rendered into another file of the same package,
	// see querygen.Generator.GenerateModule.
	Types *ir.Document
}

type CodeGen struct {
	doc       *ir.Document
	config    Config
	file      *jen.File
	typeNames map[string]string
}

func New(doc *ir.Document, config Config) *CodeGen {
	return &CodeGen{
		doc:    doc,
		config: config,
	}
}

func (c *CodeGen) Generate(w io.Writer) (int, error) {
	c.file = jen.NewFile(c.config.PackageName)
	c.file.HeaderComment(fmt.Sprintf("Code generated by querygen from %s. DO NOT EDIT.", c.doc.SchemaPath))
	c.typeNames = c.doc.TypeNames()
	if c.config.Types != nil {
		for graphqlName, name := range c.config.Types.TypeNames() {
			c.typeNames[graphqlName] = name
		}
	}

	for _, fragment := range c.doc.QueryFragments {
		if err := c.renderQueryFragment(fragment); err != nil {
			return 0, err
		}
	}
	for _, inputObject := range c.doc.InputObjects {
		if err := c.renderInputObject(inputObject); err != nil {
			return 0, err
		}
	}
	for _, enum := range c.doc.Enums {
		c.renderEnum(enum)
	}
	for _, scalar := range c.doc.Scalars {
		c.file.Type().Id(scalar.Name).String()
	}
	for _, argumentStruct := range c.doc.ArgumentStructs {
		if err := c.renderArgumentStruct(argumentStruct); err != nil {
			return 0, err
		}
	}

	buf := &bytes.Buffer{}
	if err := c.file.Render(buf); err != nil {
		return 0, err
	}
	return w.Write(buf.Bytes())
}

func fieldName(name string) string {
	return naming.TypeName(name)
}

func receiverName(structName string) string {
	return strings.ToLower(structName[0:1])
}

// renderType renders typeRef as Go type. Nullable named types become pointers, lists become slices.
// forcePointer renders a non-null named type as pointer, too.
func (c *CodeGen) renderType(stmt *jen.Statement, typeRef typeindex.TypeRef, nullable, forcePointer bool, named string) {
	switch typeRef.Kind {
	case typeindex.TypeRefKindNonNull:
		c.renderType(stmt, *typeRef.OfType, false, forcePointer, named)
	case typeindex.TypeRefKindList:
		c.renderType(stmt.Index(), *typeRef.OfType, true, false, named)
	case typeindex.TypeRefKindNamed:
		if nullable || forcePointer {
			stmt.Op("*")
		}
		switch typeRef.Name {
		case "Boolean":
			stmt.Bool()
		case "String", "ID":
			stmt.String()
		case "Int":
			stmt.Int32()
		case "Float":
			stmt.Float64()
		default:
			stmt.Id(named)
		}
	}
}

func (c *CodeGen) goType(typeString, named string, forcePointer bool) (*jen.Statement, error) {
	typeRef, err := typeindex.ParseTypeRef(typeString)
	if err != nil {
		return nil, err
	}
	stmt := jen.Null()
	c.renderType(stmt, typeRef, true, forcePointer, named)
	return stmt, nil
}

// schemaTypeName returns the descriptor name of a schema derived type.
func (c *CodeGen) schemaTypeName(graphqlName string) string {
	if name, ok := c.typeNames[graphqlName]; ok {
		return name
	}
	return naming.TypeName(graphqlName)
}

func graphqlTag(field *ir.Field) string {
	tag := field.GraphQLName
	if field.Alias != "" {
		tag = field.Alias + ": " + field.GraphQLName
	}
	if len(field.Arguments) == 0 {
		return tag
	}
	arguments := make([]string, 0, len(field.Arguments))
	for _, argument := range field.Arguments {
		arguments = append(arguments, argument.Name+": "+argument.Value)
	}
	return tag + "(" + strings.Join(arguments, ", ") + ")"
}

func (c *CodeGen) renderQueryFragment(fragment *ir.QueryFragment) error {
	var fields []jen.Code
	names := make(map[string]struct{}, len(fragment.Fields)+len(fragment.Variants))

	for _, field := range fragment.Fields {
		named := c.schemaTypeName(field.InnerType)
		if field.Kind.IsComposite() {
			named = field.Fragment
		}
		fieldType, err := c.goType(field.Type, named, false)
		if err != nil {
			return err
		}
		name := fieldName(field.Name)
		names[name] = struct{}{}
		fields = append(fields, jen.Id(name).Add(fieldType).Tag(map[string]string{"graphql": graphqlTag(field)}))
	}

	for _, variant := range fragment.Variants {
		name := fieldName(variant.TypeName)
		if _, taken := names[name]; taken {
			name += "Fragment"
		}
		names[name] = struct{}{}
		fields = append(fields, jen.Id(name).Id(variant.Fragment).Tag(map[string]string{"graphql": "... on " + variant.TypeName}))
	}

	if fragment.IsRoot() {
		c.file.Commentf("%s is the result of the %s operation %s.", fragment.Name, fragment.OperationType, fragment.OperationName)
	}
	c.file.Type().Id(fragment.Name).Struct(fields...)
	return nil
}

func (c *CodeGen) renderInputObject(inputObject *ir.InputObject) error {
	var fields []jen.Code
	for _, field := range inputObject.Fields {
		fieldType, err := c.goType(field.Type, c.schemaTypeName(field.InnerType), field.Boxed)
		if err != nil {
			return err
		}
		jsonTag := field.Name
		if !field.Required {
			jsonTag += ",omitempty"
		}
		fields = append(fields, jen.Id(fieldName(field.Name)).Add(fieldType).Tag(map[string]string{"json": jsonTag}))
	}
	c.file.Type().Id(inputObject.Name).Struct(fields...)
	return nil
}

func (c *CodeGen) renderEnum(enum *ir.Enum) {
	c.file.Type().Id(enum.Name).String()
	c.file.Const().DefsFunc(func(group *jen.Group) {
		for _, value := range enum.Values {
			group.Id(enum.Name + naming.TypeName(strings.ToLower(value))).Id(enum.Name).Op("=").Lit(value)
		}
	})
}

func (c *CodeGen) renderArgumentStruct(argumentStruct *ir.ArgumentStruct) error {
	var fields []jen.Code
	values := jen.Dict{}
	receiver := receiverName(argumentStruct.Name)

	for _, variable := range argumentStruct.Variables {
		fieldType, err := c.goType(variable.Type, c.schemaTypeName(variable.InnerType), false)
		if err != nil {
			return err
		}
		name := fieldName(variable.Name)
		fields = append(fields, jen.Id(name).Add(fieldType).Tag(map[string]string{"json": variable.Name}))
		values[jen.Lit(variable.Name)] = jen.Id(receiver).Dot(name)
	}

	c.file.Type().Id(argumentStruct.Name).Struct(fields...)
	c.file.Commentf("Variables returns the variables of the %s operation.", argumentStruct.Fragment)
	c.file.Func().Params(jen.Id(receiver).Id(argumentStruct.Name)).Id("Variables").Params().Map(jen.String()).Interface().Block(
		jen.Return(jen.Map(jen.String()).Interface().Values(values)),
	)
	return nil
}
