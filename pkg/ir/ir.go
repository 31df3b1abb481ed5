// Package ir contains the dependency-ordered descriptors handed to code emitters.
//
// Descriptors refer to each other by name only. A descriptor always appears after
// the descriptors it references unless the reference is marked as boxed.
package ir

type Document struct {
	SchemaPath      string            `json:"schemaPath" yaml:"schema_path"`
	QueryModule     string            `json:"queryModule" yaml:"query_module"`
	QueryFragments  []*QueryFragment  `json:"queryFragments" yaml:"query_fragments"`
	InputObjects    []*InputObject    `json:"inputObjects" yaml:"input_objects"`
	Enums           []*Enum           `json:"enums" yaml:"enums"`
	Scalars         []*Scalar         `json:"scalars" yaml:"scalars"`
	ArgumentStructs []*ArgumentStruct `json:"argumentStructs" yaml:"argument_structs"`
}

// Module holds several query documents generated into one namespace.
// Types holds the schema derived descriptors shared by all documents, Documents hold the
// query fragments and argument structs of each query document in input order.
// Descriptor names are unique across the whole module.
type Module struct {
	Types     *Document   `json:"types" yaml:"types"`
	Documents []*Document `json:"documents" yaml:"documents"`
}

// Kind is the kind of the named GraphQL type a field or variable refers to.
type Kind string

const (
	KindScalar      Kind = "scalar"
	KindObject      Kind = "object"
	KindInterface   Kind = "interface"
	KindUnion       Kind = "union"
	KindEnum        Kind = "enum"
	KindInputObject Kind = "input"
)

func (k Kind) IsComposite() bool {
	return k == KindObject || k == KindInterface || k == KindUnion
}

// QueryFragment describes one selection set of the query document.
type QueryFragment struct {
	Name     string `json:"name" yaml:"name"`
	TypeName string `json:"typeName" yaml:"type_name"`
	// OperationName and OperationType are set on root fragments only.
	OperationName string `json:"operationName,omitempty" yaml:"operation_name,omitempty"`
	OperationType string `json:"operationType,omitempty" yaml:"operation_type,omitempty"`
	// ArgumentStruct names the argument struct of a root fragment whose operation declares variables.
	ArgumentStruct string     `json:"argumentStruct,omitempty" yaml:"argument_struct,omitempty"`
	Fields         []*Field   `json:"fields" yaml:"fields"`
	Variants       []*Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}

func (f *QueryFragment) IsRoot() bool {
	return f.OperationType != ""
}

type Field struct {
	// Name is the response key.
	Name        string `json:"name" yaml:"name"`
	GraphQLName string `json:"graphqlName" yaml:"graphql_name"`
	Alias       string `json:"alias,omitempty" yaml:"alias,omitempty"`
	// Type is the declared GraphQL type, e.g. [Film!]!
	Type      string      `json:"type" yaml:"type"`
	InnerType string      `json:"innerType" yaml:"inner_type"`
	Kind      Kind        `json:"kind" yaml:"kind"`
	Fragment  string      `json:"fragment,omitempty" yaml:"fragment,omitempty"`
	Arguments []*Argument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

type Argument struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	// Value is the GraphQL literal supplied to the argument.
	Value     string   `json:"value" yaml:"value"`
	Variables []string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Variant is the fragment selected on one concrete type of a union or interface.
type Variant struct {
	TypeName string `json:"typeName" yaml:"type_name"`
	Fragment string `json:"fragment" yaml:"fragment"`
}

type InputObject struct {
	Name        string        `json:"name" yaml:"name"`
	GraphQLName string        `json:"graphqlName" yaml:"graphql_name"`
	Fields      []*InputField `json:"fields" yaml:"fields"`
}

type InputField struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	InnerType string `json:"innerType" yaml:"inner_type"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Required  bool   `json:"required" yaml:"required"`
	// Boxed marks references that close a cycle between input objects and need indirection.
	Boxed bool `json:"boxed,omitempty" yaml:"boxed,omitempty"`
}

type Enum struct {
	Name        string   `json:"name" yaml:"name"`
	GraphQLName string   `json:"graphqlName" yaml:"graphql_name"`
	Values      []string `json:"values" yaml:"values"`
}

type Scalar struct {
	Name        string `json:"name" yaml:"name"`
	GraphQLName string `json:"graphqlName" yaml:"graphql_name"`
}

// ArgumentStruct groups the variables of one operation.
type ArgumentStruct struct {
	Name      string      `json:"name" yaml:"name"`
	Fragment  string      `json:"fragment" yaml:"fragment"`
	Variables []*Variable `json:"variables" yaml:"variables"`
}

type Variable struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	InnerType string `json:"innerType" yaml:"inner_type"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Default   string `json:"default,omitempty" yaml:"default,omitempty"`
}

// TypeNames maps the GraphQL names of schema derived descriptors to their descriptor names.
func (d *Document) TypeNames() map[string]string {
	names := make(map[string]string, len(d.InputObjects)+len(d.Enums)+len(d.Scalars))
	for _, inputObject := range d.InputObjects {
		names[inputObject.GraphQLName] = inputObject.Name
	}
	for _, enum := range d.Enums {
		names[enum.GraphQLName] = enum.Name
	}
	for _, scalar := range d.Scalars {
		names[scalar.GraphQLName] = scalar.Name
	}
	return names
}

func (d *Document) QueryFragment(name string) *QueryFragment {
	for _, fragment := range d.QueryFragments {
		if fragment.Name == name {
			return fragment
		}
	}
	return nil
}
