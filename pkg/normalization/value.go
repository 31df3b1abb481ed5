package normalization

import (
	"strings"

	"github.com/wundergraph/graphql-querygen/internal/pkg/quotes"
)

type ValueKind int

const (
	ValueKindNull ValueKind = iota
	ValueKindInt
	ValueKindFloat
	ValueKindString
	ValueKindBoolean
	ValueKindEnum
	ValueKindList
	ValueKindObject
	ValueKindVariable
)

// Value is a literal of the query document or a reference to an operation variable.
//
// Raw holds the literal text for Int, Float and Boolean values, the content of String values,
// the name of Enum values and the name of the referenced variable for Variable values.
type Value struct {
	Kind   ValueKind
	Raw    string
	Block  bool
	List   []Value
	Fields []ObjectField
}

type ObjectField struct {
	Name  string
	Value Value
}

// String renders the value in GraphQL literal syntax.
func (v Value) String() string {
	builder := &strings.Builder{}
	v.write(builder)
	return builder.String()
}

func (v Value) write(builder *strings.Builder) {
	switch v.Kind {
	case ValueKindNull:
		builder.WriteString("null")
	case ValueKindString:
		builder.WriteString(quotes.Wrap(v.Raw, v.Block))
	case ValueKindVariable:
		builder.WriteByte('$')
		builder.WriteString(v.Raw)
	case ValueKindList:
		builder.WriteByte('[')
		for i := range v.List {
			if i != 0 {
				builder.WriteString(", ")
			}
			v.List[i].write(builder)
		}
		builder.WriteByte(']')
	case ValueKindObject:
		builder.WriteByte('{')
		for i := range v.Fields {
			if i != 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(v.Fields[i].Name)
			builder.WriteString(": ")
			v.Fields[i].Value.write(builder)
		}
		builder.WriteByte('}')
	default:
		builder.WriteString(v.Raw)
	}
}

// VariableNames returns the names of all variables referenced by the value, depth first.
func (v Value) VariableNames() []string {
	var names []string
	v.collectVariableNames(&names)
	return names
}

func (v Value) collectVariableNames(names *[]string) {
	switch v.Kind {
	case ValueKindVariable:
		*names = append(*names, v.Raw)
	case ValueKindList:
		for i := range v.List {
			v.List[i].collectVariableNames(names)
		}
	case ValueKindObject:
		for i := range v.Fields {
			v.Fields[i].Value.collectVariableNames(names)
		}
	}
}
