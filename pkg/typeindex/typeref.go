package typeindex

import (
	"fmt"
	"strings"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
)

type TypeRefKind int

const (
	TypeRefKindNamed TypeRefKind = iota
	TypeRefKindList
	TypeRefKindNonNull
)

// TypeRef is a GraphQL type reference, e.g. [Film!]!
// Values are immutable, the constructors never produce NonNull(NonNull(_)).
type TypeRef struct {
	Kind   TypeRefKind
	Name   string
	OfType *TypeRef
}

func Named(name string) TypeRef {
	return TypeRef{Kind: TypeRefKindNamed, Name: name}
}

func List(of TypeRef) TypeRef {
	return TypeRef{Kind: TypeRefKindList, OfType: &of}
}

func NonNull(of TypeRef) TypeRef {
	if of.Kind == TypeRefKindNonNull {
		return of
	}
	return TypeRef{Kind: TypeRefKindNonNull, OfType: &of}
}

// TypeRefFromAST converts the type with the given ref of doc.
func TypeRefFromAST(doc *ast.Document, ref int) TypeRef {
	graphqlType := doc.Types[ref]
	switch graphqlType.TypeKind {
	case ast.TypeKindNonNull:
		return NonNull(TypeRefFromAST(doc, graphqlType.OfType))
	case ast.TypeKindList:
		return List(TypeRefFromAST(doc, graphqlType.OfType))
	default:
		return Named(strings.Clone(doc.TypeNameString(ref)))
	}
}

func (t TypeRef) IsNonNull() bool {
	return t.Kind == TypeRefKindNonNull
}

// IsOptional reports whether the outermost layer is nullable.
func (t TypeRef) IsOptional() bool {
	return !t.IsNonNull()
}

// Nullable strips exactly one outer NonNull layer.
func (t TypeRef) Nullable() TypeRef {
	if t.Kind == TypeRefKindNonNull {
		return *t.OfType
	}
	return t
}

// IsList reports whether the type is a list once the outer NonNull layer is stripped.
func (t TypeRef) IsList() bool {
	return t.Nullable().Kind == TypeRefKindList
}

// InnerName returns the name of the named type with all list and non-null wrappers stripped.
func (t TypeRef) InnerName() string {
	for t.Kind != TypeRefKindNamed {
		t = *t.OfType
	}
	return t.Name
}

func (t TypeRef) Equal(other TypeRef) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == TypeRefKindNamed {
		return t.Name == other.Name
	}
	return t.OfType.Equal(*other.OfType)
}

func (t TypeRef) String() string {
	builder := strings.Builder{}
	t.write(&builder)
	return builder.String()
}

func (t TypeRef) write(builder *strings.Builder) {
	switch t.Kind {
	case TypeRefKindNamed:
		builder.WriteString(t.Name)
	case TypeRefKindList:
		builder.WriteByte('[')
		t.OfType.write(builder)
		builder.WriteByte(']')
	case TypeRefKindNonNull:
		t.OfType.write(builder)
		builder.WriteByte('!')
	}
}

// ParseTypeRef parses a type reference in GraphQL syntax as returned by TypeRef.String.
func ParseTypeRef(input string) (TypeRef, error) {
	typeRef, rest, err := parseTypeRef(strings.TrimSpace(input))
	if err != nil {
		return TypeRef{}, err
	}
	if rest != "" {
		return TypeRef{}, fmt.Errorf("unexpected %q after type %s", rest, typeRef)
	}
	return typeRef, nil
}

func parseTypeRef(input string) (TypeRef, string, error) {
	var typeRef TypeRef
	if strings.HasPrefix(input, "[") {
		inner, rest, err := parseTypeRef(input[1:])
		if err != nil {
			return TypeRef{}, "", err
		}
		if !strings.HasPrefix(rest, "]") {
			return TypeRef{}, "", fmt.Errorf("missing ] in type %q", input)
		}
		typeRef, input = List(inner), rest[1:]
	} else {
		end := strings.IndexAny(input, "[]!")
		if end == -1 {
			end = len(input)
		}
		if end == 0 {
			return TypeRef{}, "", fmt.Errorf("missing type name in %q", input)
		}
		typeRef, input = Named(input[:end]), input[end:]
	}
	if strings.HasPrefix(input, "!") {
		typeRef, input = NonNull(typeRef), input[1:]
	}
	return typeRef, input, nil
}
