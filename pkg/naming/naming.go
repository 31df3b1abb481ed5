// Package naming assigns unique, deterministic type names to the descriptors of a generated document.
package naming

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/iancoleman/strcase"

	"github.com/wundergraph/graphql-querygen/pkg/normalization"
)

// TypeName converts a GraphQL name into type name casing, e.g. film_order -> FilmOrder.
func TypeName(name string) string {
	return strcase.ToCamel(name)
}

// Signature identifies the shape of a descriptor.
// Hash buckets signatures, two signatures are equal only if their Canonical forms are equal.
type Signature struct {
	Hash      uint64
	Canonical string
}

func newSignature(canonical string) Signature {
	return Signature{
		Hash:      xxhash.Sum64String(canonical),
		Canonical: canonical,
	}
}

type namedSignature struct {
	canonical string
	name      string
}

// Namer hands out names that are unique across all descriptors of a document.
// Every signature gets exactly one name, the first one assigned to it.
type Namer struct {
	taken       map[string]struct{}
	bySignature map[uint64][]namedSignature
}

func New() *Namer {
	return &Namer{
		taken:       make(map[string]struct{}),
		bySignature: make(map[uint64][]namedSignature),
	}
}

// Assign returns the name of signature. Unnamed signatures get the first free candidate, if all of them are taken
// the first candidate is suffixed with 2, 3, ... until it is unique.
// shared is true if signature was named before.
func (n *Namer) Assign(signature Signature, candidates ...string) (name string, shared bool) {
	for _, named := range n.bySignature[signature.Hash] {
		if named.canonical == signature.Canonical {
			return named.name, true
		}
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, exists := n.taken[candidate]; !exists {
			return n.take(signature, candidate), false
		}
	}

	for i := 2; ; i++ {
		candidate := candidates[0] + strconv.Itoa(i)
		if _, exists := n.taken[candidate]; !exists {
			return n.take(signature, candidate), false
		}
	}
}

func (n *Namer) take(signature Signature, name string) string {
	n.taken[name] = struct{}{}
	n.bySignature[signature.Hash] = append(n.bySignature[signature.Hash], namedSignature{
		canonical: signature.Canonical,
		name:      name,
	})
	return name
}

// Taken reports whether name has been assigned.
func (n *Namer) Taken(name string) bool {
	_, exists := n.taken[name]
	return exists
}

// KeySignature returns the signature of a descriptor that is identified by its kind and name alone, e.g. an enum.
func KeySignature(kind, name string) Signature {
	return newSignature(kind + "\x00" + name)
}

// SelectionSetSignature computes the shape signature of a selection set.
// Two selection sets have the same signature if they select the same fields with the same arguments
// on the same type, recursively.
func SelectionSetSignature(set *normalization.SelectionSet) Signature {
	builder := &strings.Builder{}
	writeSelectionSet(builder, set)
	return newSignature(builder.String())
}

func writeSelectionSet(builder *strings.Builder, set *normalization.SelectionSet) {
	builder.WriteString("set\x00")
	builder.WriteString(set.TargetType)
	for _, selection := range set.Selections {
		builder.WriteString("\x00field\x00")
		builder.WriteString(selection.ResponseKey)
		builder.WriteString("\x00")
		builder.WriteString(selection.FieldName)
		builder.WriteString("\x00")
		builder.WriteString(selection.Type.String())
		for _, argument := range selection.Arguments {
			builder.WriteString("\x00argument\x00")
			builder.WriteString(argument.Name)
			builder.WriteString("\x00")
			builder.WriteString(argument.Value.String())
		}
		if selection.SelectionSet != nil {
			writeSelectionSet(builder, selection.SelectionSet)
		}
	}
	for _, variant := range set.Variants {
		builder.WriteString("\x00variant\x00")
		builder.WriteString(variant.TypeName)
		writeSelectionSet(builder, variant.SelectionSet)
	}
	builder.WriteString("\x00end")
}
