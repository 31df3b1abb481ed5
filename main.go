// Command querygen generates typed Go declarations for GraphQL operations.
//
// It reads a schema and query documents, normalizes every operation against the schema
// and turns the result into an ordered set of declarations: one struct per selection set,
// input objects, enums and custom scalars reachable from the operations
// and one arguments struct per operation with variables.
//
// Usage:
//
//	querygen generate -s schema.graphql -q film.graphql -p films -o ./films
//	querygen generate -s schema.graphql -q film.graphql -f json
package main

import "github.com/wundergraph/graphql-querygen/cmd"

func main() {
	cmd.Execute()
}
