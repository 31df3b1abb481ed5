package querygen

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/internal/pkg/unsafeparser"
	"github.com/wundergraph/graphql-querygen/pkg/ir"
	"github.com/wundergraph/graphql-querygen/pkg/queryerrors"
	"github.com/wundergraph/graphql-querygen/pkg/testing/goldie"
)

const filmDefinition = `
type Query {
	film(id: ID!): Film
}
type Film {
	title: String!
}`

const testDefinition = `
scalar DateTime

type Query {
	film(id: ID!): Film
	films(first: Int, filter: FilmFilter, order: Order): [Film!]!
	post(id: ID!): Post
	search(text: String!): [SearchResult!]!
	status: Status
}

type Film {
	id: ID!
	title: String!
	releasedAt: DateTime
	director: Person
}

type Person {
	id: ID!
	name: String!
	films: [Film!]!
}

type Post {
	author: Person!
	editor: Person
}

union SearchResult = Film | Person

enum Order {
	TITLE
	RELEASED_AT
}

enum Status {
	ONLINE
	OFFLINE
}

input FilmFilter {
	title: String
	and: [FilmFilter!]
	director: PersonFilter
}

input PersonFilter {
	name: String
	films: FilmFilter!
}
`

func generate(t *testing.T, definition, operation string, options Options) (*ir.Document, error) {
	t.Helper()
	schema, document := unsafeparser.ParseSchemaAndOperation(definition, operation)
	return Generate(schema, document, options)
}

func mustGenerate(t *testing.T, operation string) *ir.Document {
	t.Helper()
	document, err := generate(t, testDefinition, operation, Options{})
	require.NoError(t, err)
	return document
}

func fragmentNames(document *ir.Document) []string {
	names := make([]string, 0, len(document.QueryFragments))
	for _, fragment := range document.QueryFragments {
		names = append(names, fragment.Name)
	}
	return names
}

func TestGenerate_FilmByID(t *testing.T) {
	document, err := generate(t, filmDefinition, `{ film(id: "1") { title } }`, Options{})
	require.NoError(t, err)

	goldie.AssertJSON(t, "film_by_id", document)
}

func TestGenerate_UnionWithSingleBranch(t *testing.T) {
	document := mustGenerate(t, `{ search(text: "hope") { ... on Film { title } } }`)

	assert.Equal(t, []string{"Film", "SearchResult", "Query"}, fragmentNames(document))
	searchResult := document.QueryFragment("SearchResult")
	require.NotNil(t, searchResult)
	assert.Empty(t, searchResult.Fields)
	assert.Equal(t, []*ir.Variant{{TypeName: "Film", Fragment: "Film"}}, searchResult.Variants)
	assert.Nil(t, document.QueryFragment("Person"))

	search := document.QueryFragment("Query").Fields[0]
	assert.Equal(t, ir.KindUnion, search.Kind)
	assert.Equal(t, "SearchResult", search.Fragment)
}

func TestGenerate_UnknownField(t *testing.T) {
	_, err := generate(t, testDefinition, `{ bogus }`, Options{})
	var unknownField *queryerrors.UnknownFieldError
	require.True(t, errors.As(err, &unknownField))
	assert.Equal(t, "bogus", unknownField.Field)
	assert.Equal(t, "Query", unknownField.Type)
}

func TestGenerate_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		document := mustGenerate(t, `{ status }`)
		assert.Equal(t, DefaultSchemaPath, document.SchemaPath)
		assert.Equal(t, DefaultQueryModule, document.QueryModule)
	})
	t.Run("explicit", func(t *testing.T) {
		document, err := generate(t, testDefinition, `query A { status } query B { film(id: 1) { id } }`, Options{
			SchemaPath:    "graphql/schema.graphqls",
			QueryModule:   "models",
			OperationName: "B",
		})
		require.NoError(t, err)
		assert.Equal(t, "graphql/schema.graphqls", document.SchemaPath)
		assert.Equal(t, "models", document.QueryModule)
		assert.Equal(t, []string{"Film", "B"}, fragmentNames(document))
	})
}

func TestGenerate_Naming(t *testing.T) {
	t.Run("enclosing name and response key on collision", func(t *testing.T) {
		document := mustGenerate(t, `{ post(id: 1) { author { name } editor { id } } }`)
		assert.Equal(t, []string{"Person", "PostEditor", "Post", "Query"}, fragmentNames(document))
		post := document.QueryFragment("Post")
		assert.Equal(t, "Person", post.Fields[0].Fragment)
		assert.Equal(t, "PostEditor", post.Fields[1].Fragment)
	})
	t.Run("equal shapes share a name", func(t *testing.T) {
		document := mustGenerate(t, `{ post(id: 1) { author { name } editor { name } } }`)
		assert.Equal(t, []string{"Person", "Post", "Query"}, fragmentNames(document))
		post := document.QueryFragment("Post")
		assert.Equal(t, "Person", post.Fields[0].Fragment)
		assert.Equal(t, "Person", post.Fields[1].Fragment)
	})
	t.Run("numeric suffix for operations", func(t *testing.T) {
		document := mustGenerate(t, `{ status } { film(id: 1) { id } }`)
		assert.Equal(t, []string{"Query", "Film", "Query2"}, fragmentNames(document))
	})
	t.Run("operation names are converted", func(t *testing.T) {
		document := mustGenerate(t, `query film_details { film(id: 1) { id } }`)
		assert.Equal(t, []string{"Film", "FilmDetails"}, fragmentNames(document))
		assert.Equal(t, "film_details", document.QueryFragment("FilmDetails").OperationName)
	})
	t.Run("fragments do not collide with enums", func(t *testing.T) {
		document := mustGenerate(t, `query Status { status }`)
		require.Len(t, document.Enums, 1)
		assert.Equal(t, "Status", document.Enums[0].Name)
		assert.Equal(t, []string{"Status2"}, fragmentNames(document))
	})
	t.Run("names are unique across all descriptors", func(t *testing.T) {
		document := mustGenerate(t, `
			query Film($filter: FilmFilter, $order: Order) {
				films(filter: $filter, order: $order) { releasedAt director { name films { title } } }
				post(id: 1) { author { id } editor { id name } }
				search(text: "x") { ... on Film { id } ... on Person { id } }
			}
			query Order { status }`)

		seen := map[string]bool{}
		check := func(name string) {
			assert.False(t, seen[name], "duplicate name %s", name)
			seen[name] = true
		}
		for _, fragment := range document.QueryFragments {
			check(fragment.Name)
		}
		for _, inputObject := range document.InputObjects {
			check(inputObject.Name)
		}
		for _, enum := range document.Enums {
			check(enum.Name)
		}
		for _, scalar := range document.Scalars {
			check(scalar.Name)
		}
		for _, argumentStruct := range document.ArgumentStructs {
			check(argumentStruct.Name)
		}
		assert.True(t, seen["FilmFilms"])
		assert.True(t, seen["Order2"])
		assert.True(t, seen["FilmArguments"])
	})
}

func TestGenerate_ArgumentStructs(t *testing.T) {
	document := mustGenerate(t, `
		query Films($first: Int = 10, $filter: FilmFilter!, $order: Order = TITLE) {
			films(first: $first, filter: $filter, order: $order) { id }
		}
		query Plain { status }`)

	require.Len(t, document.ArgumentStructs, 1)
	arguments := document.ArgumentStructs[0]
	assert.Equal(t, "FilmsArguments", arguments.Name)
	assert.Equal(t, "Films", arguments.Fragment)
	assert.Equal(t, []*ir.Variable{
		{Name: "first", Type: "Int", InnerType: "Int", Kind: ir.KindScalar, Default: "10"},
		{Name: "filter", Type: "FilmFilter!", InnerType: "FilmFilter", Kind: ir.KindInputObject},
		{Name: "order", Type: "Order", InnerType: "Order", Kind: ir.KindEnum, Default: "TITLE"},
	}, arguments.Variables)

	assert.Equal(t, "FilmsArguments", document.QueryFragment("Films").ArgumentStruct)
	assert.Equal(t, "", document.QueryFragment("Plain").ArgumentStruct)

	films := document.QueryFragment("Films").Fields[0]
	require.Len(t, films.Arguments, 3)
	assert.Equal(t, &ir.Argument{Name: "filter", Type: "FilmFilter", Value: "$filter", Variables: []string{"filter"}}, films.Arguments[1])
}

func TestGenerate_CyclicInputObjects(t *testing.T) {
	document := mustGenerate(t, `query Films($filter: FilmFilter) { films(filter: $filter) { id } }`)

	require.Len(t, document.InputObjects, 2)
	personFilter, filmFilter := document.InputObjects[0], document.InputObjects[1]
	assert.Equal(t, "PersonFilter", personFilter.Name)
	assert.Equal(t, "FilmFilter", filmFilter.Name)

	assert.False(t, personFilter.Fields[0].Boxed)
	assert.True(t, personFilter.Fields[1].Boxed)
	assert.True(t, personFilter.Fields[1].Required)

	assert.False(t, filmFilter.Fields[0].Boxed)
	assert.True(t, filmFilter.Fields[1].Boxed)
	assert.True(t, filmFilter.Fields[2].Boxed)
	assert.Equal(t, ir.KindInputObject, filmFilter.Fields[2].Kind)
}

func TestGenerate_SeparateInputCycles(t *testing.T) {
	definition := `
		type Query {
			events(filter: EventFilter): [Event!]!
		}
		type Event {
			id: ID!
		}
		input EventFilter {
			venue: VenueFilter
			window: DateRange
		}
		input VenueFilter {
			events: EventFilter
		}
		input DateRange {
			from: String
			and: [DateRange!]
		}`

	document, err := generate(t, definition, `query Events($filter: EventFilter) { events(filter: $filter) { id } }`, Options{})
	require.NoError(t, err)

	inputObjects := make(map[string]*ir.InputObject, len(document.InputObjects))
	for _, inputObject := range document.InputObjects {
		inputObjects[inputObject.GraphQLName] = inputObject
	}
	require.Len(t, inputObjects, 3)

	eventFilter := inputObjects["EventFilter"]
	assert.True(t, eventFilter.Fields[0].Boxed)
	assert.False(t, eventFilter.Fields[1].Boxed)
	assert.True(t, inputObjects["VenueFilter"].Fields[0].Boxed)
	assert.False(t, inputObjects["DateRange"].Fields[0].Boxed)
	assert.True(t, inputObjects["DateRange"].Fields[1].Boxed)
}

func TestGenerate_DescriptorOrder(t *testing.T) {
	document := mustGenerate(t, `
		query Films($filter: FilmFilter, $order: Order) {
			films(filter: $filter, order: $order) { releasedAt director { name films { title releasedAt } } }
			search(text: "x") { ... on Film { id } ... on Person { name } }
		}`)

	position := map[string]int{}
	for i, fragment := range document.QueryFragments {
		position[fragment.Name] = i
	}
	for i, fragment := range document.QueryFragments {
		for _, field := range fragment.Fields {
			if field.Fragment != "" {
				assert.Less(t, position[field.Fragment], i, "%s must precede %s", field.Fragment, fragment.Name)
			}
		}
		for _, variant := range fragment.Variants {
			assert.Less(t, position[variant.Fragment], i, "%s must precede %s", variant.Fragment, fragment.Name)
		}
	}
	assert.Equal(t, "Films", document.QueryFragments[len(document.QueryFragments)-1].Name)

	assert.Len(t, document.Enums, 1)
	assert.Equal(t, []*ir.Scalar{{Name: "DateTime", GraphQLName: "DateTime"}}, document.Scalars)
}

func TestGenerate_JSON(t *testing.T) {
	document := mustGenerate(t, `
		query Search($text: String!) {
			search(text: $text) { __typename ... on Person { name } }
		}`)
	out, err := json.Marshal(document)
	require.NoError(t, err)

	assert.Equal(t, "Search", gjson.GetBytes(out, "queryFragments.#(operationType==\"query\").name").String())
	assert.Equal(t, "__typename", gjson.GetBytes(out, "queryFragments.#(name==\"SearchResult\").fields.0.name").String())
	assert.Equal(t, "Person", gjson.GetBytes(out, "queryFragments.#(name==\"SearchResult\").variants.0.fragment").String())
	assert.Equal(t, "$text", gjson.GetBytes(out, "queryFragments.#(name==\"Search\").fields.0.arguments.0.value").String())
	assert.Equal(t, "String!", gjson.GetBytes(out, "argumentStructs.0.variables.0.type").String())
	assert.False(t, gjson.GetBytes(out, "queryFragments.0.variants").Exists())
}

func TestGenerator_Deterministic(t *testing.T) {
	schema, operation := unsafeparser.ParseSchemaAndOperation(testDefinition, `
		query Films($filter: FilmFilter, $order: Order) {
			films(filter: $filter, order: $order) { releasedAt director { name films { title } } }
			post(id: 1) { author { id } editor { id name } }
			search(text: "x") { ... on Film { id } ... on Person { id } }
		}`)
	generator := New(schema)

	first, err := generator.Generate(operation, Options{})
	require.NoError(t, err)

	wg := sync.WaitGroup{}
	results := make([]*ir.Document, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = generator.Generate(operation, Options{})
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		if diff := cmp.Diff(first, result); diff != "" {
			t.Errorf("generated documents differ (-first +result):\n%s", diff)
		}
	}
}

func TestGenerator_GenerateModule(t *testing.T) {
	parse := func(operation string) *ast.Document {
		document := unsafeparser.ParseGraphqlDocumentString(operation)
		return &document
	}
	schema := unsafeparser.ParseGraphqlDocumentString(testDefinition)
	generator := New(&schema)

	t.Run("schema types are generated once", func(t *testing.T) {
		module, err := generator.GenerateModule([]ModuleDocument{
			{Name: "films.graphql", Operation: parse(`query Films($order: Order) { films(order: $order) { id } }`)},
			{Name: "status.graphql", Operation: parse(`{ status films(order: TITLE) { id } }`)},
			{Name: "film.graphql", Operation: parse(`{ film(id: 1) { title } }`)},
		}, Options{})
		require.NoError(t, err)

		enums := make([]string, 0, len(module.Types.Enums))
		for _, enum := range module.Types.Enums {
			enums = append(enums, enum.Name)
		}
		assert.ElementsMatch(t, []string{"Order", "Status"}, enums)
		assert.Empty(t, module.Types.QueryFragments)
		assert.Equal(t, "query_dsl", module.Types.QueryModule)

		require.Len(t, module.Documents, 3)
		for _, document := range module.Documents {
			assert.Empty(t, document.Enums)
			assert.Empty(t, document.InputObjects)
			assert.Empty(t, document.Scalars)
		}

		assert.Equal(t, []string{"Film", "Films"}, fragmentNames(module.Documents[0]))
		assert.Equal(t, "FilmsArguments", module.Documents[0].ArgumentStructs[0].Name)

		assert.Equal(t, []string{"Query"}, fragmentNames(module.Documents[1]))
		assert.Equal(t, "Film", module.Documents[1].QueryFragment("Query").Fields[1].Fragment)

		assert.Equal(t, []string{"Query2Film", "Query2"}, fragmentNames(module.Documents[2]))
	})
	t.Run("errors name the document", func(t *testing.T) {
		_, err := generator.GenerateModule([]ModuleDocument{
			{Name: "films.graphql", Operation: parse(`{ films { id } }`)},
			{Name: "broken.graphql", Operation: parse(`{ bogus }`)},
		}, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.graphql")

		var unknownField *queryerrors.UnknownFieldError
		assert.True(t, errors.As(err, &unknownField))
	})
}
