package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/jensneuse/abstractlogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"
)

const testSchema = `
type Query {
	film(id: ID!): Film
	films(order: Order): [Film!]!
}

type Film {
	id: ID!
	title: String!
	director: Person
}

type Person {
	name: String!
}

enum Order {
	TITLE
	RELEASE_DATE
}
`

const filmQuery = `
query FilmByID($id: ID!) {
	film(id: $id) {
		title
		director {
			name
		}
	}
}
`

const filmsQuery = `
query Films($order: Order) {
	films(order: $order) {
		id
	}
}
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, format string, queries ...string) generateConfig {
	t.Helper()
	dir := t.TempDir()
	config := generateConfig{
		SchemaFile:  writeTestFile(t, dir, "schema.graphql", testSchema),
		PackageName: "films",
		Out:         stdout,
		Format:      format,
	}
	for i, query := range queries {
		name := []string{"film.graphql", "films.graphql", "other.graphql"}[i]
		config.QueryFiles = append(config.QueryFiles, writeTestFile(t, dir, name, query))
	}
	return config
}

func TestRunGenerate(t *testing.T) {
	t.Run("go to stdout", func(t *testing.T) {
		config := testConfig(t, formatGo, filmQuery)

		out := &bytes.Buffer{}
		require.NoError(t, runGenerate(context.Background(), config, out, log.NoopLogger))

		assert.Contains(t, out.String(), "package films")
		assert.Contains(t, out.String(), "type FilmByID struct")
		assert.Contains(t, out.String(), "type FilmByIDArguments struct")
	})
	t.Run("json keeps input order", func(t *testing.T) {
		config := testConfig(t, formatJSON, filmQuery, filmsQuery)

		out := &bytes.Buffer{}
		require.NoError(t, runGenerate(context.Background(), config, out, log.NoopLogger))

		documents := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n}\n"))
		require.Len(t, documents, 3)
		types := append(documents[0], '}')
		first := append(documents[1], '}')
		second := documents[2]

		assert.Equal(t, "Order", gjson.GetBytes(types, "enums.0.graphqlName").String())
		assert.Equal(t, "FilmByID", gjson.GetBytes(first, "queryFragments.#(operationName!=\"\").operationName").String())
		assert.Equal(t, "Films", gjson.GetBytes(second, "queryFragments.#(operationName!=\"\").operationName").String())
		assert.Equal(t, int64(0), gjson.GetBytes(second, "enums.#").Int())
	})
	t.Run("yaml to directory", func(t *testing.T) {
		config := testConfig(t, formatYAML, filmQuery, filmsQuery)
		config.Out = filepath.Join(t.TempDir(), "generated")

		require.NoError(t, runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger))

		content, err := os.ReadFile(filepath.Join(config.Out, "films.yaml"))
		require.NoError(t, err)

		var document map[string]interface{}
		require.NoError(t, yaml.Unmarshal(content, &document))
		assert.Equal(t, "query_dsl", document["query_module"])

		for _, name := range []string{"film.yaml", "query_dsl.yaml"} {
			_, err = os.Stat(filepath.Join(config.Out, name))
			assert.NoError(t, err)
		}
	})
	t.Run("go files of one package declare shared types once", func(t *testing.T) {
		config := testConfig(t, formatGo, filmsQuery, `query Sorted($order: Order!) { films(order: $order) { title } }`, `{ films { id } }`)
		config.Out = filepath.Join(t.TempDir(), "films")
		config.QueryModule = "types"

		require.NoError(t, runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger))

		declarations := map[string]int{}
		for _, name := range []string{"types.go", "film.go", "films.go", "other.go"} {
			content, err := os.ReadFile(filepath.Join(config.Out, name))
			require.NoError(t, err)
			assert.Contains(t, string(content), "package films")
			for _, line := range strings.Split(string(content), "\n") {
				if strings.HasPrefix(line, "type ") {
					declarations[strings.Fields(line)[1]]++
				}
			}
		}

		assert.Equal(t, 1, declarations["Order"])
		assert.Equal(t, 1, declarations["Films"])
		assert.Equal(t, 1, declarations["Sorted"])
		assert.Equal(t, 1, declarations["Query"])
		for name, count := range declarations {
			assert.Equal(t, 1, count, name)
		}
	})
	t.Run("output files must not collide", func(t *testing.T) {
		config := testConfig(t, formatGo, filmQuery)
		other := filepath.Join(t.TempDir(), "film.graphql")
		require.NoError(t, os.WriteFile(other, []byte(filmsQuery), 0o644))
		config.QueryFiles = append(config.QueryFiles, other)
		config.Out = t.TempDir()

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "are both written to")
	})
	t.Run("operation name", func(t *testing.T) {
		config := testConfig(t, formatJSON, filmQuery+filmsQuery)
		config.Operation = "Films"

		out := &bytes.Buffer{}
		require.NoError(t, runGenerate(context.Background(), config, out, log.NoopLogger))
		assert.NotContains(t, out.String(), "FilmByID")
		assert.Contains(t, out.String(), `"operationName": "Films"`)
	})
	t.Run("validate", func(t *testing.T) {
		config := testConfig(t, formatGo, filmQuery)
		config.Validate = true

		require.NoError(t, runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger))
	})
	t.Run("validate rejects unused variables", func(t *testing.T) {
		config := testConfig(t, formatGo, `query Unused($id: ID!) { films { id } }`)
		config.Validate = true

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating")
	})
	t.Run("unknown field", func(t *testing.T) {
		config := testConfig(t, formatGo, `{ film(id: "1") { rating } }`)

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "film.graphql")
		assert.Contains(t, err.Error(), "rating")
	})
	t.Run("missing schema", func(t *testing.T) {
		config := testConfig(t, formatGo, filmQuery)
		config.SchemaFile = filepath.Join(t.TempDir(), "missing.graphql")

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading schema")
	})
	t.Run("syntax error", func(t *testing.T) {
		config := testConfig(t, formatGo, `query {`)

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing query document")
	})
	t.Run("unknown format", func(t *testing.T) {
		config := testConfig(t, "toml", filmQuery)

		err := runGenerate(context.Background(), config, &bytes.Buffer{}, log.NoopLogger)
		assert.EqualError(t, err, `unknown format: "toml"`)
	})
}

func TestGenerateCommand(t *testing.T) {
	config := testConfig(t, formatGo, filmQuery)

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"generate", "-s", config.SchemaFile, "-q", config.QueryFiles[0], "-p", "films", "-f", "json"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Film", gjson.Get(out.String(), `queryFragments.#(operationName=="FilmByID").fields.0.fragment`).String())
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "querygen dev\n", out.String())
}
