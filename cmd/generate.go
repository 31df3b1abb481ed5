package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astnormalization"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/asttransform"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astvalidation"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/operationreport"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/wundergraph/graphql-querygen/pkg/codegen"
	"github.com/wundergraph/graphql-querygen/pkg/ir"
	"github.com/wundergraph/graphql-querygen/pkg/querygen"
)

const (
	formatGo   = "go"
	formatJSON = "json"
	formatYAML = "yaml"

	stdout = "-"
)

var (
	schemaFile  string
	queryFiles  []string
	packageName string
	queryModule string
	operation   string
	outPath     string
	format      string
	validate    bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "generates type declarations for GraphQL operations",
	Long: `generate reads a schema and one or more query documents and writes
the generated declarations for every query document.

Example:

	querygen generate -s schema.graphql -q queries/film.graphql -p films -o ./films
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, flush, err := newLogger(viper.GetBool("debug"))
		if err != nil {
			return err
		}
		defer flush()

		config := generateConfig{
			SchemaFile:  viper.GetString("schema"),
			QueryFiles:  viper.GetStringSlice("queries"),
			PackageName: viper.GetString("package"),
			QueryModule: viper.GetString("query_module"),
			Operation:   viper.GetString("operation"),
			Out:         viper.GetString("out"),
			Format:      viper.GetString("format"),
			Validate:    viper.GetBool("validate"),
		}

		return runGenerate(cmd.Context(), config, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "schema is the path to the schema file")
	generateCmd.Flags().StringSliceVarP(&queryFiles, "queries", "q", nil, "queries are the paths to the query documents")
	generateCmd.Flags().StringVarP(&packageName, "package", "p", "queries", "package is the package name of the generated go code")
	generateCmd.Flags().StringVar(&queryModule, "query-module", querygen.DefaultQueryModule, "query-module is the module the schema derived declarations live in")
	generateCmd.Flags().StringVar(&operation, "operation", "", "operation restricts generation to the named operation")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", stdout, "out is the output directory, '-' writes to stdout")
	generateCmd.Flags().StringVarP(&format, "format", "f", formatGo, "format of the output, one of go, json, yaml")
	generateCmd.Flags().BoolVar(&validate, "validate", false, "validate runs the full GraphQL operation validation before generating")

	_ = viper.BindPFlag("schema", generateCmd.Flags().Lookup("schema"))
	_ = viper.BindPFlag("queries", generateCmd.Flags().Lookup("queries"))
	_ = viper.BindPFlag("package", generateCmd.Flags().Lookup("package"))
	_ = viper.BindPFlag("query_module", generateCmd.Flags().Lookup("query-module"))
	_ = viper.BindPFlag("operation", generateCmd.Flags().Lookup("operation"))
	_ = viper.BindPFlag("out", generateCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("format", generateCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("validate", generateCmd.Flags().Lookup("validate"))
}

type generateConfig struct {
	SchemaFile  string
	QueryFiles  []string
	PackageName string
	QueryModule string
	Operation   string
	Out         string
	Format      string
	Validate    bool
}

func (c generateConfig) check() error {
	if c.SchemaFile == "" {
		return errors.New("no schema file given")
	}
	if len(c.QueryFiles) == 0 {
		return errors.New("no query documents given")
	}
	switch c.Format {
	case formatGo, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format: %q", c.Format)
	}
	return nil
}

// module reports whether the query documents are generated into one namespace with a shared types file.
func (c generateConfig) module() bool {
	return len(c.QueryFiles) > 1
}

func (c generateConfig) outputFile(queryFile string) string {
	base := strings.TrimSuffix(filepath.Base(queryFile), filepath.Ext(queryFile))
	return filepath.Join(c.Out, base+"."+c.Format)
}

func (c generateConfig) typesFile() string {
	return filepath.Join(c.Out, c.QueryModule+"."+c.Format)
}

// outputFiles returns the files written to the output directory, the types file first.
func (c generateConfig) outputFiles() ([]string, error) {
	files := make([]string, 0, len(c.QueryFiles)+1)
	sources := make(map[string]string, len(c.QueryFiles)+1)
	add := func(file, source string) error {
		if other, exists := sources[file]; exists {
			return fmt.Errorf("%s and %s are both written to %s", other, source, file)
		}
		sources[file] = source
		files = append(files, file)
		return nil
	}

	if c.module() {
		if err := add(c.typesFile(), "query module "+c.QueryModule); err != nil {
			return nil, err
		}
	}
	for _, queryFile := range c.QueryFiles {
		if err := add(c.outputFile(queryFile), queryFile); err != nil {
			return nil, err
		}
	}
	return files, nil
}

type queryDocument struct {
	file      string
	raw       []byte
	operation *ast.Document
}

// output is one generated document and its rendering.
type output struct {
	file     string
	document *ir.Document
	// types is set on the documents of a module.
	types    *ir.Document
	rendered []byte
}

func runGenerate(ctx context.Context, config generateConfig, w io.Writer, logger log.Logger) error {
	if err := config.check(); err != nil {
		return err
	}
	if config.QueryModule == "" {
		config.QueryModule = querygen.DefaultQueryModule
	}

	var files []string
	if config.Out != stdout {
		var err error
		if files, err = config.outputFiles(); err != nil {
			return err
		}
	}

	schemaBytes, err := os.ReadFile(config.SchemaFile)
	if err != nil {
		return errors.Wrapf(err, "reading schema %s", config.SchemaFile)
	}

	definition, report := astparser.ParseGraphqlDocumentBytes(schemaBytes)
	if report.HasErrors() {
		return fmt.Errorf("parsing schema %s: %w", config.SchemaFile, report)
	}

	documents, err := parseDocuments(ctx, config.QueryFiles)
	if err != nil {
		return err
	}

	if config.Validate {
		if err := validateDocuments(schemaBytes, documents, config.Operation); err != nil {
			return err
		}
	}

	outputs, err := generateOutputs(querygen.New(&definition), documents, config, logger)
	if err != nil {
		return err
	}
	for i := range files {
		outputs[i].file = files[i]
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, out := range outputs {
		out := out
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			out.rendered, err = render(out.document, out.types, config)
			return errors.Wrapf(err, "rendering %s", out.file)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return write(outputs, config, w, logger)
}

// parseDocuments reads and parses the query documents concurrently and returns them in input order.
func parseDocuments(ctx context.Context, files []string) ([]*queryDocument, error) {
	documents := make([]*queryDocument, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "reading query document %s", file)
			}
			operation, report := astparser.ParseGraphqlDocumentBytes(raw)
			if report.HasErrors() {
				return fmt.Errorf("parsing query document %s: %w", file, report)
			}
			documents[i] = &queryDocument{file: file, raw: raw, operation: &operation}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return documents, nil
}

// generateOutputs generates a single query document on its own.
// Several query documents are generated as one module: the schema derived types go into one shared output.
func generateOutputs(generator *querygen.Generator, documents []*queryDocument, config generateConfig, logger log.Logger) ([]*output, error) {
	options := querygen.Options{
		SchemaPath:    config.SchemaFile,
		QueryModule:   config.QueryModule,
		OperationName: config.Operation,
		Logger:        logger,
	}

	if !config.module() {
		document := documents[0]
		generated, err := generator.Generate(document.operation, options)
		if err != nil {
			return nil, errors.Wrapf(err, "generating %s", document.file)
		}
		return []*output{{file: document.file, document: generated}}, nil
	}

	moduleDocuments := make([]querygen.ModuleDocument, 0, len(documents))
	for _, document := range documents {
		moduleDocuments = append(moduleDocuments, querygen.ModuleDocument{
			Name:      document.file,
			Operation: document.operation,
		})
	}
	module, err := generator.GenerateModule(moduleDocuments, options)
	if err != nil {
		return nil, errors.Wrap(err, "generating")
	}

	outputs := make([]*output, 0, len(documents)+1)
	outputs = append(outputs, &output{file: config.QueryModule, document: module.Types})
	for i, document := range module.Documents {
		outputs = append(outputs, &output{file: documents[i].file, document: document, types: module.Types})
	}
	return outputs, nil
}

// validateDocuments runs the normalization and validation rules of graphql-go-tools on private copies of the documents.
func validateDocuments(schemaBytes []byte, documents []*queryDocument, operationName string) error {
	definition, report := astparser.ParseGraphqlDocumentBytes(schemaBytes)
	if report.HasErrors() {
		return report
	}
	if err := asttransform.MergeDefinitionWithBaseSchema(&definition); err != nil {
		return errors.Wrap(err, "merging base schema")
	}

	normalizer := astnormalization.NewWithOpts(
		astnormalization.WithRemoveFragmentDefinitions(),
		astnormalization.WithInlineFragmentSpreads(),
		astnormalization.WithIgnoreSkipInclude(),
	)
	validator := astvalidation.DefaultOperationValidator()

	for _, document := range documents {
		operation, report := astparser.ParseGraphqlDocumentBytes(document.raw)
		if report.HasErrors() {
			return report
		}
		if operationName != "" {
			normalizer.NormalizeNamedOperation(&operation, &definition, []byte(operationName), &report)
		} else {
			normalizer.NormalizeOperation(&operation, &definition, &report)
		}
		if report.HasErrors() {
			return fmt.Errorf("normalizing %s: %w", document.file, report)
		}

		report = operationreport.Report{}
		validator.Validate(&operation, &definition, &report)
		if report.HasErrors() {
			return fmt.Errorf("validating %s: %w", document.file, report)
		}
	}

	return nil
}

func render(document, types *ir.Document, config generateConfig) ([]byte, error) {
	switch config.Format {
	case formatJSON:
		return json.MarshalIndent(document, "", "  ")
	case formatYAML:
		return yaml.Marshal(document)
	default:
		buf := &bytes.Buffer{}
		_, err := codegen.New(document, codegen.Config{PackageName: config.PackageName, Types: types}).Generate(buf)
		return buf.Bytes(), err
	}
}

func write(outputs []*output, config generateConfig, w io.Writer, logger log.Logger) error {
	if config.Out == stdout {
		for _, out := range outputs {
			if _, err := w.Write(out.rendered); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(config.Out, 0o755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", config.Out)
	}

	for _, out := range outputs {
		if err := os.WriteFile(out.file, out.rendered, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", out.file)
		}
		logger.Info("written",
			log.String("file", out.file),
			log.Int("bytes", len(out.rendered)),
		)
	}

	return nil
}
