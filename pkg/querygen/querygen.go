// Package querygen turns a GraphQL schema and a query document into a dependency-ordered ir.Document.
//
// The pipeline runs in stages: the operations are normalized against a type index of the schema,
// input objects, enums and custom scalars are extracted, all descriptors are named and
// finally sorted so that every descriptor follows the ones it references.
package querygen

import (
	"strconv"

	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"

	"github.com/wundergraph/graphql-querygen/pkg/ir"
	"github.com/wundergraph/graphql-querygen/pkg/normalization"
	"github.com/wundergraph/graphql-querygen/pkg/typeindex"
)

const (
	DefaultSchemaPath  = "schema.graphql"
	DefaultQueryModule = "query_dsl"
)

type Options struct {
	// SchemaPath is echoed into the generated document.
	SchemaPath string
	// QueryModule qualifies schema derived declarations for emitters that place them in a separate module.
	QueryModule string
	// OperationName restricts generation to one operation of the query document.
	OperationName string
	Logger        log.Logger
}

func (o *Options) setDefaults() {
	if o.SchemaPath == "" {
		o.SchemaPath = DefaultSchemaPath
	}
	if o.QueryModule == "" {
		o.QueryModule = DefaultQueryModule
	}
	if o.Logger == nil {
		o.Logger = log.NoopLogger
	}
}

// Generator generates documents for query documents against one schema.
// It is safe for concurrent use.
type Generator struct {
	index *typeindex.Index
}

func New(definition *ast.Document) *Generator {
	return &Generator{
		index: typeindex.FromSchema(definition),
	}
}

// Generate is a shorthand for New(definition).Generate(operation, options).
func Generate(definition, operation *ast.Document, options Options) (*ir.Document, error) {
	return New(definition).Generate(operation, options)
}

func (g *Generator) Generate(operation *ast.Document, options Options) (*ir.Document, error) {
	options.setDefaults()

	normalized, err := normalization.Normalize(g.index, operation, normalization.Options{
		OperationName: options.OperationName,
		Logger:        options.Logger,
	})
	if err != nil {
		return nil, err
	}

	document := newDocument(options)
	b := newBuilder(g.index, document)
	if err := b.schemaTypes(normalized); err != nil {
		return nil, err
	}
	b.operations("", normalized)

	options.Logger.Debug("Generator.Generate",
		log.Int("operations", len(normalized.Operations)),
		log.Int("queryFragments", len(document.QueryFragments)),
		log.Int("inputObjects", len(document.InputObjects)),
		log.Int("enums", len(document.Enums)),
		log.Int("scalars", len(document.Scalars)),
		log.Int("argumentStructs", len(document.ArgumentStructs)),
	)

	return document, nil
}

// ModuleDocument is one query document of a module. Name identifies it in errors.
type ModuleDocument struct {
	Name      string
	Operation *ast.Document
}

// GenerateModule generates several query documents into one namespace.
// Schema derived descriptors used by any of the documents are generated once into Module.Types,
// every document of the module holds its query fragments and argument structs only.
// Equal selection sets of different documents share one fragment, which lives in the document that selected it first.
func (g *Generator) GenerateModule(documents []ModuleDocument, options Options) (*ir.Module, error) {
	options.setDefaults()

	normalized := make([]*normalization.Document, len(documents))
	combined := &normalization.Document{}
	for i, document := range documents {
		var err error
		normalized[i], err = normalization.Normalize(g.index, document.Operation, normalization.Options{
			OperationName: options.OperationName,
			Logger:        options.Logger,
		})
		if err != nil {
			return nil, errors.Wrap(err, document.Name)
		}
		combined.Operations = append(combined.Operations, normalized[i].Operations...)
	}

	module := &ir.Module{
		Types:     newDocument(options),
		Documents: make([]*ir.Document, 0, len(documents)),
	}
	b := newBuilder(g.index, module.Types)
	if err := b.schemaTypes(combined); err != nil {
		return nil, err
	}

	for i := range normalized {
		b.document = newDocument(options)
		b.operations(strconv.Itoa(i)+"/", normalized[i])
		module.Documents = append(module.Documents, b.document)
	}

	options.Logger.Debug("Generator.GenerateModule",
		log.Int("documents", len(module.Documents)),
		log.Int("inputObjects", len(module.Types.InputObjects)),
		log.Int("enums", len(module.Types.Enums)),
		log.Int("scalars", len(module.Types.Scalars)),
	)

	return module, nil
}

func newDocument(options Options) *ir.Document {
	return &ir.Document{
		SchemaPath:      options.SchemaPath,
		QueryModule:     options.QueryModule,
		QueryFragments:  []*ir.QueryFragment{},
		InputObjects:    []*ir.InputObject{},
		Enums:           []*ir.Enum{},
		Scalars:         []*ir.Scalar{},
		ArgumentStructs: []*ir.ArgumentStruct{},
	}
}
