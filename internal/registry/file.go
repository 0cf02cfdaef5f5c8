package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	js "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// Document is the on-disk metadata format: every table and view of one base.
type Document struct {
	Tables []*internal.Table `json:"tables"`
	Views  []*internal.View  `json:"views,omitempty"`
}

// FileRegistry serves table/view metadata from a JSON document. All objects
// are loaded once; reads are pure lookups against cached objects.
type FileRegistry struct {
	tables map[string]*internal.Table
	views  map[string]*internal.View
}

var _ internal.MetadataStore = (*FileRegistry)(nil)

// GetTable returns the table with the given id.
func (r *FileRegistry) GetTable(id string) (*internal.Table, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", id)
	}
	return t, nil
}

// GetColumns returns the columns of a table in declaration order.
func (r *FileRegistry) GetColumns(tableID string) ([]*internal.Column, error) {
	t, err := r.GetTable(tableID)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// GetView returns the view with the given id.
func (r *FileRegistry) GetView(id string) (*internal.View, error) {
	v, ok := r.views[id]
	if !ok {
		return nil, fmt.Errorf("unknown view: %s", id)
	}
	return v, nil
}

// GetRelation resolves the relation details of a link column.
func (r *FileRegistry) GetRelation(col *internal.Column) (*internal.Relation, error) {
	return resolveRelation(col, func(id string) *internal.Table {
		return r.tables[id]
	})
}

// RootFilters returns the persisted filter tree of a view.
func (r *FileRegistry) RootFilters(viewID string) ([]*internal.Filter, error) {
	v, err := r.GetView(viewID)
	if err != nil {
		return nil, err
	}
	return v.Filters, nil
}

// Sorts returns the persisted sort list of a view.
func (r *FileRegistry) Sorts(viewID string) ([]*internal.Sort, error) {
	v, err := r.GetView(viewID)
	if err != nil {
		return nil, err
	}
	return v.Sorts, nil
}

// documentSchema validates the structural shape of a metadata document
// before decoding. Column kinds and per-kind options are checked by the
// compiler itself; the schema guards the parts that would otherwise fail
// silently.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["tables"],
	"properties": {
		"tables": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "storageName", "columns"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"storageName": {"type": "string", "minLength": 1},
					"metaVersion": {"type": "string"},
					"columns": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "title", "kind"],
							"properties": {
								"id": {"type": "string", "minLength": 1},
								"title": {"type": "string", "minLength": 1},
								"kind": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		},
		"views": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "tableId"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"tableId": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// ValidateDocument checks a metadata document against the registry schema.
func ValidateDocument(data []byte) error {
	compiler := js.NewCompiler()
	if err := compiler.AddResource("metadata.json", strings.NewReader(documentSchema)); err != nil {
		return fmt.Errorf("error compiling metadata schema: %w", err)
	}
	schema, err := compiler.Compile("metadata.json")
	if err != nil {
		return fmt.Errorf("error compiling metadata schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding metadata document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid metadata document: %w", err)
	}
	return nil
}

// NewFileRegistry creates a metadata store from a JSON document on disk.
func NewFileRegistry(filename string) (*FileRegistry, error) {
	if !util.Exists(filename) {
		return nil, fmt.Errorf("metadata file does not exist: %s", filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading metadata file: %w", err)
	}
	return NewRegistryFromBytes(data)
}

// NewRegistryFromBytes creates a metadata store from an in-memory document.
func NewRegistryFromBytes(data []byte) (*FileRegistry, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding metadata document: %w", err)
	}
	r := &FileRegistry{
		tables: make(map[string]*internal.Table),
		views:  make(map[string]*internal.View),
	}
	for _, t := range doc.Tables {
		r.tables[t.ID] = t
	}
	for _, v := range doc.Views {
		r.views[v.ID] = v
	}
	return r, nil
}
