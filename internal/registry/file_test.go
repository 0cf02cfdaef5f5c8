package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gridbase/gridbase/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `{
	"tables": [
		{
			"id": "tbl_a",
			"name": "A",
			"storageName": "a",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_a_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true},
				{"id": "c_a_name", "title": "Name", "storageName": "name", "kind": "text", "display": true},
				{"id": "c_a_bs", "title": "Bs", "kind": "link", "relation": {
					"kind": "hm",
					"parentTableId": "tbl_a", "parentColumnId": "c_a_id",
					"childTableId": "tbl_b", "childColumnId": "c_b_a"
				}},
				{"id": "c_a_bad", "title": "Bad", "kind": "link", "relation": {
					"kind": "hm",
					"parentTableId": "tbl_a", "parentColumnId": "c_a_id",
					"childTableId": "tbl_missing", "childColumnId": "c_b_a"
				}}
			]
		},
		{
			"id": "tbl_b",
			"name": "B",
			"storageName": "b",
			"columns": [
				{"id": "c_b_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true},
				{"id": "c_b_a", "title": "AId", "storageName": "a_id", "kind": "number"}
			]
		}
	],
	"views": [
		{
			"id": "v_a",
			"tableId": "tbl_a",
			"name": "Main",
			"filters": [{"columnId": "c_a_name", "comparator": "notnull"}],
			"sorts": [{"columnId": "c_a_id", "direction": "desc"}]
		}
	]
}`

func TestRegistryLookups(t *testing.T) {
	r, err := NewRegistryFromBytes([]byte(testDocument))
	require.NoError(t, err)

	table, err := r.GetTable("tbl_a")
	require.NoError(t, err)
	assert.Equal(t, "a", table.StorageName)

	cols, err := r.GetColumns("tbl_a")
	require.NoError(t, err)
	assert.Len(t, cols, 4)

	view, err := r.GetView("v_a")
	require.NoError(t, err)
	assert.Equal(t, "tbl_a", view.TableID)

	_, err = r.GetTable("nope")
	assert.Error(t, err)
	_, err = r.GetView("nope")
	assert.Error(t, err)
}

func TestRegistryResolveRelation(t *testing.T) {
	r, err := NewRegistryFromBytes([]byte(testDocument))
	require.NoError(t, err)
	table, err := r.GetTable("tbl_a")
	require.NoError(t, err)

	rel, err := r.GetRelation(table.ColumnByID("c_a_bs"))
	require.NoError(t, err)
	assert.Equal(t, internal.RelationHasMany, rel.Kind)
	assert.Equal(t, "tbl_a", rel.ParentTable.ID)
	assert.Equal(t, "tbl_b", rel.ChildTable.ID)
	assert.Equal(t, "a_id", rel.ChildColumn.StorageName)
	assert.True(t, rel.Plural())
}

func TestRegistryResolveRelationErrors(t *testing.T) {
	r, err := NewRegistryFromBytes([]byte(testDocument))
	require.NoError(t, err)
	table, err := r.GetTable("tbl_a")
	require.NoError(t, err)

	_, err = r.GetRelation(table.ColumnByID("c_a_bad"))
	assert.Error(t, err, "relation to a missing table must not resolve")

	_, err = r.GetRelation(table.ColumnByID("c_a_name"))
	assert.Error(t, err, "a plain column has no relation")
}

func TestViewFiltersAndSorts(t *testing.T) {
	r, err := NewRegistryFromBytes([]byte(testDocument))
	require.NoError(t, err)

	filters, err := r.RootFilters("v_a")
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "notnull", filters[0].Comparator)

	sorts, err := r.Sorts("v_a")
	require.NoError(t, err)
	require.Len(t, sorts, 1)
	assert.True(t, sorts[0].Descending())
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument([]byte(testDocument)))
	assert.Error(t, ValidateDocument([]byte(`{}`)), "tables is required")
	assert.Error(t, ValidateDocument([]byte(`{"tables":[{"id":"t"}]}`)), "table shape is required")
	assert.Error(t, ValidateDocument([]byte(`not json`)))
}

func TestNewFileRegistry(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(filename, []byte(testDocument), 0644))

	r, err := NewFileRegistry(filename)
	require.NoError(t, err)
	_, err = r.GetTable("tbl_a")
	assert.NoError(t, err)

	_, err = NewFileRegistry(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
