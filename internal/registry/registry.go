package registry

import (
	"fmt"

	"github.com/gridbase/gridbase/internal"
)

// resolveRelation builds the live Relation for a link column from a table
// lookup function. Shared by every registry implementation.
func resolveRelation(col *internal.Column, getTable func(id string) *internal.Table) (*internal.Relation, error) {
	opts := col.Relation
	if opts == nil {
		return nil, fmt.Errorf("column %q is not a link column", col.Title)
	}
	rel := &internal.Relation{
		Kind:           opts.Kind,
		OwnsForeignKey: opts.OwnsForeignKey,
	}
	rel.ParentTable = getTable(opts.ParentTableID)
	rel.ChildTable = getTable(opts.ChildTableID)
	if rel.ParentTable == nil || rel.ChildTable == nil {
		return nil, fmt.Errorf("relation on column %q references an unknown table", col.Title)
	}
	rel.ParentColumn = rel.ParentTable.ColumnByID(opts.ParentColumnID)
	rel.ChildColumn = rel.ChildTable.ColumnByID(opts.ChildColumnID)
	if rel.ParentColumn == nil || rel.ChildColumn == nil {
		return nil, fmt.Errorf("relation on column %q references an unknown column", col.Title)
	}
	if opts.Kind == internal.RelationManyToMany {
		// a missing join table is reported to the caller, which degrades
		// that one column instead of failing the row
		rel.JoinTable = getTable(opts.JoinTableID)
		if rel.JoinTable != nil {
			rel.JoinParentColumn = rel.JoinTable.ColumnByID(opts.JoinParentColumnID)
			rel.JoinChildColumn = rel.JoinTable.ColumnByID(opts.JoinChildColumnID)
		}
	}
	return rel, nil
}
