package internal

// ColumnKind discriminates how a column's value is produced.
type ColumnKind string

const (
	KindText       ColumnKind = "text"
	KindLongText   ColumnKind = "longtext"
	KindNumber     ColumnKind = "number"
	KindDecimal    ColumnKind = "decimal"
	KindBoolean    ColumnKind = "boolean"
	KindDate       ColumnKind = "date"
	KindDateTime   ColumnKind = "datetime"
	KindBinary     ColumnKind = "binary"
	KindAttachment ColumnKind = "attachment"
	KindLink       ColumnKind = "link"
	KindLookup     ColumnKind = "lookup"
	KindFormula    ColumnKind = "formula"
	KindRollup     ColumnKind = "rollup"
	KindLinksCount ColumnKind = "links"
	KindBarcode    ColumnKind = "barcode"
	KindQRCode     ColumnKind = "qrcode"
	KindCreatedAt  ColumnKind = "createdAt"
	KindUpdatedAt  ColumnKind = "updatedAt"
	KindCreatedBy  ColumnKind = "createdBy"
	KindUpdatedBy  ColumnKind = "updatedBy"
	KindGeneric    ColumnKind = "generic"
)

// ErrValue is the sentinel projected in place of a column whose metadata is
// structurally broken (for example a many-to-many relation whose join table
// cannot be resolved). The row still returns; callers can render the sentinel
// distinctly.
const ErrValue = "#ERR!"

// RelationKind is the cardinality of a link column.
type RelationKind string

const (
	RelationBelongsTo  RelationKind = "bt"
	RelationHasMany    RelationKind = "hm"
	RelationManyToMany RelationKind = "mm"
	RelationOneToOne   RelationKind = "oo"
)

// RelationOptions are carried by link columns and name both sides of the
// relation by id. The resolved form is Relation.
type RelationOptions struct {
	Kind               RelationKind `json:"kind"`
	ParentTableID      string       `json:"parentTableId"`
	ParentColumnID     string       `json:"parentColumnId"`
	ChildTableID       string       `json:"childTableId"`
	ChildColumnID      string       `json:"childColumnId"`
	JoinTableID        string       `json:"joinTableId,omitempty"`
	JoinParentColumnID string       `json:"joinParentColumnId,omitempty"`
	JoinChildColumnID  string       `json:"joinChildColumnId,omitempty"`

	// OwnsForeignKey disambiguates the two one-to-one shapes: when true the
	// column's own table holds the foreign key (belongs-to shape).
	OwnsForeignKey bool `json:"ownsForeignKey,omitempty"`
}

// LookupOptions project a field of a related row through an existing link
// column without creating a new relation.
type LookupOptions struct {
	RelationColumnID string `json:"relationColumnId"`
	TargetColumnID   string `json:"targetColumnId"`
}

// RollupOptions compute an aggregate over a relation's related rows.
type RollupOptions struct {
	RelationColumnID string `json:"relationColumnId"`
	TargetColumnID   string `json:"targetColumnId,omitempty"`
	Func             string `json:"func"`
}

// BarcodeOptions name the column whose value the barcode/qr column renders.
type BarcodeOptions struct {
	ValueColumnID string `json:"valueColumnId"`
}

// FormulaNode is one node of an already-parsed formula expression tree.
type FormulaNode struct {
	// Kind is one of "literal", "column" or "call".
	Kind     string         `json:"kind"`
	Value    any            `json:"value,omitempty"`
	ColumnID string         `json:"columnId,omitempty"`
	Func     string         `json:"func,omitempty"`
	Args     []*FormulaNode `json:"args,omitempty"`
}

// FormulaOptions carry the parsed expression of a formula column. Invalid
// formulas are projected as nothing rather than failing the whole query.
type FormulaOptions struct {
	Tree    *FormulaNode `json:"tree"`
	Invalid bool         `json:"invalid,omitempty"`
}

// Column is one field of a table. Exactly one of the option structs is set
// for the kinds that need one.
type Column struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	StorageName   string     `json:"storageName,omitempty"`
	Kind          ColumnKind `json:"kind"`
	PrimaryKey    bool       `json:"primaryKey,omitempty"`
	Display       bool       `json:"display,omitempty"`
	AutoIncrement bool       `json:"autoIncrement,omitempty"`

	// TimeZoneAware is true when the storage column carries an explicit
	// offset. Naive timestamps are normalized from the session timezone
	// to UTC at projection time.
	TimeZoneAware bool `json:"timeZoneAware,omitempty"`

	Relation *RelationOptions `json:"relation,omitempty"`
	Lookup   *LookupOptions   `json:"lookup,omitempty"`
	Formula  *FormulaOptions  `json:"formula,omitempty"`
	Rollup   *RollupOptions   `json:"rollup,omitempty"`
	Barcode  *BarcodeOptions  `json:"barcode,omitempty"`
}

// IsSystem reports whether the column is one of the duplicable system
// columns whose storage name may be inherited from the canonical one.
func (c *Column) IsSystem() bool {
	switch c.Kind {
	case KindCreatedAt, KindUpdatedAt, KindCreatedBy, KindUpdatedBy:
		return true
	}
	return false
}

// Table is an ordered set of columns with one or more primary keys and a
// human display column.
type Table struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StorageName string    `json:"storageName"`
	MetaVersion string    `json:"metaVersion,omitempty"`
	Columns     []*Column `json:"columns"`
}

// PrimaryKeys returns the primary key columns in declaration order.
func (t *Table) PrimaryKeys() []*Column {
	var pks []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// DisplayColumn returns the table's display column, falling back to the
// first primary key when none is flagged.
func (t *Table) DisplayColumn() *Column {
	for _, c := range t.Columns {
		if c.Display {
			return c
		}
	}
	if pks := t.PrimaryKeys(); len(pks) > 0 {
		return pks[0]
	}
	return nil
}

// ColumnByID returns the column with the given id or nil.
func (t *Table) ColumnByID(id string) *Column {
	for _, c := range t.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ColumnByTitle returns the column with the given display title or nil.
func (t *Table) ColumnByTitle(title string) *Column {
	for _, c := range t.Columns {
		if c.Title == title {
			return c
		}
	}
	return nil
}

// SystemStorageName resolves the true storage name for a system column:
// duplicated system columns inherit the storage of the canonical column of
// the same kind.
func (t *Table) SystemStorageName(c *Column) string {
	if c.StorageName != "" {
		return c.StorageName
	}
	for _, other := range t.Columns {
		if other.Kind == c.Kind && other.StorageName != "" {
			return other.StorageName
		}
	}
	return ""
}

// View is an ordering/visibility projection over a table, with a persisted
// filter tree and sort list that apply to any read through it.
type View struct {
	ID          string    `json:"id"`
	TableID     string    `json:"tableId"`
	Name        string    `json:"name"`
	MetaVersion string    `json:"metaVersion,omitempty"`
	ColumnIDs   []string  `json:"columnIds,omitempty"` // visible columns, ordered; empty means all
	Filters     []*Filter `json:"filters,omitempty"`
	Sorts       []*Sort   `json:"sorts,omitempty"`
}

// Visible reports whether the view shows the given column.
func (v *View) Visible(columnID string) bool {
	if v == nil || len(v.ColumnIDs) == 0 {
		return true
	}
	for _, id := range v.ColumnIDs {
		if id == columnID {
			return true
		}
	}
	return false
}

// LogicalOp joins filter-group children.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// Filter is a predicate tree node: either a leaf (column, comparator,
// operand) or a group (logical op over children). Groups nest arbitrarily.
type Filter struct {
	Op       LogicalOp `json:"op,omitempty"`
	Children []*Filter `json:"children,omitempty"`

	ColumnID   string `json:"columnId,omitempty"`
	Comparator string `json:"comparator,omitempty"`
	Value      any    `json:"value,omitempty"`
}

// IsGroup reports whether the node is a logical group.
func (f *Filter) IsGroup() bool {
	return len(f.Children) > 0 || f.Op != ""
}

// Sort orders by one column.
type Sort struct {
	ColumnID  string `json:"columnId"`
	Direction string `json:"direction,omitempty"` // "asc" (default) or "desc"
}

// Descending reports whether the sort direction is descending.
func (s *Sort) Descending() bool {
	return s.Direction == "desc"
}

// Relation is the resolved form of a link column's RelationOptions: both
// sides as live table/column objects. The child side always holds the
// foreign key referencing the parent side.
type Relation struct {
	Kind         RelationKind
	ParentTable  *Table
	ParentColumn *Column
	ChildTable   *Table
	ChildColumn  *Column

	// many-to-many only
	JoinTable        *Table
	JoinParentColumn *Column
	JoinChildColumn  *Column

	// one-to-one orientation, copied from the column flag
	OwnsForeignKey bool
}

// Plural reports whether the relation yields 0..N related rows.
func (r *Relation) Plural() bool {
	switch r.Kind {
	case RelationHasMany, RelationManyToMany:
		return true
	}
	return false
}

// MetadataStore is the read-only metadata collaborator. Implementations
// serve already-cached objects; structural changes must bump MetaVersion.
type MetadataStore interface {

	// GetTable returns the table with the given id.
	GetTable(id string) (*Table, error)

	// GetColumns returns the columns of a table in declaration order.
	GetColumns(tableID string) ([]*Column, error)

	// GetView returns the view with the given id.
	GetView(id string) (*View, error)

	// GetRelation resolves the relation details of a link column.
	GetRelation(col *Column) (*Relation, error)

	// RootFilters returns the persisted filter tree of a view.
	RootFilters(viewID string) ([]*Filter, error)

	// Sorts returns the persisted sort list of a view.
	Sorts(viewID string) ([]*Sort, error)
}
