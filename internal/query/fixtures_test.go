package query

import (
	"testing"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/registry"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/require"
)

const testMetadata = `{
	"tables": [
		{
			"id": "tbl_orders",
			"name": "Orders",
			"storageName": "orders",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_ord_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true, "autoIncrement": true},
				{"id": "c_ord_title", "title": "Title", "storageName": "title", "kind": "text", "display": true},
				{"id": "c_ord_created", "title": "CreatedAt", "storageName": "created_at", "kind": "createdAt"},
				{"id": "c_ord_shipped", "title": "ShippedAt", "storageName": "shipped_at", "kind": "datetime"},
				{"id": "c_ord_photo", "title": "Photo", "storageName": "photo", "kind": "binary"},
				{"id": "c_ord_customer_id", "title": "CustomerId", "storageName": "customer_id", "kind": "number"},
				{"id": "c_ord_customer", "title": "Customer", "kind": "link", "relation": {
					"kind": "bt",
					"parentTableId": "tbl_customers", "parentColumnId": "c_cus_id",
					"childTableId": "tbl_orders", "childColumnId": "c_ord_customer_id"
				}},
				{"id": "c_ord_items", "title": "Items", "kind": "link", "relation": {
					"kind": "hm",
					"parentTableId": "tbl_orders", "parentColumnId": "c_ord_id",
					"childTableId": "tbl_items", "childColumnId": "c_item_order"
				}},
				{"id": "c_ord_tags", "title": "Tags", "kind": "link", "relation": {
					"kind": "mm",
					"parentTableId": "tbl_orders", "parentColumnId": "c_ord_id",
					"childTableId": "tbl_tags", "childColumnId": "c_tag_id",
					"joinTableId": "tbl_order_tags",
					"joinParentColumnId": "c_jt_order", "joinChildColumnId": "c_jt_tag"
				}},
				{"id": "c_ord_broken", "title": "BrokenTags", "kind": "link", "relation": {
					"kind": "mm",
					"parentTableId": "tbl_orders", "parentColumnId": "c_ord_id",
					"childTableId": "tbl_tags", "childColumnId": "c_tag_id"
				}},
				{"id": "c_ord_cusname", "title": "CustomerName", "kind": "lookup", "lookup": {
					"relationColumnId": "c_ord_customer", "targetColumnId": "c_cus_name"
				}},
				{"id": "c_ord_tagnames", "title": "TagNames", "kind": "lookup", "lookup": {
					"relationColumnId": "c_ord_tags", "targetColumnId": "c_tag_name"
				}},
				{"id": "c_ord_itemcount", "title": "ItemCount", "kind": "links", "rollup": {
					"relationColumnId": "c_ord_items", "func": "count"
				}},
				{"id": "c_ord_itemtotal", "title": "ItemTotal", "kind": "rollup", "rollup": {
					"relationColumnId": "c_ord_items", "targetColumnId": "c_item_price", "func": "sum"
				}},
				{"id": "c_ord_upper", "title": "TitleUpper", "kind": "formula", "formula": {
					"tree": {"kind": "call", "func": "UPPER", "args": [{"kind": "column", "columnId": "c_ord_title"}]}
				}},
				{"id": "c_ord_badformula", "title": "BadFormula", "kind": "formula", "formula": {
					"tree": {"kind": "call", "func": "UPPER", "args": [{"kind": "column", "columnId": "c_ord_title"}]},
					"invalid": true
				}},
				{"id": "c_ord_barcode", "title": "TitleBarcode", "kind": "barcode", "barcode": {
					"valueColumnId": "c_ord_title"
				}}
			]
		},
		{
			"id": "tbl_customers",
			"name": "Customers",
			"storageName": "customers",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_cus_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true},
				{"id": "c_cus_name", "title": "Name", "storageName": "name", "kind": "text", "display": true}
			]
		},
		{
			"id": "tbl_tags",
			"name": "Tags",
			"storageName": "tags",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_tag_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true},
				{"id": "c_tag_name", "title": "Name", "storageName": "name", "kind": "text", "display": true},
				{"id": "c_tag_active", "title": "Active", "storageName": "active", "kind": "boolean"}
			]
		},
		{
			"id": "tbl_items",
			"name": "Items",
			"storageName": "items",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_item_id", "title": "Id", "storageName": "id", "kind": "number", "primaryKey": true},
				{"id": "c_item_name", "title": "Name", "storageName": "name", "kind": "text", "display": true},
				{"id": "c_item_order", "title": "OrderId", "storageName": "order_id", "kind": "number"},
				{"id": "c_item_price", "title": "Price", "storageName": "price", "kind": "decimal"}
			]
		},
		{
			"id": "tbl_order_tags",
			"name": "OrderTags",
			"storageName": "order_tags",
			"metaVersion": "v1",
			"columns": [
				{"id": "c_jt_order", "title": "OrderId", "storageName": "order_id", "kind": "number"},
				{"id": "c_jt_tag", "title": "TagId", "storageName": "tag_id", "kind": "number"}
			]
		}
	],
	"views": [
		{
			"id": "v_orders_main",
			"tableId": "tbl_orders",
			"name": "Main",
			"metaVersion": "v1",
			"filters": [{"columnId": "c_ord_title", "comparator": "notempty"}],
			"sorts": [{"columnId": "c_ord_id", "direction": "desc"}]
		}
	]
}`

func testMeta(t *testing.T) *registry.FileRegistry {
	t.Helper()
	meta, err := registry.NewRegistryFromBytes([]byte(testMetadata))
	require.NoError(t, err)
	return meta
}

func testEngine(t *testing.T, cfg Config) (*Engine, *internal.Table, *internal.View) {
	t.Helper()
	meta := testMeta(t)
	if cfg.Meta == nil {
		cfg.Meta = meta
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewTestLogger()
	}
	e := New(cfg)
	table, err := meta.GetTable("tbl_orders")
	require.NoError(t, err)
	view, err := meta.GetView("v_orders_main")
	require.NoError(t, err)
	return e, table, view
}
