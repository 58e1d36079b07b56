package props

import "slices"

type FieldProp string

var VALID_BUILTIN_PROPS = []FieldProp{
	FieldPropType, FieldPropDefault, FieldPropMaxLength, FieldPropNotNull,
	FieldPropPrimaryKey, FieldPropUniqueKey, FieldPropAutoIncrement,
}

const (
	FieldPropType          FieldProp = "type" // type(int) or link(table.column)
	FieldPropDefault       FieldProp = "default"
	FieldPropMaxLength     FieldProp = "max_length"
	FieldPropNotNull       FieldProp = "not_null"
	FieldPropPrimaryKey    FieldProp = "primary_key"
	FieldPropUniqueKey     FieldProp = "unique_key"
	FieldPropAutoIncrement FieldProp = "auto_increment"
)

func (p FieldProp) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_PROPS, p)
}

// table level entries of the properties document
const (
	TablePropLastInsertId   = "last_insert_id"
	TablePropLastValidRowId = "last_valid_row_id"
	TablePropLastLinkId     = "last_link_id"
	TablePropPrimaryKeys    = "primary_keys"
	TablePropUniqueKeys     = "unique_keys"
)

var RESERVED_NAMES = []string{
	TablePropLastInsertId, TablePropLastValidRowId, TablePropLastLinkId,
	TablePropPrimaryKeys, TablePropUniqueKeys,
}

// RowIdColumn is the synthetic first column of every prototype.
const RowIdColumn = "#rowid"

func IsReserved(name string) bool {
	return name == RowIdColumn || slices.Contains(RESERVED_NAMES, name)
}
