package types

import (
	"slices"
	"strings"
)

var VALID_BUILTIN_TYPES = []FieldType{
	FieldTypeBool, FieldTypeInt, FieldTypeFloat,
	FieldTypeString, FieldTypeChar, FieldTypeArray, FieldTypeLink,
}

type FieldType string

const (
	FieldTypeBool   FieldType = "bool"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeString FieldType = "string"
	FieldTypeChar   FieldType = "char"
	FieldTypeArray  FieldType = "array"
	FieldTypeLink   FieldType = "link" // link(table.column)
)

func (t FieldType) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_TYPES, t)
}

// BaseType strips the arguments of a declared type: "link(a.b)" is a link.
func BaseType(declared string) FieldType {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if strings.HasPrefix(declared, string(FieldTypeLink)+"(") {
		return FieldTypeLink
	}
	return FieldType(declared)
}

// HasMaxLength reports whether max_length is meaningful for the type.
func (t FieldType) HasMaxLength() bool {
	return t == FieldTypeString || t == FieldTypeFloat
}
