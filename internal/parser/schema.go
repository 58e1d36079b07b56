package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/types"
	"github.com/tobsdb/jqldb/pkg"
)

// Table declarations look like:
//
//	$TABLE users {
//	    id int primary_key auto_increment
//	    name string max_length(30) default('anon')
//	    team link(teams.id)
//	}

type LineParserState int

const (
	ParserStateTableStart LineParserState = iota
	ParserStateTableEnd
	ParserStateNewField
	ParserStateIdle
)

type ParserData struct {
	Name       string
	Type       string
	Properties map[props.FieldProp]string
}

const (
	table_prefix     = "$TABLE "
	table_prefix_len = len(table_prefix)
)

var tableNameRe = regexp.MustCompile(`^\w+$`)

func LineParser(line string) (LineParserState, *ParserData, error) {
	if strings.HasPrefix(line, table_prefix) {
		line := line[table_prefix_len:]
		name_end := strings.Index(line, " ")

		if name_end > 0 {
			open_bracket := strings.TrimSpace(line[name_end:])
			if open_bracket != "{" {
				return ParserStateIdle, nil, errors.New("Table name cannot include space")
			}
			name := line[:name_end]
			if !tableNameRe.MatchString(name) {
				return ParserStateIdle, nil, errors.New("Table name contains invalid characters")
			}
			return ParserStateTableStart, &ParserData{Name: name}, nil
		}
	} else if line == "}" {
		return ParserStateTableEnd, nil, nil
	} else {
		splits := strings.Split(line, " ")
		splits = pkg.Filter(splits, func(s string) bool { return len(s) > 0 })
		if len(splits) < 2 {
			return ParserStateIdle, nil, errors.New("Invalid line")
		}
		if !IsIdentifier(splits[0]) || props.IsReserved(splits[0]) {
			return ParserStateIdle, nil, fmt.Errorf("Invalid column name: %s", splits[0])
		}
		if err := validateFieldType(splits[1]); err != nil {
			return ParserStateIdle, nil, err
		}

		raw_field_props := strings.Join(splits[2:], " ")
		field_props, err := parseRawFieldProps(raw_field_props)
		if err != nil {
			return ParserStateIdle, nil, err
		}

		return ParserStateNewField, &ParserData{
			Name:       splits[0],
			Type:       splits[1],
			Properties: field_props,
		}, nil
	}
	return ParserStateIdle, nil, errors.New("Invalid line")
}

// props are either flags (not_null) or take a value (max_length(30))
var fieldPropRe = regexp.MustCompile(`(\w+)(?:\(((?:'[^']*'|[^)])*)\))?`)

func parseRawFieldProps(raw string) (map[props.FieldProp]string, error) {
	field_props := make(map[props.FieldProp]string)

	for _, m := range fieldPropRe.FindAllStringSubmatch(raw, -1) {
		prop, value := props.FieldProp(m[1]), m[2]
		if !prop.IsValid() || prop == props.FieldPropType {
			return nil, fmt.Errorf("Invalid field prop: %s", prop)
		}
		if value == "" {
			value = "true"
		}
		field_props[prop] = value
	}

	return field_props, nil
}

func validateFieldType(declared string) error {
	builtin_type := types.BaseType(declared)
	if !builtin_type.IsValid() {
		return fmt.Errorf("Invalid field type: %s", declared)
	}
	if builtin_type == types.FieldTypeLink {
		if _, _, err := props.ParseLinkPropSafe(declared); err != nil {
			return err
		}
	}
	return nil
}

// TableDecl is one parsed $TABLE block; columns keep declaration order.
type TableDecl struct {
	Name    string
	Columns []*ParserData
}

// ParseSchema parses a whole declaration file.
func ParseSchema(text string) ([]*TableDecl, error) {
	decls := []*TableDecl{}
	var current *TableDecl
	seen := map[string]bool{}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// Ignore empty lines & comments
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}

		state, data, err := LineParser(line)
		if err != nil {
			return nil, ParseLineError(i+1, err.Error())
		}

		switch state {
		case ParserStateTableStart:
			if current != nil {
				return nil, ParseLineError(i+1, "Nested table declaration")
			}
			if seen[data.Name] {
				return nil, ParseLineError(i+1, fmt.Sprintf("Duplicate table %s", data.Name))
			}
			seen[data.Name] = true
			current = &TableDecl{Name: data.Name}
		case ParserStateTableEnd:
			if current == nil {
				return nil, ParseLineError(i+1, "Unexpected }")
			}
			decls = append(decls, current)
			current = nil
		case ParserStateNewField:
			if current == nil {
				return nil, ParseLineError(i+1, "Column declared outside of a table")
			}
			for _, c := range current.Columns {
				if c.Name == data.Name {
					return nil, ParseLineError(i+1, fmt.Sprintf("Duplicate field %s", data.Name))
				}
			}
			current.Columns = append(current.Columns, data)
		}
	}
	if current != nil {
		return nil, fmt.Errorf("Table %s is never closed", current.Name)
	}
	return decls, nil
}

func ParseLineError(line int, reason string) error {
	return fmt.Errorf("Error parsing line %d: %s", line, reason)
}
