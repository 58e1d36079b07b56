package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/types"
	"github.com/tobsdb/jqldb/pkg"
)

type Column struct {
	Name          string      `json:"-"`
	Type          string      `json:"type"`
	Default       types.Value `json:"default"`
	MaxLength     *int64      `json:"max_length"`
	NotNull       bool        `json:"not_null"`
	PrimaryKey    bool        `json:"primary_key"`
	UniqueKey     bool        `json:"unique_key"`
	AutoIncrement bool        `json:"auto_increment"`
}

func (c *Column) BaseType() types.FieldType { return types.BaseType(c.Type) }

func (c *Column) HasDefault() bool { return !c.Default.IsNull() }

// IsKey reports whether values of the column must be unique on their own or
// as part of the primary key.
func (c *Column) IsKey() bool { return c.PrimaryKey || c.UniqueKey || c.AutoIncrement }

// Link returns the target of a link column.
func (c *Column) Link() (table, column string, ok bool) {
	if c.BaseType() != types.FieldTypeLink {
		return "", "", false
	}
	table, column, err := props.ParseLinkPropSafe(c.Type)
	return table, column, err == nil
}

type Columns = pkg.InsertSortMap[string, *Column]

type Properties struct {
	Columns        *Columns
	LastInsertId   int64
	LastValidRowId int64
	LastLinkId     int64
	PrimaryKeys    []string
	UniqueKeys     []string
}

func NewProperties() *Properties {
	return &Properties{
		Columns:     pkg.NewInsertSortMap[string, *Column](),
		PrimaryKeys: []string{},
		UniqueKeys:  []string{},
	}
}

// AutoIncrement returns the auto_increment column, if any.
func (p *Properties) AutoIncrement() *Column {
	for _, name := range p.Columns.Sorted {
		if col := p.Columns.Get(name); col.AutoIncrement {
			return col
		}
	}
	return nil
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}

	for _, name := range p.Columns.Sorted {
		if err := write(name, p.Columns.Get(name)); err != nil {
			return nil, err
		}
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{props.TablePropLastInsertId, p.LastInsertId},
		{props.TablePropLastValidRowId, p.LastValidRowId},
		{props.TablePropLastLinkId, p.LastLinkId},
		{props.TablePropPrimaryKeys, p.PrimaryKeys},
		{props.TablePropUniqueKeys, p.UniqueKeys},
	} {
		if err := write(kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = *NewProperties()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return errors.New("properties must be an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		switch key {
		case props.TablePropLastInsertId:
			err = dec.Decode(&p.LastInsertId)
		case props.TablePropLastValidRowId:
			err = dec.Decode(&p.LastValidRowId)
		case props.TablePropLastLinkId:
			err = dec.Decode(&p.LastLinkId)
		case props.TablePropPrimaryKeys:
			err = dec.Decode(&p.PrimaryKeys)
		case props.TablePropUniqueKeys:
			err = dec.Decode(&p.UniqueKeys)
		default:
			col := &Column{}
			if err = dec.Decode(col); err == nil {
				col.Name = key
				p.Columns.Set(key, col)
			}
		}
		if err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	_, err := dec.Token()
	return err
}

// Document is the persisted form of a table.
type Document struct {
	Prototype  []string    `json:"prototype"`
	Properties *Properties `json:"properties"`
	Data       *Rows       `json:"data"`
}

func NewDocument() *Document {
	return &Document{
		Prototype:  []string{props.RowIdColumn},
		Properties: NewProperties(),
		Data:       NewRows(),
	}
}

// Column returns the schema of a prototype column; #rowid has none.
func (d *Document) Column(name string) (*Column, bool) {
	return d.Properties.Columns.Lookup(name)
}

// UserColumns is the prototype without #rowid.
func (d *Document) UserColumns() []string {
	return pkg.Filter(d.Prototype, func(c string) bool { return c != props.RowIdColumn })
}

func (d *Document) HasColumn(name string) bool {
	for _, c := range d.Prototype {
		if c == name {
			return true
		}
	}
	return false
}

func Encode(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

func Decode(data []byte) (*Document, error) {
	d := &Document{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}
	if len(d.Prototype) == 0 || d.Prototype[0] != props.RowIdColumn {
		return nil, fmt.Errorf("prototype must start with %s", props.RowIdColumn)
	}
	if d.Properties == nil {
		d.Properties = NewProperties()
	}
	if d.Data == nil {
		d.Data = NewRows()
	}
	return d, nil
}

// ReadTableFile returns the raw bytes of a table file.
func ReadTableFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Schema(errs.NoSuchTable, "No such table file %s", path)
		}
		return nil, errs.IO(errs.ReadFailed, err, "failed to read %s", path)
	}
	return data, nil
}

// GetTableData reads and decodes a table file, bypassing any cache.
func GetTableData(path string) (*Document, error) {
	data, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Decode(data)
	if err != nil {
		return nil, errs.IO(errs.ReadFailed, err, "corrupt table file %s", path)
	}
	return d, nil
}

func WriteTableFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to write %s", path)
	}
	return nil
}

func WriteTableData(path string, d *Document) error {
	data, err := Encode(d)
	if err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to encode %s", path)
	}
	return WriteTableFile(path, data)
}
