package schema

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/tobsdb/jqldb/internal/types"
	sorted "github.com/tobshub/go-sortedmap"
)

// Row maps column name to its stored value, in prototype order.
type Row = types.Object

type Entry struct {
	LinkID int64
	Row    *Row
}

func entryComparisonFunc(a, b *Entry) bool {
	return a.LinkID < b.LinkID
}

// Rows maps link-id to its row and iterates in link-id order.
type Rows struct {
	Map *sorted.SortedMap[int64, *Entry]
}

func NewRows() *Rows {
	return &Rows{sorted.New[int64, *Entry](0, entryComparisonFunc)}
}

func LinkKey(id int64) string { return "#" + strconv.FormatInt(id, 10) }

func ParseLinkKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, "#")
	if !ok {
		return 0, fmt.Errorf("Invalid link id %q", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("Invalid link id %q", key)
	}
	return id, nil
}

func (r *Rows) Insert(id int64, row *Row) bool {
	return r.Map.Insert(id, &Entry{LinkID: id, Row: row})
}

func (r *Rows) Get(id int64) (*Row, bool) {
	e, ok := r.Map.Get(id)
	if !ok {
		return nil, false
	}
	return e.Row, true
}

func (r *Rows) Delete(id int64) bool { return r.Map.Delete(id) }

func (r *Rows) Len() int { return r.Map.Len() }

// Entries snapshots the rows in link-id order.
func (r *Rows) Entries() []*Entry {
	entries := make([]*Entry, 0, r.Len())
	if r.Len() == 0 {
		return entries
	}
	iterCh, err := r.Map.IterCh()
	if err != nil {
		return entries
	}
	for rec := range iterCh.Records() {
		entries = append(entries, rec.Val)
	}
	return entries
}

func (r *Rows) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", LinkKey(e.LinkID))
		b, err := types.ObjectValue(e.Row).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Rows) UnmarshalJSON(data []byte) error {
	var raw types.Value
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	r.Map = sorted.New[int64, *Entry](0, entryComparisonFunc)
	if raw.IsNull() {
		return nil
	}
	obj, err := raw.AsObject()
	if err != nil {
		return err
	}
	for _, key := range obj.Sorted {
		id, err := ParseLinkKey(key)
		if err != nil {
			return err
		}
		row, err := obj.Get(key).AsObject()
		if err != nil {
			return fmt.Errorf("row %s: %w", key, err)
		}
		if !r.Insert(id, row) {
			return fmt.Errorf("Duplicate link id %s", key)
		}
	}
	return nil
}
