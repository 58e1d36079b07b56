package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tobsdb/jqldb/pkg"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "array", "object"}

func (k Kind) String() string { return kindNames[k] }

// Object is a JSON object that keeps its keys in insertion order.
type Object = pkg.InsertSortMap[string, Value]

func NewObject() *Object { return pkg.NewInsertSortMap[string, Value]() }

// Value is a JSON value with an explicit kind tag.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	a    []Value
	o    *Object
}

func Null() Value             { return Value{} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindInt, i: i} }
func Float(f float64) Value   { return Value{kind: KindFloat, f: f} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value { return Value{kind: KindArray, a: append([]Value{}, vs...)} }
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, o: o}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) IsArray() bool { return v.kind == KindArray }

func mismatch(v Value, want Kind) error {
	return fmt.Errorf("expected %s value, got %s", want, v.kind)
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(v, KindBool)
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch(v, KindInt)
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, mismatch(v, KindFloat)
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch(v, KindString)
	}
	return v.s, nil
}

func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, mismatch(v, KindArray)
	}
	return v.a, nil
}

func (v Value) AsObject() (*Object, error) {
	if v.kind != KindObject {
		return nil, mismatch(v, KindObject)
	}
	return v.o, nil
}

// Integer reads v as an integer: ints, integral floats, bools and numeric
// strings qualify.
func (v Value) Integer() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) {
			return int64(v.f), true
		}
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Number reads v as a float64 when it is numeric or a numeric string.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f, err == nil
	}
	return 0, false
}

// Truthy follows the loose boolean reading used for bool columns.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != "" && v.s != "0" && !strings.EqualFold(v.s, "false")
	case KindArray:
		return len(v.a) > 0
	case KindObject:
		return v.o.Len() > 0
	}
	return false
}

// String renders scalars as text and containers as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		if a, ok := v.Number(); ok && v.kind != KindString {
			if b, ok := other.Number(); ok && other.kind != KindString {
				return a == b
			}
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindArray:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.o.Len() != other.o.Len() {
			return false
		}
		for _, k := range v.o.Sorted {
			ov, ok := other.o.Lookup(k)
			if !ok || !v.o.Get(k).Equal(ov) {
				return false
			}
		}
		return true
	}
	return v.String() == other.String()
}

// Clone deep-copies containers.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		a := make([]Value, len(v.a))
		for i, e := range v.a {
			a[i] = e.Clone()
		}
		return Value{kind: KindArray, a: a}
	case KindObject:
		o := NewObject()
		for _, k := range v.o.Sorted {
			o.Push(k, v.o.Get(k).Clone())
		}
		return Value{kind: KindObject, o: o}
	}
	return v
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool, KindInt:
		buf.WriteString(v.String())
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return fmt.Errorf("unsupported float value %v", v.f)
		}
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.a {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		return encodeObject(buf, v.o)
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, o *Object) error {
	buf.WriteByte('{')
	for i, k := range o.Sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := o.Get(k).encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	res, err := DecodeValue(dec)
	if err != nil {
		return err
	}
	*v = res
	return nil
}

// DecodeValue reads the next JSON value from dec, keeping object key order.
// dec must have UseNumber enabled.
func DecodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch tok := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(tok), nil
	case string:
		return String(tok), nil
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := tok.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case json.Delim:
		switch tok {
		case '[':
			arr := []Value{}
			for dec.More() {
				e, err := DecodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindArray, a: arr}, nil
		case '{':
			o := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", kt)
				}
				e, err := DecodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				o.Set(key, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindObject, o: o}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}
