package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind identifies which variant a CellValue holds.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueText
	ValueNumber
	ValueBool
	ValueList
	ValueObject
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueText:
		return "text"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "boolean"
	case ValueList:
		return "list"
	case ValueObject:
		return "object"
	default:
		return "unknown"
	}
}

// CellValue is a closed variant over the JSON shapes Airtable returns for a
// cell. The zero value is null.
type CellValue struct {
	kind   ValueKind
	text   string
	number float64
	flag   bool
	list   []CellValue
	object map[string]CellValue
}

// NullValue returns the null cell value.
func NullValue() CellValue { return CellValue{} }

// TextValue returns a text cell value.
func TextValue(s string) CellValue { return CellValue{kind: ValueText, text: s} }

// NumberValue returns a numeric cell value.
func NumberValue(f float64) CellValue { return CellValue{kind: ValueNumber, number: f} }

// BoolValue returns a boolean cell value.
func BoolValue(b bool) CellValue { return CellValue{kind: ValueBool, flag: b} }

// ListValue returns an ordered list cell value.
func ListValue(items ...CellValue) CellValue {
	if items == nil {
		items = []CellValue{}
	}
	return CellValue{kind: ValueList, list: items}
}

// ObjectValue returns a nested object cell value.
func ObjectValue(fields map[string]CellValue) CellValue {
	if fields == nil {
		fields = map[string]CellValue{}
	}
	return CellValue{kind: ValueObject, object: fields}
}

// ValueOf converts a decoded JSON value (as produced by encoding/json into an
// any, with or without UseNumber) into a CellValue.
func ValueOf(raw any) (CellValue, error) {
	switch v := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return TextValue(v), nil
	case bool:
		return BoolValue(v), nil
	case float64:
		return NumberValue(v), nil
	case int:
		return NumberValue(float64(v)), nil
	case int64:
		return NumberValue(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return CellValue{}, fmt.Errorf("parse number %q: %w", v.String(), err)
		}
		return NumberValue(f), nil
	case []any:
		items := make([]CellValue, 0, len(v))
		for i, item := range v {
			cv, err := ValueOf(item)
			if err != nil {
				return CellValue{}, fmt.Errorf("list item %d: %w", i, err)
			}
			items = append(items, cv)
		}
		return ListValue(items...), nil
	case map[string]any:
		fields := make(map[string]CellValue, len(v))
		for k, item := range v {
			cv, err := ValueOf(item)
			if err != nil {
				return CellValue{}, fmt.Errorf("object key %q: %w", k, err)
			}
			fields[k] = cv
		}
		return ObjectValue(fields), nil
	default:
		return CellValue{}, fmt.Errorf("unsupported cell value type %T", raw)
	}
}

// Kind returns the variant held by v.
func (v CellValue) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v CellValue) IsNull() bool { return v.kind == ValueNull }

// Text returns the text held by v, if any.
func (v CellValue) Text() (string, bool) { return v.text, v.kind == ValueText }

// Number returns the number held by v, if any.
func (v CellValue) Number() (float64, bool) { return v.number, v.kind == ValueNumber }

// Bool returns the boolean held by v, if any.
func (v CellValue) Bool() (bool, bool) { return v.flag, v.kind == ValueBool }

// List returns the items held by v, if any.
func (v CellValue) List() ([]CellValue, bool) { return v.list, v.kind == ValueList }

// Object returns the nested fields held by v, if any.
func (v CellValue) Object() (map[string]CellValue, bool) { return v.object, v.kind == ValueObject }

// Interface converts v back into plain Go values suitable for encoding/json.
func (v CellValue) Interface() any {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return v.number
	case ValueBool:
		return v.flag
	case ValueList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Interface())
		}
		return out
	case ValueObject:
		out := make(map[string]any, len(v.object))
		for k, item := range v.object {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v CellValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *CellValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode cell value: %w", err)
	}

	cv, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = cv
	return nil
}
