package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/nftmarket/indexer-query/core/query"
	"github.com/nftmarket/indexer-query/core/schema"
)

// encodeValue renders v as a GraphQL literal. The field type decides how
// scalars are written:
//
//   - Flag fields encode booleans as 1/0.
//   - ID, String, BigNumber and Datetime fields quote numbers.
//   - isNull always takes a bare boolean, whatever the field.
func encodeValue(fieldType schema.FieldType, op query.ComparisonOperator, v any) string {
	if op == query.ComparisonOperatorIsNull {
		if b, ok := deref(v).(bool); ok {
			return strconv.FormatBool(b)
		}
	}
	return encode(fieldType, deref(v))
}

func encode(fieldType schema.FieldType, v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		if fieldType == schema.FieldTypeFlag {
			if val {
				return "1"
			}
			return "0"
		}
		return strconv.FormatBool(val)
	case time.Time:
		return quote(val.UTC().Format(time.RFC3339))
	case float32:
		return number(fieldType, strconv.FormatFloat(float64(val), 'f', -1, 32))
	case float64:
		return number(fieldType, strconv.FormatFloat(val, 'f', -1, 64))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return number(fieldType, fmt.Sprintf("%d", val))
	case json.Number:
		return number(fieldType, val.String())
	case fmt.Stringer:
		return quote(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = encode(fieldType, deref(rv.Index(i).Interface()))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.String:
		return quote(rv.String())
	case reflect.Bool:
		return encode(fieldType, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return encode(fieldType, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encode(fieldType, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return encode(fieldType, rv.Float())
	}
	return quote(fmt.Sprint(v))
}

// number writes a numeric literal, quoted when the schema carries the field
// as a string scalar.
func number(fieldType schema.FieldType, lit string) string {
	switch fieldType {
	case schema.FieldTypeID, schema.FieldTypeString, schema.FieldTypeBigNumber, schema.FieldTypeDatetime:
		return `"` + lit + `"`
	}
	return lit
}

// quote produces a JSON string literal, which is also a valid GraphQL string.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// deref follows pointers until a non-pointer value or nil is reached.
func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return v
}
