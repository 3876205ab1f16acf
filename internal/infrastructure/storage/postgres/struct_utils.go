package postgres

import (
	"reflect"
	"sync"
)

// columnField maps a db column to a struct field index path.
type columnField struct {
	column string
	index  []int
}

// columnCache holds []columnField per struct type.
var columnCache sync.Map

// columnsOf returns the tagged fields of t in declaration order, flattening
// embedded structs. Results are cached per type.
func columnsOf(t reflect.Type) []columnField {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]columnField)
	}

	var fields []columnField
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.Anonymous || !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, columnField{column: tag, index: f.Index})
		}
	}

	columnCache.Store(t, fields)
	return fields
}

// ExtractDBColumns lists the "db" columns of T in declaration order.
//
//	ExtractDBColumns[ledger.Transaction]() // ["id", "owner_id", "date", ...]
func ExtractDBColumns[T any]() []string {
	fields := columnsOf(reflect.TypeFor[T]())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap converts a struct to a column map for squirrel SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := columnsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// StructValues returns the field values of v ordered like ExtractDBColumns,
// for COPY rows.
func StructValues(v any) []any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	fields := columnsOf(rv.Type())
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = rv.FieldByIndex(f.index).Interface()
	}
	return out
}
