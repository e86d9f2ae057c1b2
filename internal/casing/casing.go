// Package casing rewrites mapping keys between the snake_case convention used
// by handlers and the camelCase convention used on the wire.
//
// Only keys are touched. Values are walked recursively so nested objects and
// arrays of objects are recased too, while scalars pass through as-is.
package casing

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelKey converts a snake_case key into camelCase.
//
// Example:
//
//	"first_name" -> "firstName"
//	"a_b_c"      -> "aBC"
func CamelKey(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	segments := strings.Split(key, "_")

	var b strings.Builder
	b.Grow(len(key))
	b.WriteString(segments[0])

	for _, segment := range segments[1:] {
		if segment == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(segment)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(segment[size:])
	}

	return b.String()
}

// SnakeKey converts a camelCase key into snake_case.
//
// An underscore goes in front of every upper-case letter except the first
// character, then the whole key is lower-cased.
//
//	"firstName" -> "first_name"
//	"ID"        -> "i_d"
func SnakeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)

	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// ToSnake returns value with every mapping key rewritten by SnakeKey.
// Non-container values are returned unchanged.
func ToSnake(value any) any {
	return transform(value, SnakeKey)
}

// ToCamel returns value with every mapping key rewritten by CamelKey.
// Non-container values are returned unchanged.
func ToCamel(value any) any {
	return transform(value, CamelKey)
}

func transform(value any, recase func(string) string) any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			put(out, k, recase(k), transform(item, recase))
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = transform(item, recase)
		}
		return out
	case string, []byte, bool, float64, int, int64:
		return v
	}

	return transformReflect(reflect.ValueOf(value), recase).Interface()
}

// put stores item under newKey. If another key already claimed newKey, the
// entry whose original key was already in the target form is kept.
func put(out map[string]any, oldKey, newKey string, item any) {
	if _, exists := out[newKey]; exists && oldKey != newKey {
		return
	}
	out[newKey] = item
}

// transformReflect covers named map and slice types (params.Params,
// map[string]string, []map[string]any, ...) while preserving their concrete type.
func transformReflect(rv reflect.Value, recase func(string) string) reflect.Value {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		return reflect.ValueOf(transform(rv.Elem().Interface(), recase))

	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		native := make(map[string]bool, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			oldKey := iter.Key().String()
			newKey := recase(oldKey)
			if native[newKey] {
				continue
			}
			native[newKey] = oldKey == newKey
			key := reflect.New(rv.Type().Key()).Elem()
			key.SetString(newKey)
			out.SetMapIndex(key, assignable(transformReflect(iter.Value(), recase), rv.Type().Elem()))
		}
		return out

	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(assignable(transformReflect(rv.Index(i), recase), rv.Type().Elem()))
		}
		return out

	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(assignable(transformReflect(rv.Index(i), recase), rv.Type().Elem()))
		}
		return out
	}

	return rv
}

func assignable(v reflect.Value, to reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(to)
	}
	if v.Type().AssignableTo(to) {
		return v
	}
	return v.Convert(to)
}
