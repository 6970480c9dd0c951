package magnet

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/gorilla/schema"
)

// binder writes one call argument into a RequestSpec.
type binder interface {
	bind(r *RequestSpec, value any) error
}

// Files maps multipart field names to paths of files to upload.
type Files map[string]string

type queryBinder struct{ name string }

func (b queryBinder) bind(r *RequestSpec, value any) error {
	s, err := toString(value)
	if err != nil {
		return err
	}
	r.addQueryParam(b.name, s)
	return nil
}

type pathBinder struct{ name string }

func (b pathBinder) bind(r *RequestSpec, value any) error {
	s, err := toString(value)
	if err != nil {
		return err
	}
	return r.addPathParam(b.name, s)
}

type bodyBinder struct{}

func (bodyBinder) bind(r *RequestSpec, value any) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	r.setBody(string(data))
	return nil
}

type headerMapBinder struct{}

func (headerMapBinder) bind(r *RequestSpec, value any) error {
	entries, err := mapEntries(value)
	if err != nil {
		return fmt.Errorf("header map: %w", err)
	}
	for _, e := range entries {
		if e.key == "" {
			return fmt.Errorf("header key is empty")
		}
		v := ""
		if e.value != nil {
			v = *e.value
		}
		if err := r.addHeader(e.key, v); err != nil {
			return err
		}
	}
	return nil
}

var formEncoder = func() *schema.Encoder {
	e := schema.NewEncoder()
	e.SetAliasTag("form")
	return e
}()

type formMapBinder struct{}

func (formMapBinder) bind(r *RequestSpec, value any) error {
	entries, err := formEntries(value)
	if err != nil {
		return fmt.Errorf("form map: %w", err)
	}
	for _, e := range entries {
		v := ""
		if e.value != nil {
			v = *e.value
		}
		if err := r.addFormField(e.key, v); err != nil {
			return err
		}
	}
	return nil
}

type partBinder struct{}

func (partBinder) bind(r *RequestSpec, value any) error {
	parts := make(map[string]partFile)
	switch files := value.(type) {
	case Files:
		if files == nil {
			return fmt.Errorf("nil passed as multipart files")
		}
		for field, path := range files {
			parts[field] = partFile{path: path}
		}
	case map[string]string:
		if files == nil {
			return fmt.Errorf("nil passed as multipart files")
		}
		for field, path := range files {
			parts[field] = partFile{path: path}
		}
	case map[string]*os.File:
		if files == nil {
			return fmt.Errorf("nil passed as multipart files")
		}
		for field, f := range files {
			if f == nil {
				return fmt.Errorf("nil file passed for multipart field %q", field)
			}
			parts[field] = partFile{file: f}
		}
	default:
		return fmt.Errorf("multipart argument must be magnet.Files or map[string]*os.File, got %T", value)
	}
	return r.setParts(parts)
}

type entry struct {
	key   string
	value *string
}

// mapEntries converts a map with string keys into entries sorted by key.
func mapEntries(value any) ([]entry, error) {
	if value == nil {
		return nil, fmt.Errorf("nil passed as map")
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, fmt.Errorf("want a map, got %T", value)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("nil passed as map")
	}
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keys must be strings, got %s", v.Type().Key())
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		s, err := toString(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: iter.Key().String(), value: s})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
	return entries, nil
}

// formEntries accepts what mapEntries accepts plus structs (or pointers to
// structs) whose fields are flattened by gorilla/schema using "form" tags.
func formEntries(value any) ([]entry, error) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Kind() == reflect.Struct {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return mapEntries(value)
	}
	values := make(map[string][]string)
	if err := formEncoder.Encode(v.Interface(), values); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var entries []entry
	for _, k := range keys {
		for _, s := range values[k] {
			s := s
			entries = append(entries, entry{key: k, value: &s})
		}
	}
	return entries, nil
}

// toString returns the canonical text of value, nil for null.
// Strings are used as is, encoding.TextMarshaler is used when implemented,
// non-nil pointers are dereferenced, other values use fmt's %v.
func toString(value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		return &s, nil
	}
	if marshaler, ok := value.(encoding.TextMarshaler); ok {
		v := reflect.ValueOf(value)
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, nil
		}
		text, err := marshaler.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value %v: %w", value, err)
		}
		s := string(text)
		return &s, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		return toString(v.Elem().Interface())
	}
	s := fmt.Sprintf("%v", value)
	return &s, nil
}
