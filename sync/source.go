package sync

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Source gives path based access to a CSV row or an API response.
type Source struct {
	data gjson.Result
}

// NewSource wraps a JSON document.
func NewSource(json string) Source {
	return Source{data: gjson.Parse(json)}
}

// NewRowSource converts a CSV row into a flat JSON object keyed by column name
// so that mappings can address columns with gjson paths and modifiers.
func NewRowSource(row Row) (Source, error) {
	doc := "{}"
	var err error
	for _, column := range row.Columns() {
		doc, err = sjson.Set(doc, EscapePath(column), row.Get(column))
		if err != nil {
			return Source{}, err
		}
	}
	return NewSource(doc), nil
}

func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) IntForPath(path string) (int64, bool) {
	result := s.data.Get(path)
	return result.Int(), result.Exists() && (result.Value() != nil)
}

func (s Source) BoolForPath(path string) (bool, bool) {
	result := s.data.Get(path)
	return result.Bool(), result.Exists() && (result.Value() != nil)
}

func (s Source) Raw() string {
	return s.data.Raw
}

// EscapePath escapes the characters gjson and sjson treat as path syntax so a
// CSV header can be used as a single key.
func EscapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%', ':':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ArrayForPath returns the elements of the array at path.
func (s Source) ArrayForPath(path string) []Source {
	var result []Source
	for _, v := range s.data.Get(path).Array() {
		result = append(result, Source{data: v})
	}
	return result
}
