package domain

import (
	"reflect"
	"strings"
)

// Field names used by the catalog JSON documents.
const (
	FieldTitle         = "title"
	FieldFeaturedImage = "featured_image"
	FieldImage         = "image"
	FieldScreenshots   = "movie_screenshots"
	FieldCategory      = "category"
)

// Kind selects which catalog a file or collection belongs to.
type Kind string

const (
	KindMovies Kind = "movies"
	KindSeries Kind = "series"
)

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMovies, "movie":
		return KindMovies, true
	case KindSeries, "serie", "show", "shows":
		return KindSeries, true
	}
	return "", false
}

// Entry is one catalog record (a movie or a series).
//
// It is kept as a loose mapping so fields this tool does not know about
// survive a load/write round trip unchanged. Identity is the title.
type Entry map[string]any

// Clone returns a shallow copy of the entry.
func (e Entry) Clone() Entry {
	out := make(Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// String returns the field as a string, or "" if it is missing or not a string.
func (e Entry) String(field string) string {
	s, _ := e[field].(string)
	return s
}

// Title returns the entry title.
func (e Entry) Title() string {
	return strings.TrimSpace(e.String(FieldTitle))
}

func (e Entry) FeaturedImage() string { return e.String(FieldFeaturedImage) }

func (e Entry) Image() string { return e.String(FieldImage) }

// Screenshots returns the raw screenshot markup (a run of <img> tags).
func (e Entry) Screenshots() string { return e.String(FieldScreenshots) }

// Categories returns the category tags of the entry.
// JSON arrays, BSON arrays and a bare string are all accepted.
func (e Entry) Categories() []string {
	return stringSlice(e[FieldCategory])
}

// HasCategory reports whether tag is already present.
func (e Entry) HasCategory(tag string) bool {
	for _, c := range e.Categories() {
		if c == tag {
			return true
		}
	}
	return false
}

// AddCategory appends tag unless it is already present.
// Existing elements are kept as they are, strings or not.
// It reports whether the entry changed.
func (e Entry) AddCategory(tag string) bool {
	if e.HasCategory(tag) {
		return false
	}
	e[FieldCategory] = appendTag(e[FieldCategory], tag)
	return true
}

func appendTag(v any, tag string) any {
	switch t := v.(type) {
	case nil:
		return []string{tag}
	case string:
		if t == "" {
			return []string{tag}
		}
		return []string{t, tag}
	case []string:
		return append(append(make([]string, 0, len(t)+1), t...), tag)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v, tag}
	}
	out := make([]any, 0, rv.Len()+1)
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return append(out, tag)
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if s, ok := rv.Index(i).Interface().(string); ok {
			out = append(out, s)
		}
	}
	return out
}
