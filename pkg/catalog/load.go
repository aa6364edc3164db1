// Package catalog reads and writes catalog JSON files.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"catalog-ops/pkg/domain"
)

// ErrUnexpectedShape is returned when the top level JSON value is not what
// the catalog kind allows.
var ErrUnexpectedShape = errors.New("catalog: unexpected JSON shape")

// Shape is the top level layout of a catalog file.
type Shape int

const (
	// ShapeArray is a JSON array of entries.
	ShapeArray Shape = iota
	// ShapeKeyed is a JSON object of entries keyed by title (series only).
	ShapeKeyed
)

// Document is a loaded catalog together with the layout it was read from,
// so WriteDocument can put it back in the same shape.
type Document struct {
	Entries []domain.Entry
	Shape   Shape
	// Keys holds the object key of Entries[i] for keyed files.
	Keys []string

	// keyTitle marks entries whose title was filled in from their key.
	keyTitle []bool
}

// Load reads the catalog file at path.
//
// Movies must be a JSON array of objects. Series may also be an object
// keyed by title; its entries are returned sorted by key, with the key
// filling in a missing title. Numbers are kept as json.Number.
func Load(path string, kind domain.Kind) ([]domain.Entry, error) {
	doc, err := LoadDocument(path, kind)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// LoadDocument is Load keeping the file layout.
func LoadDocument(path string, kind domain.Kind) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	doc, err := DecodeDocument(f, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode is Load for an already open reader.
func Decode(r io.Reader, kind domain.Kind) ([]domain.Entry, error) {
	doc, err := DecodeDocument(r, kind)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// DecodeDocument is LoadDocument for an already open reader.
func DecodeDocument(r io.Reader, kind domain.Kind) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return fromArray(v)
	case map[string]any:
		if kind != domain.KindSeries {
			return nil, fmt.Errorf("%w: %s catalog must be an array, got object", ErrUnexpectedShape, kind)
		}
		return fromObject(v)
	}
	return nil, fmt.Errorf("%w: top level value is %T", ErrUnexpectedShape, doc)
}

func fromArray(items []any) (*Document, error) {
	entries := make([]domain.Entry, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T, want object", ErrUnexpectedShape, i, item)
		}
		entries = append(entries, domain.Entry(m))
	}
	return &Document{Entries: entries, Shape: ShapeArray}, nil
}

func fromObject(obj map[string]any) (*Document, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := &Document{
		Entries:  make([]domain.Entry, 0, len(keys)),
		Shape:    ShapeKeyed,
		Keys:     keys,
		keyTitle: make([]bool, len(keys)),
	}
	for i, k := range keys {
		m, ok := obj[k].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: value of %q is %T, want object", ErrUnexpectedShape, k, obj[k])
		}
		e := domain.Entry(m)
		if e.Title() == "" {
			e[domain.FieldTitle] = k
			doc.keyTitle[i] = true
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}
