package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/fsx"
)

// Write replaces the file at path with entries as an indented JSON array.
// The file is swapped in atomically so readers never see a partial write.
func Write(path string, entries []domain.Entry) error {
	if entries == nil {
		entries = []domain.Entry{}
	}
	err := fsx.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, entries)
	})
	if err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

// Encode writes entries to w in the catalog file format.
func Encode(w io.Writer, entries []domain.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

// WriteDocument writes doc in the layout it was loaded with. A keyed file
// keeps its keys; entries appended after loading are keyed by title.
func WriteDocument(path string, doc *Document) error {
	if doc == nil || doc.Shape != ShapeKeyed {
		var entries []domain.Entry
		if doc != nil {
			entries = doc.Entries
		}
		return Write(path, entries)
	}

	obj := keyed(doc)
	err := fsx.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(obj)
	})
	if err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

// keyed rebuilds the object form of doc. encoding/json sorts the keys,
// which matches the order Load returns them in.
func keyed(doc *Document) map[string]domain.Entry {
	obj := make(map[string]domain.Entry, len(doc.Entries))
	for i, e := range doc.Entries {
		var key string
		if i < len(doc.Keys) {
			key = doc.Keys[i]
			if i < len(doc.keyTitle) && doc.keyTitle[i] && e.String(domain.FieldTitle) == key {
				e = e.Clone()
				delete(e, domain.FieldTitle)
			}
		} else {
			key = e.Title()
			if key == "" {
				key = "entry_" + strconv.Itoa(i+1)
			}
			for base, n := key, 2; taken(obj, key); n++ {
				key = base + "_" + strconv.Itoa(n)
			}
		}
		obj[key] = e
	}
	return obj
}

func taken(obj map[string]domain.Entry, key string) bool {
	_, ok := obj[key]
	return ok
}
