package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"catalog-ops/pkg/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MoviesArray(t *testing.T) {
	path := writeFile(t, "movies.json", `[{"title":"A","rating":7.25,"year":2010,"extra":{"k":"v"}},{"title":"B"}]`)

	entries, err := Load(path, domain.KindMovies)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 || entries[0].Title() != "A" || entries[1].Title() != "B" {
		t.Fatalf("unexpected entries: %v", entries)
	}
	if n, ok := entries[0]["rating"].(json.Number); !ok || n.String() != "7.25" {
		t.Errorf("number not preserved: %#v", entries[0]["rating"])
	}
}

func TestLoad_SeriesObject(t *testing.T) {
	path := writeFile(t, "series.json", `{"Zeta":{"image":"z.jpg"},"Alpha":{"title":"Alpha (2024)"}}`)

	entries, err := Load(path, domain.KindSeries)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	titles := []string{entries[0].Title(), entries[1].Title()}
	if !reflect.DeepEqual(titles, []string{"Alpha (2024)", "Zeta"}) {
		t.Errorf("titles = %v", titles)
	}
}

func TestLoad_UnexpectedShape(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    domain.Kind
	}{
		{"movies object", `{"A":{}}`, domain.KindMovies},
		{"scalar", `42`, domain.KindSeries},
		{"array of strings", `["a","b"]`, domain.KindMovies},
		{"object of strings", `{"a":"b"}`, domain.KindSeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.json", tt.content), tt.kind)
			if !errors.Is(err, ErrUnexpectedShape) {
				t.Errorf("expected ErrUnexpectedShape, got %v", err)
			}
		})
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := Load(writeFile(t, "c.json", `[{"title":`), domain.KindMovies)
	if err == nil || errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), domain.KindMovies); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWrite_RoundTripKeepsUnknownFields(t *testing.T) {
	in := `[{"title":"A & B","custom":{"nested":[1,2]},"count":3}]`
	entries, err := Decode(strings.NewReader(in), domain.KindMovies)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out", "movies.json")
	if err := Write(out, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, _ := os.ReadFile(out)
	if !strings.Contains(string(raw), `"A & B"`) {
		t.Errorf("html should not be escaped: %s", raw)
	}

	back, err := Load(out, domain.KindMovies)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(back, entries) {
		t.Errorf("round trip mismatch:\n%v\n%v", back, entries)
	}
}

func TestWrite_EmptyIsArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.json")
	if err := Write(out, nil); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(out)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("got %q", raw)
	}
}

func TestCheckpointer_Intervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	cp := &Checkpointer{Path: path, Every: 5}

	var processed []domain.Entry
	var writtenAt []int
	total := 12
	for i := 0; i < total; i++ {
		processed = append(processed, domain.Entry{"title": string(rune('a' + i))})
		wrote, err := cp.Observe(i, total, processed)
		if err != nil {
			t.Fatal(err)
		}
		if wrote {
			writtenAt = append(writtenAt, i+1)
			// every snapshot parses and holds exactly what was processed
			got, err := Load(path, domain.KindMovies)
			if err != nil {
				t.Fatalf("checkpoint at %d does not parse: %v", i+1, err)
			}
			if len(got) != i+1 {
				t.Errorf("checkpoint at %d holds %d entries", i+1, len(got))
			}
		}
	}
	if !reflect.DeepEqual(writtenAt, []int{5, 10, 12}) {
		t.Errorf("snapshots at %v", writtenAt)
	}
}

func TestDefaultEvery(t *testing.T) {
	if DefaultEvery(domain.KindMovies) != 10 || DefaultEvery(domain.KindSeries) != 5 {
		t.Error("unexpected default intervals")
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>New titles</title>
		<link>https://example.com</link>
		<item>
			<title>Movie One (2025)</title>
			<link>https://example.com/m1</link>
			<description>First</description>
			<category>Action</category>
			<enclosure url="https://cdn.example.com/m1.jpg" length="1234" type="image/jpeg"/>
		</item>
		<item>
			<title>Movie Two</title>
			<link>https://example.com/m2</link>
			<enclosure url="https://cdn.example.com/m2.mp3" length="1" type="audio/mpeg"/>
		</item>
		<item>
			<link>https://example.com/untitled</link>
		</item>
	</channel>
</rss>`

func TestFromFeed_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	entries, err := FromFeed(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FromFeed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 titled entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Title() != "Movie One (2025)" || first.FeaturedImage() != "https://cdn.example.com/m1.jpg" || first.Image() != first.FeaturedImage() {
		t.Errorf("unexpected first entry: %v", first)
	}
	if !reflect.DeepEqual(first.Categories(), []string{"Action"}) {
		t.Errorf("categories = %v", first.Categories())
	}
	if entries[1].FeaturedImage() != "" {
		t.Errorf("audio enclosure should not become an image: %v", entries[1])
	}
}

func TestFromFeed_File(t *testing.T) {
	entries, err := FromFeed(context.Background(), writeFile(t, "feed.xml", testFeed))
	if err != nil {
		t.Fatalf("FromFeed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestFromFeed_Empty(t *testing.T) {
	empty := `<?xml version="1.0"?><rss version="2.0"><channel><title>x</title></channel></rss>`
	if _, err := FromFeed(context.Background(), writeFile(t, "feed.xml", empty)); err == nil {
		t.Fatal("expected error for empty feed")
	}
}

func TestMerge(t *testing.T) {
	existing := []domain.Entry{{"title": "A"}, {"title": "B"}}
	incoming := []domain.Entry{{"title": "B"}, {"title": "C"}, {"title": ""}, {"title": "C"}}

	merged, added := Merge(existing, incoming)
	if added != 1 || len(merged) != 3 || merged[2].Title() != "C" {
		t.Errorf("Merge = %v, %d", merged, added)
	}
	if len(existing) != 2 {
		t.Error("existing slice must not change")
	}
}

func TestWriteDocument_KeepsKeyedSeries(t *testing.T) {
	// A keyed series file must come back keyed, with the same keys, after a
	// load/modify/write cycle to the same path
	path := writeFile(t, "series.json", `{"breaking-bad":{"title":"Breaking Bad","seasons":5},"dark":{"image":"d.jpg"}}`)

	doc, err := LoadDocument(path, domain.KindSeries)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Shape != ShapeKeyed || !reflect.DeepEqual(doc.Keys, []string{"breaking-bad", "dark"}) {
		t.Fatalf("unexpected document: %+v", doc)
	}
	doc.Entries[0].AddCategory("Featured")
	doc.Entries = append(doc.Entries, domain.Entry{"title": "Lost"})

	if err := WriteDocument(path, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	raw, _ := os.ReadFile(path)
	var got map[string]map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("output is not a keyed object: %v\n%s", err, raw)
	}
	if len(got) != 3 || got["breaking-bad"]["title"] != "Breaking Bad" || got["Lost"]["title"] != "Lost" {
		t.Errorf("unexpected output: %s", raw)
	}
	if _, ok := got["dark"]["title"]; ok {
		t.Errorf("title filled in from the key should not be written back: %s", raw)
	}
	if cats, _ := got["breaking-bad"]["category"].([]any); len(cats) != 1 || cats[0] != "Featured" {
		t.Errorf("category = %v", got["breaking-bad"]["category"])
	}
}

func TestWriteDocument_ArrayStaysArray(t *testing.T) {
	path := writeFile(t, "series.json", `[{"title":"A"}]`)
	doc, err := LoadDocument(path, domain.KindSeries)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Shape != ShapeArray {
		t.Fatalf("shape = %v", doc.Shape)
	}
	if err := WriteDocument(path, doc); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		t.Errorf("expected array output, got %s", raw)
	}
}
