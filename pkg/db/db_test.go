package db

import (
	"context"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-ops/pkg/domain"
)

func TestEntryFromDocument(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := bson.M{
		"_id":      primitive.NewObjectID(),
		"title":    "Movie",
		"category": bson.A{"Featured", "New Release"},
		"meta":     bson.D{{Key: "views", Value: int32(3)}, {Key: "tags", Value: bson.A{"x"}}},
		"added":    primitive.NewDateTimeFromTime(ts),
	}

	got := EntryFromDocument(doc)
	want := domain.Entry{
		"title":    "Movie",
		"category": []any{"Featured", "New Release"},
		"meta":     map[string]any{"views": int32(3), "tags": []any{"x"}},
		"added":    "2024-05-01T12:00:00Z",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EntryFromDocument =\n%#v\nwant\n%#v", got, want)
	}
	if !reflect.DeepEqual(got.Categories(), []string{"Featured", "New Release"}) {
		t.Errorf("categories = %v", got.Categories())
	}
}

func TestWithoutID(t *testing.T) {
	e := domain.Entry{"_id": "x", "title": "T"}
	out := withoutID(e)
	if _, ok := out["_id"]; ok {
		t.Error("_id should be removed")
	}
	if _, ok := e["_id"]; !ok {
		t.Error("input must not be modified")
	}
}

func TestCollectionName(t *testing.T) {
	c := &Client{collections: DefaultCollections()}
	if c.CollectionName(domain.KindMovies) != "movies" || c.CollectionName(domain.KindSeries) != "series" {
		t.Error("unexpected default collection names")
	}
	if c.CollectionName("anime") != "anime" {
		t.Error("unknown kinds use their own name")
	}
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{}
	if err := c.InsertEntry(context.Background(), domain.KindMovies, domain.Entry{"title": "x"}); err == nil {
		t.Error("expected error without a database")
	}
	if _, err := c.GetAllTitles(context.Background(), domain.KindMovies); err == nil {
		t.Error("expected error without a database")
	}
}
