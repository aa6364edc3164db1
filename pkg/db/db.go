package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-ops/pkg/domain"
)

// Client wraps the MongoDB client and the catalog collections
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collections map[domain.Kind]string
}

// DefaultCollections maps each catalog kind onto its collection name
func DefaultCollections() map[domain.Kind]string {
	return map[domain.Kind]string{
		domain.KindMovies: "movies",
		domain.KindSeries: "series",
	}
}

// NewClient creates a new database client.
// collections overrides DefaultCollections per kind; nil keeps the defaults.
func NewClient(connectionString, databaseName string, collections map[domain.Kind]string) *Client {
	names := DefaultCollections()
	for k, v := range collections {
		if v != "" {
			names[k] = v
		}
	}

	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &Client{collections: names}
	}

	return &Client{
		mongoClient: mongoClient,
		database:    mongoClient.Database(databaseName),
		collections: names,
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// CollectionName returns the collection used for kind
func (c *Client) CollectionName(kind domain.Kind) string {
	if name, ok := c.collections[kind]; ok {
		return name
	}
	return string(kind)
}

func (c *Client) collection(kind domain.Kind) (*mongo.Collection, error) {
	if c.database == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	return c.database.Collection(c.CollectionName(kind)), nil
}

// InsertEntry stores entry as a new document
func (c *Client) InsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error {
	coll, err := c.collection(kind)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, withoutID(entry))
	return err
}

// UpsertEntry replaces the fields of the document with the same title,
// creating it when missing
func (c *Client) UpsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error {
	coll, err := c.collection(kind)
	if err != nil {
		return err
	}
	title := entry.Title()
	if title == "" {
		return fmt.Errorf("entry has no title")
	}

	// Use title as unique identifier for upsert operation
	filter := bson.M{domain.FieldTitle: title}
	update := bson.M{"$set": withoutID(entry)}
	opts := options.Update().SetUpsert(true)

	_, err = coll.UpdateOne(ctx, filter, update, opts)
	return err
}

// SetCategories overwrites the category list of every document titled title.
// It reports whether any document matched.
func (c *Client) SetCategories(ctx context.Context, kind domain.Kind, title string, categories []string) (bool, error) {
	coll, err := c.collection(kind)
	if err != nil {
		return false, err
	}
	if categories == nil {
		categories = []string{}
	}
	res, err := coll.UpdateMany(ctx,
		bson.M{domain.FieldTitle: title},
		bson.M{"$set": bson.M{domain.FieldCategory: categories}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// GetAllTitles fetches all titles of kind and returns them as a map (set)
func (c *Client) GetAllTitles(ctx context.Context, kind domain.Kind) (map[string]bool, error) {
	coll, err := c.collection(kind)
	if err != nil {
		return nil, err
	}

	// Query to get only the title field from all documents
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{domain.FieldTitle: 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer cursor.Close(ctx)

	titleSet := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			Title string `bson:"title"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		if result.Title != "" {
			titleSet[result.Title] = true
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return titleSet, nil
}

// GetAllEntries fetches every document of kind as plain entries
func (c *Client) GetAllEntries(ctx context.Context, kind domain.Kind) ([]domain.Entry, error) {
	coll, err := c.collection(kind)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: domain.FieldTitle, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []domain.Entry
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue // Skip invalid documents
		}
		entries = append(entries, EntryFromDocument(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return entries, nil
}

// EntryFromDocument converts a decoded document into an Entry made of plain
// Go maps and slices. The _id field is dropped.
func EntryFromDocument(doc bson.M) domain.Entry {
	e := make(domain.Entry, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		e[k] = plain(v)
	}
	return e
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = plain(x)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = plain(x)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, el := range t {
			m[el.Key] = plain(el.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = plain(x)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = plain(x)
		}
		return s
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	}
	return v
}

func withoutID(entry domain.Entry) domain.Entry {
	if _, ok := entry["_id"]; !ok {
		return entry
	}
	out := entry.Clone()
	delete(out, "_id")
	return out
}
