package blogservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type blogDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Body        string             `bson:"body"`
	Author      string             `bson:"author"`
	State       State              `bson:"state"`
	ReadCount   int                `bson:"read_count"`
	ReadingTime int                `bson:"reading_time"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *blogDocument) blog() *Blog {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Blog{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Body:        d.Body,
		AuthorID:    d.Author,
		State:       d.State,
		ReadCount:   d.ReadCount,
		ReadingTime: d.ReadingTime,
		Tags:        tags,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoStore struct {
	col *mongo.Collection
}

// NewMongoStore uses the "blogs" collection of db and makes sure its indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (Store, error) {
	s := &mongoStore{col: db.Collection("blogs")}

	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create blogs indexes: %w", err)
	}

	return s, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *mongoStore) insert(ctx context.Context, b *Blog) error {
	ts := now()

	doc := blogDocument{
		Title:       b.Title,
		Description: b.Description,
		Body:        b.Body,
		Author:      b.AuthorID,
		State:       b.State,
		ReadCount:   b.ReadCount,
		ReadingTime: b.ReadingTime,
		Tags:        b.Tags,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("mongo insert: %w", err)
	}

	b.ID = res.InsertedID.(primitive.ObjectID).Hex()
	b.CreatedAt = ts
	b.UpdatedAt = ts
	return nil
}

func (s *mongoStore) getByID(ctx context.Context, id string) (*Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	var doc blogDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return doc.blog(), nil
}

func (s *mongoStore) existsByTitle(ctx context.Context, title string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// findAndUpdate applies update to the single document matching filter and returns it as modified.
func (s *mongoStore) findAndUpdate(ctx context.Context, filter, update bson.M) (*Blog, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc blogDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicateTitle
		default:
			return nil, err
		}
	}

	return doc.blog(), nil
}

func (s *mongoStore) incrementReadCount(ctx context.Context, id string) (*Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	return s.findAndUpdate(ctx,
		bson.M{"_id": oid, "state": StatePublished},
		bson.M{"$inc": bson.M{"read_count": 1}},
	)
}

func (s *mongoStore) publish(ctx context.Context, id, authorID string) (*Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	return s.findAndUpdate(ctx,
		bson.M{"_id": oid, "author": authorID},
		bson.M{"$set": bson.M{"state": StatePublished, "updated_at": now()}},
	)
}

func (s *mongoStore) update(ctx context.Context, id, authorID string, u blogUpdate) (*Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	set := bson.M{"updated_at": now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Body != nil {
		set["body"] = *u.Body
	}
	if u.Tags != nil {
		set["tags"] = *u.Tags
	}
	if u.ReadingTime != nil {
		set["reading_time"] = *u.ReadingTime
	}

	return s.findAndUpdate(ctx, bson.M{"_id": oid, "author": authorID}, bson.M{"$set": set})
}

func (s *mongoStore) delete(ctx context.Context, id, authorID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrRecordNotFound
	}

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "author": authorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func (q query) filter() bson.M {
	filter := bson.M{}

	if q.state != "" {
		filter["state"] = q.state
	}
	if q.authorIDs != nil {
		filter["author"] = bson.M{"$in": q.authorIDs}
	}
	if q.title != "" {
		filter["title"] = containsRegex(q.title)
	}
	if len(q.tags) > 0 {
		patterns := make(bson.A, len(q.tags))
		for i, tag := range q.tags {
			patterns[i] = containsRegex(tag)
		}
		filter["tags"] = bson.M{"$in": patterns}
	}

	return filter
}

func (s *mongoStore) list(ctx context.Context, q query) ([]*Blog, int, error) {
	filter := q.filter()

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	direction := 1
	if q.desc {
		direction = -1
	}

	field, ok := sortColumns[q.orderBy]
	if !ok {
		field = "created_at"
	}

	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(int64(q.offset)).
		SetLimit(int64(q.limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []blogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	blogs := make([]*Blog, 0, len(docs))
	for i := range docs {
		blogs = append(blogs, docs[i].blog())
	}

	return blogs, int(total), nil
}
