package userservice

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

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FirstName string             `bson:"first_name"`
	LastName  string             `bson:"last_name"`
	Email     string             `bson:"email"`
	Password  []byte             `bson:"password"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *userDocument) user() *User {
	return &User{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Password:  Password{hash: d.Password},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoStore struct {
	col *mongo.Collection
}

// NewMongoStore uses the "users" collection of db and makes sure its indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (Store, error) {
	s := &mongoStore{col: db.Collection("users")}

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create users indexes: %w", err)
	}

	return s, nil
}

func (s *mongoStore) insert(ctx context.Context, u *User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := userDocument{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Password:  u.Password.hash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("mongo insert: %w", err)
	}

	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *mongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.user(), nil
}

func (s *mongoStore) getByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoStore) getByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *mongoStore) getByIDs(ctx context.Context, ids []string) ([]*User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*User{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"password": 0})
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].user())
	}
	return users, nil
}

func (s *mongoStore) findIDsByName(ctx context.Context, name string) ([]string, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"first_name": re},
		bson.M{"last_name": re},
	}}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []string{}
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}

	return ids, cur.Err()
}
