package mongostore

import (
	"context"
	"fmt"
	"strings"

	"collab-go/app/errs"
	"collab-go/app/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser inserts u and assigns its ID.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	var existing userDoc
	err := s.users.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": u.Email},
		bson.M{"username": u.Username},
	}}).Decode(&existing)
	switch {
	case err == nil && existing.Email == u.Email:
		return errs.Detail(errs.ErrConflict, "Email already registered")
	case err == nil:
		return errs.Detail(errs.ErrConflict, "Username already taken")
	case err != mongo.ErrNoDocuments:
		return fmt.Errorf("mongostore: check user: %w", err)
	}

	doc := userDoc{Name: u.Name, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash}
	res, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		// lost a race with a concurrent registration
		if strings.Contains(err.Error(), "email") {
			return errs.Detail(errs.ErrConflict, "Email already registered")
		}
		return errs.Detail(errs.ErrConflict, "Username already taken")
	}
	if err != nil {
		return fmt.Errorf("mongostore: create user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*store.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	u := doc.toStore()
	return &u, nil
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list users: %w", err)
	}
	users := make([]store.User, len(docs))
	for i, d := range docs {
		users[i] = d.toStore()
	}
	return users, nil
}
