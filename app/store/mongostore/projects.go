package mongostore

import (
	"context"
	"fmt"

	"collab-go/app/errs"
	"collab-go/app/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateProject inserts p and assigns its ID.
func (s *Store) CreateProject(ctx context.Context, p *store.Project) error {
	doc := projectDoc{
		Title:       p.Title,
		Description: p.Description,
		Members:     make([]memberDoc, len(p.Members)),
		Notes:       []noteDoc{},
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt.UTC(),
	}
	for i, m := range p.Members {
		doc.Members[i] = memberDoc{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	res, err := s.projects.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongostore: create project: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) ProjectsForMember(ctx context.Context, userID string) ([]store.Project, error) {
	cur, err := s.projects.Find(ctx, bson.M{"members.id": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: list projects: %w", err)
	}
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list projects: %w", err)
	}
	projects := make([]store.Project, len(docs))
	for i, d := range docs {
		projects[i] = d.toStore()
	}
	return projects, nil
}

func (s *Store) ProjectForMember(ctx context.Context, projectID, userID string) (*store.Project, error) {
	oid, err := objectID(projectID)
	if err != nil {
		return nil, err
	}
	return s.findProject(ctx, bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"members.id": userID},
			bson.M{"createdBy": userID},
		},
	})
}

func (s *Store) ProjectByID(ctx context.Context, projectID string) (*store.Project, error) {
	oid, err := objectID(projectID)
	if err != nil {
		return nil, err
	}
	return s.findProject(ctx, bson.M{"_id": oid})
}

func (s *Store) findProject(ctx context.Context, filter bson.M) (*store.Project, error) {
	var doc projectDoc
	if err := s.projects.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	p := doc.toStore()
	return &p, nil
}

// AddMember pushes m unless a member with the same id is present.
func (s *Store) AddMember(ctx context.Context, projectID string, m store.Member) error {
	oid, err := objectID(projectID)
	if err != nil {
		return err
	}
	res, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": oid, "members.id": bson.M{"$ne": m.ID}},
		bson.M{"$push": bson.M{"members": memberDoc{ID: m.ID, Name: m.Name, Email: m.Email}}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: add member: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.ProjectByID(ctx, projectID); err != nil {
			return err
		}
		return errs.Detail(errs.ErrConflict, "User is already a member")
	}
	return nil
}

// AddNote pushes n onto the project and assigns its ID.
func (s *Store) AddNote(ctx context.Context, projectID string, n *store.Note) error {
	oid, err := objectID(projectID)
	if err != nil {
		return err
	}
	doc := noteDoc{ID: primitive.NewObjectID(), Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt.UTC()}
	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"notes": doc}})
	if err != nil {
		return fmt.Errorf("mongostore: add note: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	n.ID = doc.ID.Hex()
	return nil
}

// UpdateNote sets the matched note's fields through the positional operator.
func (s *Store) UpdateNote(ctx context.Context, projectID string, n store.Note) error {
	oid, err := objectID(projectID)
	if err != nil {
		return err
	}
	nid, err := objectID(n.ID)
	if err != nil {
		return err
	}
	res, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": oid, "notes._id": nid},
		bson.M{"$set": bson.M{
			"notes.$.title":     n.Title,
			"notes.$.body":      n.Body,
			"notes.$.createdAt": n.CreatedAt.UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, projectID, noteID string) error {
	oid, err := objectID(projectID)
	if err != nil {
		return err
	}
	nid, err := objectID(noteID)
	if err != nil {
		return err
	}
	res, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"notes": bson.M{"_id": nid}}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: delete note: %w", err)
	}
	if res.ModifiedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}
