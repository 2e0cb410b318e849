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

// visibleTo matches tasks owned by or mentioning username.
func visibleTo(username string) bson.A {
	return bson.A{
		bson.M{"owner": username},
		bson.M{"mentioned_users": username},
	}
}

// CreateTask inserts t and assigns its ID.
func (s *Store) CreateTask(ctx context.Context, t *store.Task) error {
	mentions := t.MentionedUsers
	if mentions == nil {
		mentions = []string{}
	}
	res, err := s.tasks.InsertOne(ctx, taskDoc{
		Title:          t.Title,
		Status:         t.Status,
		Messages:       threadToDocs(t.Messages),
		Owner:          t.Owner,
		CreatedAt:      t.CreatedAt.UTC(),
		MentionedUsers: mentions,
	})
	if err != nil {
		return fmt.Errorf("mongostore: create task: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// TasksForUser lists tasks visible to username, newest first.
func (s *Store) TasksForUser(ctx context.Context, username string) ([]store.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"$or": visibleTo(username)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: list tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list tasks: %w", err)
	}
	tasks := make([]store.Task, len(docs))
	for i, d := range docs {
		tasks[i] = d.toStore()
	}
	// ObjectID order is not id-string order; apply the shared tie-break.
	store.SortTasks(tasks)
	return tasks, nil
}

func (s *Store) TaskForUser(ctx context.Context, taskID, username string) (*store.Task, error) {
	oid, err := objectID(taskID)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	if err := s.tasks.FindOne(ctx, bson.M{"_id": oid, "$or": visibleTo(username)}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	t := doc.toStore()
	return &t, nil
}

// ReplaceThread matches on id plus the ownership/mention predicate and sets
// every replaceable field in the same FindOneAndUpdate, so the check and the
// write are one atomic document operation.
func (s *Store) ReplaceThread(ctx context.Context, taskID, requester string, r store.Replacement) (*store.Task, error) {
	oid, err := objectID(taskID)
	if err != nil {
		return nil, err
	}
	mentions := r.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	var doc taskDoc
	err = s.tasks.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "$or": visibleTo(requester)},
		bson.M{
			"$set": bson.M{
				"title":           r.Title,
				"status":          r.Status,
				"messages":        threadToDocs(r.Messages),
				"mentioned_users": mentions,
			},
			"$inc": bson.M{"revision": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("mongostore: replace thread %s: %w", taskID, notFound(err))
	}
	t := doc.toStore()
	return &t, nil
}

// DeleteTask removes the task when owner owns it.
func (s *Store) DeleteTask(ctx context.Context, taskID, owner string) error {
	oid, err := objectID(taskID)
	if err != nil {
		return err
	}
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid, "owner": owner})
	if err != nil {
		return fmt.Errorf("mongostore: delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}
