package neo4jstore

import (
	"context"
	"fmt"
	"slices"

	"collab-go/app/errs"
	"collab-go/app/store"
	"collab-go/app/thread"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// visibleTo filters t to tasks owned by or mentioning $user.
const visibleTo = "(t.owner = $user OR $user IN coalesce(t.mentioned_users, []))"

// taskReturn projects t with its thread messages in position order.
const taskReturn = `
OPTIONAL MATCH (t)-[:HAS_MESSAGE]->(m:TaskMessage)
WITH t, m ORDER BY m.position
WITH t, collect(m{.*}) AS messages
RETURN t{.*} AS task, messages
ORDER BY t.created_at DESC, t.id`

// CreateTask creates the Task node with its thread and assigns t.ID.
func (s *Store) CreateTask(ctx context.Context, t *store.Task) error {
	id := newID()
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (t:Task {id: $id, title: $title, status: $status, owner: $owner, "+
				"created_at: $createdAt, mentioned_users: $mentions, revision: 0})",
			map[string]any{
				"id":        id,
				"title":     t.Title,
				"status":    t.Status,
				"owner":     t.Owner,
				"createdAt": t.CreatedAt.UTC(),
				"mentions":  mentionParams(t.MentionedUsers),
			},
		)
		if err != nil {
			return nil, err
		}
		return nil, writeThread(ctx, tx, id, t.Messages)
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: create task: %w", err)
	}
	t.ID = id
	return nil
}

// TasksForUser lists tasks visible to username, newest first.
func (s *Store) TasksForUser(ctx context.Context, username string) ([]store.Task, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return queryTasks(ctx, tx, "MATCH (t:Task) WHERE "+visibleTo, map[string]any{"user": username})
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: list tasks: %w", err)
	}
	return result.([]store.Task), nil
}

func (s *Store) TaskForUser(ctx context.Context, taskID, username string) (*store.Task, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return queryTasks(ctx, tx, "MATCH (t:Task {id: $id}) WHERE "+visibleTo,
			map[string]any{"id": taskID, "user": username})
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: get task: %w", err)
	}
	tasks := result.([]store.Task)
	if len(tasks) == 0 {
		return nil, errs.ErrNotFound
	}
	return &tasks[0], nil
}

// ReplaceThread swaps the task's title, status, thread and mentions inside a
// single write transaction. Bumping the revision first takes the node's write
// lock; the ownership/mention check then runs against the locked node, so a
// concurrent writer cannot slip in between check and write.
func (s *Store) ReplaceThread(ctx context.Context, taskID, requester string, r store.Replacement) (*store.Task, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		locked, err := collect(ctx, tx,
			"MATCH (t:Task {id: $id}) SET t.revision = coalesce(t.revision, 0) + 1 RETURN t.id AS id",
			map[string]any{"id": taskID})
		if err != nil {
			return nil, err
		}
		if len(locked) == 0 {
			return nil, errs.ErrNotFound
		}

		current, err := collect(ctx, tx,
			"MATCH (t:Task {id: $id}) RETURN t.owner AS owner, coalesce(t.mentioned_users, []) AS mentioned",
			map[string]any{"id": taskID})
		if err != nil {
			return nil, err
		}
		if len(current) == 0 || !authorized(current[0], requester) {
			// Rolls back the revision bump too.
			return nil, errs.ErrNotFound
		}

		if _, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id})-[:HAS_MESSAGE]->(m:TaskMessage) DETACH DELETE m",
			map[string]any{"id": taskID}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) SET t.title = $title, t.status = $status, t.mentioned_users = $mentions",
			map[string]any{
				"id":       taskID,
				"title":    r.Title,
				"status":   r.Status,
				"mentions": mentionParams(r.Mentions),
			}); err != nil {
			return nil, err
		}
		if err := writeThread(ctx, tx, taskID, r.Messages); err != nil {
			return nil, err
		}

		tasks, err := queryTasks(ctx, tx, "MATCH (t:Task {id: $id})", map[string]any{"id": taskID})
		if err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			return nil, errs.ErrNotFound
		}
		return &tasks[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: replace thread %s: %w", taskID, err)
	}
	return result.(*store.Task), nil
}

// DeleteTask removes the task and its whole thread when owner owns it.
func (s *Store) DeleteTask(ctx context.Context, taskID, owner string) error {
	return s.writeExpectingRow(ctx,
		"MATCH (t:Task {id: $id, owner: $owner}) "+
			"OPTIONAL MATCH (t)-[:HAS_MESSAGE]->(m:TaskMessage) "+
			"WITH t, t.id AS id, collect(m) AS messages "+
			"FOREACH (m IN messages | DETACH DELETE m) "+
			"DETACH DELETE t RETURN id",
		map[string]any{"id": taskID, "owner": owner})
}

func authorized(rec *neo4j.Record, requester string) bool {
	if owner, _ := value(rec, "owner").(string); owner == requester {
		return true
	}
	return slices.Contains(stringList(value(rec, "mentioned")), requester)
}

// writeThread creates the TaskMessage nodes of a thread, then links each
// reply to its parent with HAS_PARENT.
func writeThread(ctx context.Context, tx neo4j.ManagedTransaction, taskID string, records []thread.Record) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := tx.Run(ctx,
		"MATCH (t:Task {id: $id}) "+
			"UNWIND $messages AS row "+
			"CREATE (t)-[:HAS_MESSAGE]->(m:TaskMessage) SET m = row",
		map[string]any{"id": taskID, "messages": messageRecordsToParams(records)}); err != nil {
		return err
	}
	_, err := tx.Run(ctx,
		"MATCH (t:Task {id: $id})-[:HAS_MESSAGE]->(child:TaskMessage) WHERE child.parent >= 0 "+
			"MATCH (t)-[:HAS_MESSAGE]->(parent:TaskMessage {position: child.parent}) "+
			"CREATE (child)-[:HAS_PARENT]->(parent)",
		map[string]any{"id": taskID})
	return err
}

func queryTasks(ctx context.Context, tx neo4j.ManagedTransaction, match string, params map[string]any) ([]store.Task, error) {
	records, err := collect(ctx, tx, match+taskReturn, params)
	if err != nil {
		return nil, err
	}
	tasks := make([]store.Task, 0, len(records))
	for _, rec := range records {
		t, err := taskFromRecord(rec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func mentionParams(mentions []string) []any {
	out := make([]any, len(mentions))
	for i, m := range mentions {
		out[i] = m
	}
	return out
}
