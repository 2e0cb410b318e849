package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"collab-go/app/errs"
	"collab-go/app/store"
	"collab-go/app/thread"
)

const taskColumns = "id, title, status, owner, created_at, revision"

// visibleTo matches tasks owned by or mentioning the bound username (two args).
const visibleTo = "(owner = ? OR EXISTS (SELECT 1 FROM task_mentions m WHERE m.task_id = tasks.id AND m.username = ?))"

// CreateTask inserts t with its thread and mentions and assigns its ID.
func (s *Store) CreateTask(ctx context.Context, t *store.Task) error {
	id := newID()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, 0)",
			id, t.Title, t.Status, t.Owner, toText(t.CreatedAt)); err != nil {
			return err
		}
		return writeThread(ctx, tx, id, t.Messages, t.MentionedUsers)
	})
	if err != nil {
		return fmt.Errorf("sqlitestore: create task: %w", err)
	}
	t.ID = id
	return nil
}

// TasksForUser lists tasks visible to username, newest first.
func (s *Store) TasksForUser(ctx context.Context, username string) ([]store.Task, error) {
	tasks, err := s.tasksWhere(ctx, s.db, visibleTo, username, username)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) TaskForUser(ctx context.Context, taskID, username string) (*store.Task, error) {
	tasks, err := s.tasksWhere(ctx, s.db, "id = ? AND "+visibleTo, taskID, username, username)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, errs.ErrNotFound
	}
	return &tasks[0], nil
}

// ReplaceThread swaps title, status, thread and mentions in one transaction.
// The guarded UPDATE runs first so the write lock is held while the
// ownership/mention predicate is evaluated against committed data.
func (s *Store) ReplaceThread(ctx context.Context, taskID, requester string, r store.Replacement) (*store.Task, error) {
	var updated *store.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE tasks SET title = ?, status = ?, revision = revision + 1 WHERE id = ? AND "+visibleTo,
			r.Title, r.Status, taskID, requester, requester)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM task_messages WHERE task_id = ?", taskID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM task_mentions WHERE task_id = ?", taskID); err != nil {
			return err
		}
		if err := writeThread(ctx, tx, taskID, r.Messages, r.Mentions); err != nil {
			return err
		}

		tasks, err := s.tasksWhere(ctx, tx, "id = ?", taskID)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return errs.ErrNotFound
		}
		updated = &tasks[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: replace thread %s: %w", taskID, err)
	}
	return updated, nil
}

// DeleteTask removes the task when owner owns it.
func (s *Store) DeleteTask(ctx context.Context, taskID, owner string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND owner = ?", taskID, owner)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete task: %w", err)
	}
	return requireAffected(res)
}

func writeThread(ctx context.Context, tx *sql.Tx, taskID string, records []thread.Record, mentions []string) error {
	for i, r := range records {
		parentID := sql.NullString{String: r.ParentID, Valid: r.HasParentID}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_messages (task_id, position, id, text, sender, timestamp, parent_id, parent, depth)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			taskID, i, r.ID, r.Text, r.Sender, toText(r.Timestamp), parentID, r.Parent, r.Depth); err != nil {
			return err
		}
	}
	for _, name := range mentions {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_mentions (task_id, username) VALUES (?, ?)", taskID, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) tasksWhere(ctx context.Context, q queryer, cond string, args ...any) ([]store.Task, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE "+cond+" ORDER BY created_at DESC, id", args...)
	if err != nil {
		return nil, err
	}
	var tasks []store.Task
	for rows.Next() {
		var t store.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Owner, timeText{&t.CreatedAt}, &t.Revision); err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := loadThread(ctx, q, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func loadThread(ctx context.Context, q queryer, t *store.Task) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, text, sender, timestamp, parent_id, parent, depth
		 FROM task_messages WHERE task_id = ? ORDER BY position`, t.ID)
	if err != nil {
		return err
	}
	t.Messages = []thread.Record{}
	for rows.Next() {
		var r thread.Record
		var parentID sql.NullString
		if err := rows.Scan(&r.ID, &r.Text, &r.Sender, timeText{&r.Timestamp}, &parentID, &r.Parent, &r.Depth); err != nil {
			rows.Close()
			return err
		}
		r.ParentID, r.HasParentID = parentID.String, parentID.Valid
		t.Messages = append(t.Messages, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx,
		"SELECT username FROM task_mentions WHERE task_id = ? ORDER BY username", t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	t.MentionedUsers = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		t.MentionedUsers = append(t.MentionedUsers, name)
	}
	return rows.Err()
}
