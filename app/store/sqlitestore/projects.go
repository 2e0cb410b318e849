package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"collab-go/app/errs"
	"collab-go/app/store"
)

// CreateProject inserts p with its initial members and assigns its ID.
func (s *Store) CreateProject(ctx context.Context, p *store.Project) error {
	id := newID()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO projects (id, title, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
			id, p.Title, p.Description, p.CreatedBy, toText(p.CreatedAt),
		)
		if err != nil {
			return err
		}
		for i, m := range p.Members {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO project_members (project_id, user_id, name, email, seq) VALUES (?, ?, ?, ?, ?)",
				id, m.ID, m.Name, m.Email, i,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlitestore: create project: %w", err)
	}
	p.ID = id
	return nil
}

// ProjectsForMember lists projects the user is a member of, oldest first.
func (s *Store) ProjectsForMember(ctx context.Context, userID string) ([]store.Project, error) {
	projects, err := s.projectsWhere(ctx,
		"id IN (SELECT project_id FROM project_members WHERE user_id = ?)", userID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list projects: %w", err)
	}
	return projects, nil
}

// ProjectForMember returns the project when the user is a member or its creator.
func (s *Store) ProjectForMember(ctx context.Context, projectID, userID string) (*store.Project, error) {
	projects, err := s.projectsWhere(ctx,
		"id = ? AND (created_by = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?))",
		projectID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get project: %w", err)
	}
	if len(projects) == 0 {
		return nil, errs.ErrNotFound
	}
	return &projects[0], nil
}

func (s *Store) ProjectByID(ctx context.Context, projectID string) (*store.Project, error) {
	projects, err := s.projectsWhere(ctx, "id = ?", projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get project: %w", err)
	}
	if len(projects) == 0 {
		return nil, errs.ErrNotFound
	}
	return &projects[0], nil
}

func (s *Store) projectsWhere(ctx context.Context, cond string, args ...any) ([]store.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, created_by, created_at FROM projects WHERE "+cond+" ORDER BY created_at, id",
		args...)
	if err != nil {
		return nil, err
	}
	var projects []store.Project
	for rows.Next() {
		var p store.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, timeText{&p.CreatedAt}); err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// rows must be closed first: the pool holds a single connection
	for i := range projects {
		if err := s.loadProjectChildren(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *Store) loadProjectChildren(ctx context.Context, p *store.Project) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, name, email FROM project_members WHERE project_id = ? ORDER BY seq", p.ID)
	if err != nil {
		return err
	}
	p.Members = []store.Member{}
	for rows.Next() {
		var m store.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			rows.Close()
			return err
		}
		p.Members = append(p.Members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT id, title, body, created_at FROM project_notes WHERE project_id = ? ORDER BY seq", p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	p.Notes = []store.Note{}
	for rows.Next() {
		var n store.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, timeText{&n.CreatedAt}); err != nil {
			return err
		}
		p.Notes = append(p.Notes, n)
	}
	return rows.Err()
}

// AddMember appends m to the project's member list.
func (s *Store) AddMember(ctx context.Context, projectID string, m store.Member) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(seq), -1) + 1 FROM project_members WHERE project_id = ?", projectID).Scan(&next)
		if err != nil {
			return err
		}
		if err := projectExists(ctx, tx, projectID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO project_members (project_id, user_id, name, email, seq) VALUES (?, ?, ?, ?, ?)",
			projectID, m.ID, m.Name, m.Email, next)
		if isUniqueViolation(err) {
			return errs.Detail(errs.ErrConflict, "User is already a member")
		}
		return err
	})
}

// AddNote appends n to the project and assigns its ID.
func (s *Store) AddNote(ctx context.Context, projectID string, n *store.Note) error {
	id := newID()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := projectExists(ctx, tx, projectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_notes (id, project_id, title, body, created_at, seq)
			 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM project_notes WHERE project_id = ?))`,
			id, projectID, n.Title, n.Body, toText(n.CreatedAt), projectID)
		return err
	})
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

// UpdateNote replaces title, body and timestamp of an existing note.
func (s *Store) UpdateNote(ctx context.Context, projectID string, n store.Note) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE project_notes SET title = ?, body = ?, created_at = ? WHERE id = ? AND project_id = ?",
		n.Title, n.Body, toText(n.CreatedAt), n.ID, projectID)
	if err != nil {
		return fmt.Errorf("sqlitestore: update note: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteNote(ctx context.Context, projectID, noteID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM project_notes WHERE id = ? AND project_id = ?", noteID, projectID)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete note: %w", err)
	}
	return requireAffected(res)
}

func projectExists(ctx context.Context, q queryer, projectID string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", projectID).Scan(&one)
	return notFound(err)
}
