package neo4jstore

import (
	"context"
	"fmt"

	"collab-go/app/errs"
	"collab-go/app/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// projectReturn loads members and notes for each matched p, both in insertion order.
const projectReturn = `
CALL {
	WITH p
	OPTIONAL MATCH (p)-[r:HAS_MEMBER]->(u:User)
	WITH r, u ORDER BY r.seq
	RETURN collect(CASE WHEN u IS NULL THEN NULL ELSE {id: u.id, name: r.name, email: r.email} END) AS members
}
CALL {
	WITH p
	OPTIONAL MATCH (p)-[:HAS_NOTE]->(n:Note)
	WITH n ORDER BY n.seq
	RETURN collect(n{.*}) AS notes
}
RETURN p{.*} AS project, members, notes
ORDER BY p.created_at, p.id`

// CreateProject creates the project node and links its initial members.
func (s *Store) CreateProject(ctx context.Context, p *store.Project) error {
	id := newID()
	members := make([]any, len(p.Members))
	for i, m := range p.Members {
		members[i] = map[string]any{"id": m.ID, "name": m.Name, "email": m.Email, "seq": int64(i)}
	}
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (p:Project {id: $id, title: $title, description: $description, created_by: $createdBy, created_at: $createdAt}) "+
				"WITH p UNWIND $members AS member "+
				"MERGE (u:User {id: member.id}) "+
				"CREATE (p)-[:HAS_MEMBER {seq: member.seq, name: member.name, email: member.email}]->(u)",
			map[string]any{
				"id":          id,
				"title":       p.Title,
				"description": p.Description,
				"createdBy":   p.CreatedBy,
				"createdAt":   p.CreatedAt.UTC(),
				"members":     members,
			},
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: create project: %w", err)
	}
	p.ID = id
	return nil
}

func (s *Store) ProjectsForMember(ctx context.Context, userID string) ([]store.Project, error) {
	return s.projects(ctx,
		"MATCH (p:Project)-[:HAS_MEMBER]->(:User {id: $userID}) "+projectReturn,
		map[string]any{"userID": userID})
}

func (s *Store) ProjectForMember(ctx context.Context, projectID, userID string) (*store.Project, error) {
	return s.oneProject(ctx,
		"MATCH (p:Project {id: $projectID}) "+
			"WHERE p.created_by = $userID OR EXISTS { (p)-[:HAS_MEMBER]->(:User {id: $userID}) } "+projectReturn,
		map[string]any{"projectID": projectID, "userID": userID})
}

func (s *Store) ProjectByID(ctx context.Context, projectID string) (*store.Project, error) {
	return s.oneProject(ctx, "MATCH (p:Project {id: $projectID}) "+projectReturn,
		map[string]any{"projectID": projectID})
}

func (s *Store) oneProject(ctx context.Context, query string, params map[string]any) (*store.Project, error) {
	projects, err := s.projects(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, errs.ErrNotFound
	}
	return &projects[0], nil
}

func (s *Store) projects(ctx context.Context, query string, params map[string]any) ([]store.Project, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		projects := make([]store.Project, 0, len(records))
		for _, rec := range records {
			p, err := projectFromRecord(rec)
			if err != nil {
				return nil, err
			}
			projects = append(projects, p)
		}
		return projects, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: query projects: %w", err)
	}
	return result.([]store.Project), nil
}

// AddMember links the user to the project unless already linked.
func (s *Store) AddMember(ctx context.Context, projectID string, m store.Member) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx,
			"MATCH (p:Project {id: $projectID}) "+
				"OPTIONAL MATCH (p)-[r:HAS_MEMBER]->(:User) "+
				"RETURN count(r) AS members, "+
				"EXISTS { (p)-[:HAS_MEMBER]->(:User {id: $userID}) } AS already",
			map[string]any{"projectID": projectID, "userID": m.ID},
		)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errs.ErrNotFound
		}
		if already, _ := value(records[0], "already").(bool); already {
			return nil, errs.Detail(errs.ErrConflict, "User is already a member")
		}
		seq, _ := value(records[0], "members").(int64)

		_, err = tx.Run(ctx,
			"MATCH (p:Project {id: $projectID}) "+
				"MERGE (u:User {id: $userID}) "+
				"CREATE (p)-[:HAS_MEMBER {seq: $seq, name: $name, email: $email}]->(u)",
			map[string]any{"projectID": projectID, "userID": m.ID, "seq": seq, "name": m.Name, "email": m.Email},
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: add member: %w", err)
	}
	return nil
}

// AddNote creates a Note under the project and assigns n.ID.
func (s *Store) AddNote(ctx context.Context, projectID string, n *store.Note) error {
	id := newID()
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx,
			"MATCH (p:Project {id: $projectID}) "+
				"OPTIONAL MATCH (p)-[:HAS_NOTE]->(existing:Note) "+
				"WITH p, coalesce(max(existing.seq), -1) + 1 AS seq "+
				"CREATE (p)-[:HAS_NOTE]->(n:Note {id: $id, title: $title, body: $body, created_at: $createdAt, seq: seq}) "+
				"RETURN n.id AS id",
			map[string]any{
				"projectID": projectID,
				"id":        id,
				"title":     n.Title,
				"body":      n.Body,
				"createdAt": n.CreatedAt.UTC(),
			},
		)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errs.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: add note: %w", err)
	}
	n.ID = id
	return nil
}

func (s *Store) UpdateNote(ctx context.Context, projectID string, n store.Note) error {
	return s.writeExpectingRow(ctx,
		"MATCH (:Project {id: $projectID})-[:HAS_NOTE]->(n:Note {id: $noteID}) "+
			"SET n.title = $title, n.body = $body, n.created_at = $createdAt "+
			"RETURN n.id AS id",
		map[string]any{
			"projectID": projectID,
			"noteID":    n.ID,
			"title":     n.Title,
			"body":      n.Body,
			"createdAt": n.CreatedAt.UTC(),
		})
}

func (s *Store) DeleteNote(ctx context.Context, projectID, noteID string) error {
	return s.writeExpectingRow(ctx,
		"MATCH (:Project {id: $projectID})-[:HAS_NOTE]->(n:Note {id: $noteID}) "+
			"WITH n, n.id AS id DETACH DELETE n RETURN id",
		map[string]any{"projectID": projectID, "noteID": noteID})
}

// writeExpectingRow runs a single write statement and maps zero rows to errs.ErrNotFound.
func (s *Store) writeExpectingRow(ctx context.Context, query string, params map[string]any) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errs.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: write: %w", err)
	}
	return nil
}
