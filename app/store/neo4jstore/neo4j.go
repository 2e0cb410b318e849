// Package neo4jstore is the graph store backend. Tasks own their thread
// through HAS_MESSAGE relationships and replies point at their parent with
// HAS_PARENT.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store implements store.Store on a Neo4j database.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// New creates a Store. The driver's lifecycle passes to the Store.
func New(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

var schema = []string{
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	"CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
	"CREATE CONSTRAINT project_id IF NOT EXISTS FOR (p:Project) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT note_id IF NOT EXISTS FOR (n:Note) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT direct_message_id IF NOT EXISTS FOR (m:DirectMessage) REQUIRE m.id IS UNIQUE",
	"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
	"CREATE INDEX task_owner IF NOT EXISTS FOR (t:Task) ON (t.owner)",
	"CREATE INDEX direct_message_sender IF NOT EXISTS FOR (m:DirectMessage) ON (m.sender_id)",
	"CREATE INDEX direct_message_receiver IF NOT EXISTS FOR (m:DirectMessage) ON (m.receiver_id)",
}

// Migrate creates constraints and indexes. Schema statements cannot share a
// transaction with each other, so each runs on its own.
func (s *Store) Migrate(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range schema {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("neo4jstore: migrate %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// read runs work in a managed read transaction.
func (s *Store) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

// write runs work in a managed write transaction. Returning an error from
// work rolls the transaction back.
func (s *Store) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// collect runs a query and returns every record.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func newID() string {
	return uuid.New().String()
}

func isConstraintViolation(err error) bool {
	var nerr *neo4j.Neo4jError
	return errors.As(err, &nerr) && nerr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed"
}
