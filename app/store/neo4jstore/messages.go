package neo4jstore

import (
	"context"
	"fmt"

	"collab-go/app/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SendMessage creates a DirectMessage node and assigns m.ID.
func (s *Store) SendMessage(ctx context.Context, m *store.DirectMessage) error {
	id := newID()
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (m:DirectMessage {id: $id, sender_id: $sender, receiver_id: $receiver, content: $content, created_at: $createdAt})",
			map[string]any{
				"id":        id,
				"sender":    m.SenderID,
				"receiver":  m.ReceiverID,
				"content":   m.Content,
				"createdAt": m.CreatedAt.UTC(),
			},
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: send message: %w", err)
	}
	m.ID = id
	return nil
}

func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]store.DirectMessage, error) {
	return s.directMessages(ctx,
		"MATCH (m:DirectMessage) WHERE m.sender_id = $user OR m.receiver_id = $user",
		map[string]any{"user": userID})
}

func (s *Store) Conversation(ctx context.Context, userID, otherID string) ([]store.DirectMessage, error) {
	return s.directMessages(ctx,
		"MATCH (m:DirectMessage) WHERE (m.sender_id = $user AND m.receiver_id = $other) "+
			"OR (m.sender_id = $other AND m.receiver_id = $user)",
		map[string]any{"user": userID, "other": otherID})
}

func (s *Store) directMessages(ctx context.Context, match string, params map[string]any) ([]store.DirectMessage, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, match+" RETURN m{.*} AS message ORDER BY m.created_at, m.id", params)
		if err != nil {
			return nil, err
		}
		out := make([]store.DirectMessage, 0, len(records))
		for _, rec := range records {
			m, err := propMap(rec, "message")
			if err != nil {
				return nil, err
			}
			out = append(out, directMessageFromMap(m))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: list messages: %w", err)
	}
	return result.([]store.DirectMessage), nil
}
