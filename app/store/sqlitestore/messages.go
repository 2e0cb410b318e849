package sqlitestore

import (
	"context"
	"fmt"

	"collab-go/app/store"
)

const messageColumns = "id, sender_id, receiver_id, content, created_at"

// SendMessage stores m and assigns its ID.
func (s *Store) SendMessage(ctx context.Context, m *store.DirectMessage) error {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO direct_messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?)",
		id, m.SenderID, m.ReceiverID, m.Content, toText(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlitestore: send message: %w", err)
	}
	m.ID = id
	return nil
}

func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]store.DirectMessage, error) {
	return s.messagesWhere(ctx, "sender_id = ? OR receiver_id = ?", userID, userID)
}

func (s *Store) Conversation(ctx context.Context, userID, otherID string) ([]store.DirectMessage, error) {
	return s.messagesWhere(ctx,
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, otherID, otherID, userID)
}

func (s *Store) messagesWhere(ctx context.Context, cond string, args ...any) ([]store.DirectMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM direct_messages WHERE "+cond+" ORDER BY created_at, seq", args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list messages: %w", err)
	}
	defer rows.Close()

	var out []store.DirectMessage
	for rows.Next() {
		var m store.DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, timeText{&m.CreatedAt}); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
