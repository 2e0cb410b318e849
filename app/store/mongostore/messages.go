package mongostore

import (
	"context"
	"fmt"

	"collab-go/app/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SendMessage inserts m and assigns its ID.
func (s *Store) SendMessage(ctx context.Context, m *store.DirectMessage) error {
	res, err := s.messages.InsertOne(ctx, directMessageDoc{
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("mongostore: send message: %w", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) MessagesForUser(ctx context.Context, userID string) ([]store.DirectMessage, error) {
	return s.findMessages(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}})
}

func (s *Store) Conversation(ctx context.Context, userID, otherID string) ([]store.DirectMessage, error) {
	return s.findMessages(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": userID, "receiver_id": otherID},
		bson.M{"sender_id": otherID, "receiver_id": userID},
	}})
}

func (s *Store) findMessages(ctx context.Context, filter bson.M) ([]store.DirectMessage, error) {
	cur, err := s.messages.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(1000))
	if err != nil {
		return nil, fmt.Errorf("mongostore: list messages: %w", err)
	}
	var docs []directMessageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list messages: %w", err)
	}
	out := make([]store.DirectMessage, len(docs))
	for i, d := range docs {
		out[i] = d.toStore()
	}
	return out, nil
}
