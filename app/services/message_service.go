package services

import (
	"context"
	"errors"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"
	"collab-go/app/store"
)

// MessageService handles direct messages between users.
type MessageService struct {
	messages store.MessageStore
	users    store.UserStore
	now      func() time.Time
}

// NewMessageService creates a new instance of MessageService.
func NewMessageService(messages store.MessageStore, users store.UserStore) *MessageService {
	return &MessageService{messages: messages, users: users, now: time.Now}
}

const unknownSender = "Unknown"

// Send stores a message from sender to an existing user.
func (s *MessageService) Send(ctx context.Context, sender models.User, req models.SendMessageRequest) (*models.DirectMessage, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.users.UserByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Detail(errs.ErrNotFound, "Receiver not found")
		}
		return nil, err
	}
	m := &store.DirectMessage{
		SenderID:   sender.ID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.messages.SendMessage(ctx, m); err != nil {
		return nil, err
	}
	out := toDirectMessage(*m, sender.Name)
	return &out, nil
}

// Inbox returns every message sent or received by userID, oldest first.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.DirectMessage, error) {
	msgs, err := s.messages.MessagesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withSenderNames(ctx, msgs)
}

// Conversation returns the messages exchanged with otherID, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]models.DirectMessage, error) {
	msgs, err := s.messages.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.withSenderNames(ctx, msgs)
}

// Conversations lists the users userID has exchanged messages with, in the
// order they first appear. Partners whose accounts no longer exist are skipped.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	msgs, err := s.messages.MessagesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := make([]models.Conversation, 0)
	for _, m := range msgs {
		for _, id := range []string{m.SenderID, m.ReceiverID} {
			if id == userID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			u, err := s.users.UserByID(ctx, id)
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, models.Conversation{ID: u.ID, Name: u.Name})
		}
	}
	return out, nil
}

func (s *MessageService) withSenderNames(ctx context.Context, msgs []store.DirectMessage) ([]models.DirectMessage, error) {
	names := make(map[string]string)
	out := make([]models.DirectMessage, 0, len(msgs))
	for _, m := range msgs {
		name, ok := names[m.SenderID]
		if !ok {
			name = unknownSender
			u, err := s.users.UserByID(ctx, m.SenderID)
			switch {
			case err == nil:
				name = u.Name
			case !errors.Is(err, errs.ErrNotFound):
				return nil, err
			}
			names[m.SenderID] = name
		}
		out = append(out, toDirectMessage(m, name))
	}
	return out, nil
}
