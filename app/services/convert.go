package services

import (
	"fmt"
	"time"

	"collab-go/app/models"
	"collab-go/app/store"
	"collab-go/app/thread"
)

// formatTime renders non-thread timestamps at second precision.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUser(u *store.User) *models.User {
	return &models.User{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email}
}

func toMember(m store.Member) models.Member {
	return models.Member{ID: m.ID, Name: m.Name, Email: m.Email}
}

func toNote(n store.Note) models.Note {
	return models.Note{ID: n.ID, Title: n.Title, Body: n.Body, CreatedAt: formatTime(n.CreatedAt)}
}

func toProject(p *store.Project) *models.Project {
	out := &models.Project{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Members:     make([]models.Member, 0, len(p.Members)),
		Notes:       make([]models.Note, 0, len(p.Notes)),
		CreatedBy:   p.CreatedBy,
		CreatedAt:   formatTime(p.CreatedAt),
	}
	for _, m := range p.Members {
		out.Members = append(out.Members, toMember(m))
	}
	for _, n := range p.Notes {
		out.Notes = append(out.Notes, toNote(n))
	}
	return out
}

func toDirectMessage(m store.DirectMessage, senderName string) models.DirectMessage {
	return models.DirectMessage{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: senderName,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  thread.FormatTimestamp(m.CreatedAt),
	}
}

// toTask rebuilds the nested thread from its stored records.
func toTask(t *store.Task) (*models.Task, error) {
	messages, err := thread.Build(t.Messages)
	if err != nil {
		return nil, fmt.Errorf("task %s has a corrupt thread: %w", t.ID, err)
	}
	mentioned := t.MentionedUsers
	if mentioned == nil {
		mentioned = []string{}
	}
	return &models.Task{
		ID:             t.ID,
		Title:          t.Title,
		Status:         t.Status,
		Messages:       messages,
		Owner:          t.Owner,
		CreatedAt:      thread.FormatTimestamp(t.CreatedAt),
		MentionedUsers: mentioned,
	}, nil
}
