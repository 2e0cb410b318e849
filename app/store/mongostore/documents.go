package mongostore

import (
	"time"

	"collab-go/app/store"
	"collab-go/app/thread"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
}

type memberDoc struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type projectDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Members     []memberDoc        `bson:"members"`
	Notes       []noteDoc          `bson:"notes"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type directMessageDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Content    string             `bson:"content"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// threadMessageDoc is one flat thread record. Threads are kept flat so
// arbitrarily deep reply chains stay under the BSON nesting limit.
type threadMessageDoc struct {
	ID        string    `bson:"id"`
	Text      string    `bson:"text"`
	Sender    string    `bson:"sender"`
	Timestamp time.Time `bson:"timestamp"`
	ParentID  *string   `bson:"parentId,omitempty"`
	Parent    int       `bson:"parent"`
	Depth     int       `bson:"depth"`
}

type taskDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Status         string             `bson:"status"`
	Messages       []threadMessageDoc `bson:"messages"`
	Owner          string             `bson:"owner"`
	CreatedAt      time.Time          `bson:"created_at"`
	MentionedUsers []string           `bson:"mentioned_users"`
	Revision       int64              `bson:"revision"`
}

func (d userDoc) toStore() store.User {
	return store.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
	}
}

func (d projectDoc) toStore() store.Project {
	p := store.Project{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.UTC(),
		Members:     make([]store.Member, len(d.Members)),
		Notes:       make([]store.Note, len(d.Notes)),
	}
	for i, m := range d.Members {
		p.Members[i] = store.Member{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	for i, n := range d.Notes {
		p.Notes[i] = store.Note{ID: n.ID.Hex(), Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt.UTC()}
	}
	return p
}

func (d directMessageDoc) toStore() store.DirectMessage {
	return store.DirectMessage{
		ID:         d.ID.Hex(),
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Content:    d.Content,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func threadToDocs(records []thread.Record) []threadMessageDoc {
	docs := make([]threadMessageDoc, len(records))
	for i, r := range records {
		r := r
		var parentID *string
		if r.HasParentID {
			parentID = &r.ParentID
		}
		docs[i] = threadMessageDoc{
			ID:        r.ID,
			Text:      r.Text,
			Sender:    r.Sender,
			Timestamp: r.Timestamp.UTC(),
			ParentID:  parentID,
			Parent:    r.Parent,
			Depth:     r.Depth,
		}
	}
	return docs
}

func (d taskDoc) toStore() store.Task {
	t := store.Task{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Status:         d.Status,
		Owner:          d.Owner,
		CreatedAt:      d.CreatedAt.UTC(),
		MentionedUsers: append([]string{}, d.MentionedUsers...),
		Revision:       d.Revision,
		Messages:       make([]thread.Record, len(d.Messages)),
	}
	for i, m := range d.Messages {
		t.Messages[i] = thread.Record{
			ID:        m.ID,
			Text:      m.Text,
			Sender:    m.Sender,
			Timestamp: m.Timestamp.UTC(),
			Parent:    m.Parent,
			Depth:     m.Depth,
		}
		if m.ParentID != nil {
			t.Messages[i].ParentID, t.Messages[i].HasParentID = *m.ParentID, true
		}
	}
	return t
}
