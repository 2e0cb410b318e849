package neo4jstore

import (
	"fmt"
	"time"

	"collab-go/app/store"
	"collab-go/app/thread"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Property maps come back from map projections (n{.*}) as map[string]any
// holding driver types: string, int64, bool, time.Time and []any.

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func integer(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func timestamp(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return v.Time().UTC()
	}
	return time.Time{}
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func maps(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func value(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func propMap(rec *neo4j.Record, key string) (map[string]any, error) {
	m, ok := value(rec, key).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("neo4jstore: column %q is not a map", key)
	}
	return m, nil
}

func userFromMap(m map[string]any) store.User {
	return store.User{
		ID:           str(m, "id"),
		Name:         str(m, "name"),
		Email:        str(m, "email"),
		Username:     str(m, "username"),
		PasswordHash: str(m, "password_hash"),
	}
}

// messageRecordToMap leaves parent_id null when the client sent none; SET
// drops null properties, so absence survives the round trip.
func messageRecordToMap(position int, r thread.Record) map[string]any {
	var parentID any
	if r.HasParentID {
		parentID = r.ParentID
	}
	return map[string]any{
		"position":  int64(position),
		"id":        r.ID,
		"text":      r.Text,
		"sender":    r.Sender,
		"timestamp": r.Timestamp.UTC(),
		"parent_id": parentID,
		"parent":    int64(r.Parent),
		"depth":     int64(r.Depth),
	}
}

func messageRecordFromMap(m map[string]any) thread.Record {
	parentID, hasParentID := m["parent_id"].(string)
	return thread.Record{
		ID:          str(m, "id"),
		Text:        str(m, "text"),
		Sender:      str(m, "sender"),
		Timestamp:   timestamp(m, "timestamp"),
		ParentID:    parentID,
		HasParentID: hasParentID,
		Parent:      int(integer(m, "parent")),
		Depth:       int(integer(m, "depth")),
	}
}

// messageRecordsToParams converts records to a query parameter list.
func messageRecordsToParams(records []thread.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = messageRecordToMap(i, r)
	}
	return out
}

// taskFromRecord decodes a row with a "task" map and a "messages" list that
// is already ordered by position.
func taskFromRecord(rec *neo4j.Record) (store.Task, error) {
	m, err := propMap(rec, "task")
	if err != nil {
		return store.Task{}, err
	}
	t := store.Task{
		ID:             str(m, "id"),
		Title:          str(m, "title"),
		Status:         str(m, "status"),
		Owner:          str(m, "owner"),
		CreatedAt:      timestamp(m, "created_at"),
		MentionedUsers: stringList(m["mentioned_users"]),
		Revision:       integer(m, "revision"),
		Messages:       []thread.Record{},
	}
	for _, mm := range maps(value(rec, "messages")) {
		t.Messages = append(t.Messages, messageRecordFromMap(mm))
	}
	return t, nil
}

func projectFromRecord(rec *neo4j.Record) (store.Project, error) {
	m, err := propMap(rec, "project")
	if err != nil {
		return store.Project{}, err
	}
	p := store.Project{
		ID:          str(m, "id"),
		Title:       str(m, "title"),
		Description: str(m, "description"),
		CreatedBy:   str(m, "created_by"),
		CreatedAt:   timestamp(m, "created_at"),
		Members:     []store.Member{},
		Notes:       []store.Note{},
	}
	for _, mm := range maps(value(rec, "members")) {
		p.Members = append(p.Members, store.Member{ID: str(mm, "id"), Name: str(mm, "name"), Email: str(mm, "email")})
	}
	for _, nm := range maps(value(rec, "notes")) {
		p.Notes = append(p.Notes, store.Note{
			ID:        str(nm, "id"),
			Title:     str(nm, "title"),
			Body:      str(nm, "body"),
			CreatedAt: timestamp(nm, "created_at"),
		})
	}
	return p, nil
}

func directMessageFromMap(m map[string]any) store.DirectMessage {
	return store.DirectMessage{
		ID:         str(m, "id"),
		SenderID:   str(m, "sender_id"),
		ReceiverID: str(m, "receiver_id"),
		Content:    str(m, "content"),
		CreatedAt:  timestamp(m, "created_at"),
	}
}
