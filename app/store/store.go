// Package store defines the persistence boundary. Backends live in the
// sqlitestore, neo4jstore and mongostore subpackages.
package store

import (
	"context"
	"sort"
	"time"

	"collab-go/app/thread"
)

// User is an account as persisted, including the password hash.
type User struct {
	ID           string
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

type Member struct {
	ID    string
	Name  string
	Email string
}

type Note struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
}

type Project struct {
	ID          string
	Title       string
	Description string
	Members     []Member
	Notes       []Note
	CreatedBy   string
	CreatedAt   time.Time
}

type DirectMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
}

// Task is a task with its thread in flat pre-order form.
type Task struct {
	ID             string
	Title          string
	Status         string
	Owner          string
	CreatedAt      time.Time
	Messages       []thread.Record
	MentionedUsers []string
	Revision       int64
}

// Replacement is the full set of fields a thread update swaps in at once.
type Replacement struct {
	Title    string
	Status   string
	Messages []thread.Record
	Mentions []string
}

type UserStore interface {
	// CreateUser assigns u.ID. Duplicate email or username yields errs.ErrConflict.
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type ProjectStore interface {
	// CreateProject assigns p.ID.
	CreateProject(ctx context.Context, p *Project) error
	ProjectsForMember(ctx context.Context, userID string) ([]Project, error)
	// ProjectForMember finds a project the user belongs to or created.
	ProjectForMember(ctx context.Context, projectID, userID string) (*Project, error)
	ProjectByID(ctx context.Context, projectID string) (*Project, error)
	// AddMember yields errs.ErrConflict when the user is already a member.
	AddMember(ctx context.Context, projectID string, m Member) error
	// AddNote assigns n.ID.
	AddNote(ctx context.Context, projectID string, n *Note) error
	UpdateNote(ctx context.Context, projectID string, n Note) error
	DeleteNote(ctx context.Context, projectID, noteID string) error
}

type MessageStore interface {
	// SendMessage assigns m.ID.
	SendMessage(ctx context.Context, m *DirectMessage) error
	// MessagesForUser returns messages sent or received by userID, oldest first.
	MessagesForUser(ctx context.Context, userID string) ([]DirectMessage, error)
	// Conversation returns messages between the two users, oldest first.
	Conversation(ctx context.Context, userID, otherID string) ([]DirectMessage, error)
}

type TaskStore interface {
	// CreateTask assigns t.ID.
	CreateTask(ctx context.Context, t *Task) error
	// TasksForUser lists tasks owned by or mentioning username, newest first,
	// ties broken by id.
	TasksForUser(ctx context.Context, username string) ([]Task, error)
	TaskForUser(ctx context.Context, taskID, username string) (*Task, error)
	// ReplaceThread atomically checks that requester owns or is mentioned by
	// the task as currently stored and swaps in r. When the check fails, or the
	// task does not exist, it returns errs.ErrNotFound and writes nothing.
	ReplaceThread(ctx context.Context, taskID, requester string, r Replacement) (*Task, error)
	// DeleteTask removes a task owned by owner.
	DeleteTask(ctx context.Context, taskID, owner string) error
}

// Store bundles every repository behind one handle.
type Store interface {
	UserStore
	ProjectStore
	MessageStore
	TaskStore
	// Migrate creates tables, indexes or constraints.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

// SortTasks orders tasks newest first, then by id. Backends that cannot
// express the tie-break in their query language call it after loading.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
