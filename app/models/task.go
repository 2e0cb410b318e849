package models

// DefaultTaskStatus is assigned when a task is created without a status.
const DefaultTaskStatus = "pending"

// Task is the read representation of a task and its discussion thread.
type Task struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Status         string        `json:"status"`
	Messages       []TaskMessage `json:"messages"`
	Owner          string        `json:"owner"`
	CreatedAt      string        `json:"created_at"`
	MentionedUsers []string      `json:"mentioned_users"`
}

// TaskMessage is one node of a task thread. Replies nest to any depth.
// Replies is not validated here; the thread package walks the tree itself.
type TaskMessage struct {
	ID        string        `json:"id" validate:"required"`
	Text      string        `json:"text"`
	Sender    string        `json:"sender" validate:"required"`
	Timestamp string        `json:"timestamp" validate:"required"`
	ParentID  *string       `json:"parentId"`
	Replies   []TaskMessage `json:"replies"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Status    string `json:"status" validate:"max=50"`
	CreatedAt string `json:"created_at"`
}

// UpdateTaskRequest is the body of PUT /tasks/{taskID}. All fields are
// replaced together.
type UpdateTaskRequest struct {
	Title    string        `json:"title" validate:"required,max=200"`
	Status   string        `json:"status" validate:"required,max=50"`
	Messages []TaskMessage `json:"messages"`
}
