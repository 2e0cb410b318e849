package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"
	"collab-go/app/observability"
	"collab-go/app/store"
	"collab-go/app/thread"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("collab-go/services")

var errTaskNotVisible = errs.Detail(errs.ErrNotFound, "Task not found or you don't have permission")

// TaskService handles task-related operations.
type TaskService struct {
	tasks store.TaskStore
	now   func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(tasks store.TaskStore) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

// Create stores a task owned by owner with an empty thread.
func (s *TaskService) Create(ctx context.Context, owner string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.DefaultTaskStatus
	}
	createdAt := s.now().UTC().Truncate(time.Second)
	if req.CreatedAt != "" {
		ts, err := thread.ParseTimestamp(req.CreatedAt)
		if err != nil {
			return nil, errs.Validation("created_at", "must be an RFC 3339 timestamp within years 0000-9999 UTC")
		}
		createdAt = ts
	}

	t := &store.Task{
		Title:          req.Title,
		Status:         status,
		Owner:          owner,
		CreatedAt:      createdAt,
		Messages:       []thread.Record{},
		MentionedUsers: []string{},
	}
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	slog.Info("Task created", "task_id", t.ID, "user", owner)
	return toTask(t)
}

// List returns tasks owned by or mentioning username, newest first.
func (s *TaskService) List(ctx context.Context, username string) ([]models.Task, error) {
	tasks, err := s.tasks.TasksForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		t, err := toTask(&tasks[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// Get returns a task visible to username.
func (s *TaskService) Get(ctx context.Context, taskID, username string) (*models.Task, error) {
	t, err := s.tasks.TaskForUser(ctx, taskID, username)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errTaskNotVisible
	}
	if err != nil {
		return nil, err
	}
	return toTask(t)
}

// UpdateTask replaces title, status and the whole thread of a task. The
// requester must own the task or be mentioned in it as currently stored; the
// check and the write are one atomic store operation. A missing task and a
// forbidden one both report errs.ErrNotFound.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, requester string, req models.UpdateTaskRequest) (*models.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.UpdateTask", trace.WithAttributes(
		attribute.String("task.id", taskID),
		attribute.String("task.requester", requester),
	))
	defer span.End()

	if err := models.Validate(req); err != nil {
		observability.ObserveTaskUpdate(observability.OutcomeInvalid, 0)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	records, err := thread.Flatten(req.Messages)
	if err != nil {
		observability.ObserveTaskUpdate(observability.OutcomeInvalid, 0)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	mentions := thread.MentionsInRecords(records)
	span.SetAttributes(
		attribute.Int("thread.messages", len(records)),
		attribute.Int("thread.depth", thread.MaxDepth(records)),
		attribute.Int("thread.mentions", len(mentions)),
	)

	updated, err := s.tasks.ReplaceThread(ctx, taskID, requester, store.Replacement{
		Title:    req.Title,
		Status:   req.Status,
		Messages: records,
		Mentions: mentions,
	})
	if errors.Is(err, errs.ErrNotFound) {
		observability.ObserveTaskUpdate(observability.OutcomeNotFound, 0)
		span.SetStatus(codes.Error, "not found")
		slog.Debug("Task update refused", "task_id", taskID, "user", requester)
		return nil, errTaskNotVisible
	}
	if err != nil {
		observability.ObserveTaskUpdate(observability.OutcomeError, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Task update failed", "task_id", taskID, "user", requester, "error", err)
		return nil, err
	}

	observability.ObserveTaskUpdate(observability.OutcomeUpdated, len(mentions))
	slog.Debug("Task updated",
		"task_id", taskID,
		"user", requester,
		"messages", len(records),
		"mentions", len(mentions),
		"revision", updated.Revision,
	)
	return toTask(updated)
}

// Delete removes a task. Only its owner may delete it.
func (s *TaskService) Delete(ctx context.Context, taskID, owner string) error {
	err := s.tasks.DeleteTask(ctx, taskID, owner)
	if errors.Is(err, errs.ErrNotFound) {
		return errTaskNotVisible
	}
	return err
}
