package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"
	"collab-go/app/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, sender, text string, replies ...models.TaskMessage) models.TaskMessage {
	if replies == nil {
		replies = []models.TaskMessage{}
	}
	for i := range replies {
		pid := id
		replies[i].ParentID = &pid
	}
	return models.TaskMessage{
		ID:        id,
		Text:      text,
		Sender:    sender,
		Timestamp: "2025-03-01T10:00:00Z",
		Replies:   replies,
	}
}

func newTaskService(t *testing.T) *TaskService {
	svc := NewTaskService(newTestStore(t))
	svc.now = clock
	return svc
}

func TestCreateTask(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Write docs"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTaskStatus, task.Status)
	assert.Equal(t, "carol", task.Owner)
	assert.Equal(t, "2025-03-01T09:30:15Z", task.CreatedAt)
	assert.Equal(t, []models.TaskMessage{}, task.Messages)
	assert.Equal(t, []string{}, task.MentionedUsers)

	task, err = svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Backdated", Status: "doing", CreatedAt: "2024-12-31T23:00:00+02:00"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31T21:00:00Z", task.CreatedAt)
	assert.Equal(t, "doing", task.Status)

	_, err = svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "bad", CreatedAt: "yesterday"})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "created_at", verr.Field)

	_, err = svc.Create(ctx, "carol", models.CreateTaskRequest{})
	assert.True(t, errs.IsValidation(err))
}

func TestCreateTask_CreatedAtReadsBackUnchanged(t *testing.T) {
	tests := []struct {
		name      string
		createdAt string
		want      string
	}{
		{"fractional seconds", "2025-03-01T09:30:15.25Z", "2025-03-01T09:30:15.25Z"},
		{"nanoseconds with offset", "2025-03-01T11:30:15.000000007+02:00", "2025-03-01T09:30:15.000000007Z"},
		{"year 1600", "1600-01-01T00:00:00Z", "1600-01-01T00:00:00Z"},
		{"year 2999", "2999-01-01T00:00:00Z", "2999-01-01T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTaskService(t)
			ctx := context.Background()

			created, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Dated", CreatedAt: tt.createdAt})
			require.NoError(t, err)
			assert.Equal(t, tt.want, created.CreatedAt)

			got, err := svc.Get(ctx, created.ID, "carol")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.CreatedAt)
		})
	}
}

func TestCreateTask_CreatedAtOutOfRange(t *testing.T) {
	svc := newTaskService(t)

	_, err := svc.Create(context.Background(), "carol", models.CreateTaskRequest{Title: "late", CreatedAt: "9999-12-31T23:00:00-05:00"})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "created_at", verr.Field)
}

func TestUpdateTask_FarTimestampsReadBack(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)

	for _, ts := range []string{"2999-01-01T00:00:00Z", "1600-01-01T00:00:00Z"} {
		m := msg("m1", "carol", "@dave", msg("m2", "dave", "ok"))
		m.Timestamp = ts
		m.Replies[0].Timestamp = ts
		_, err := svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{Title: "Plan", Status: "doing", Messages: []models.TaskMessage{m}})
		require.NoError(t, err)

		got, err := svc.Get(ctx, task.ID, "carol")
		require.NoError(t, err)
		assert.Equal(t, []models.TaskMessage{m}, got.Messages)
	}
}

func TestUpdateTask_MentionedUserDeepInThread(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)

	thread1 := []models.TaskMessage{
		msg("m1", "carol", "kickoff",
			msg("m2", "carol", "details",
				msg("m3", "carol", "details",
					msg("m4", "carol", "over to you @dave")))),
	}
	updated, err := svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{Title: "Plan", Status: "doing", Messages: thread1})
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, updated.MentionedUsers)
	assert.Equal(t, thread1, updated.Messages)

	// dave can see and update the task now
	list, err := svc.List(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, list, 1)

	thread2 := append(thread1, msg("m5", "dave", "done, thanks @carol"))
	updated, err = svc.UpdateTask(ctx, task.ID, "dave", models.UpdateTaskRequest{Title: "Plan", Status: "done", Messages: thread2})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, updated.MentionedUsers)
	assert.Equal(t, "done", updated.Status)

	// eve is neither owner nor mentioned
	_, err = svc.UpdateTask(ctx, task.ID, "eve", models.UpdateTaskRequest{Title: "hijack", Status: "x"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Get(ctx, task.ID, "eve")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := svc.Get(ctx, task.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdateTask_EmptyThreadClearsMentions(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{
		Title: "Plan", Status: "doing",
		Messages: []models.TaskMessage{msg("m1", "carol", "@dave @erin")},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{Title: "Plan", Status: "doing", Messages: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{}, updated.MentionedUsers)
	assert.Equal(t, []models.TaskMessage{}, updated.Messages)

	list, err := svc.List(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateTask_InvalidTreeLeavesTaskUnchanged(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)

	bad := msg("m1", "carol", "root", msg("m2", "carol", "child"))
	bad.Replies[0].Timestamp = "last tuesday"
	_, err = svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{Title: "changed", Status: "x", Messages: []models.TaskMessage{bad}})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "messages[0].replies[0].timestamp", verr.Field)

	got, err := svc.Get(ctx, task.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func TestUpdateTask_OutsiderCannotTouch(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)

	// mentioning yourself in the submission does not grant access
	_, err = svc.UpdateTask(ctx, task.ID, "mallory", models.UpdateTaskRequest{
		Title: "mine", Status: "x",
		Messages: []models.TaskMessage{msg("m1", "mallory", "@mallory")},
	})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := svc.Get(ctx, task.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, task, got)

	_, err = svc.UpdateTask(ctx, "no-such-task", "carol", models.UpdateTaskRequest{Title: "t", Status: "s"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateTask_ConcurrentWritersLeaveOneSubmission(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{
		Title: "Plan", Status: "doing",
		Messages: []models.TaskMessage{msg("m0", "carol", "ping @dave")},
	})
	require.NoError(t, err)

	submission := func(who string) models.UpdateTaskRequest {
		return models.UpdateTaskRequest{
			Title:  "by " + who,
			Status: who,
			Messages: []models.TaskMessage{
				msg("m0", "carol", "ping @dave",
					msg(who+"-1", who, fmt.Sprintf("reply from %s", who))),
			},
		}
	}

	var wg sync.WaitGroup
	results := make(map[string]*models.Task)
	var mu sync.Mutex
	for _, who := range []string{"carol", "dave"} {
		wg.Add(1)
		go func(who string) {
			defer wg.Done()
			out, err := svc.UpdateTask(ctx, task.ID, who, submission(who))
			assert.NoError(t, err)
			mu.Lock()
			results[who] = out
			mu.Unlock()
		}(who)
	}
	wg.Wait()

	got, err := svc.Get(ctx, task.ID, "carol")
	require.NoError(t, err)
	assert.True(t, assert.ObjectsAreEqual(results["carol"], got) || assert.ObjectsAreEqual(results["dave"], got),
		"stored task must equal one submission, got %+v", got)
}

func TestUpdateTask_DeepThreadRoundTrip(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Deep"})
	require.NoError(t, err)

	const depth = 2000
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	root := models.TaskMessage{}
	cur := &root
	for i := 0; i < depth; i++ {
		cur.ID = fmt.Sprintf("n%d", i)
		cur.Sender = "carol"
		cur.Text = fmt.Sprintf("@u%d", i%10)
		cur.Timestamp = thread.FormatTimestamp(base.Add(time.Duration(i) * time.Millisecond))
		if i == depth-1 {
			cur.Replies = []models.TaskMessage{}
			break
		}
		pid := cur.ID
		cur.Replies = []models.TaskMessage{{ParentID: &pid}}
		cur = &cur.Replies[0]
	}

	updated, err := svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{Title: "Deep", Status: "s", Messages: []models.TaskMessage{root}})
	require.NoError(t, err)
	assert.Len(t, updated.MentionedUsers, 10)
	assert.Equal(t, []models.TaskMessage{root}, updated.Messages)
}

func TestDeleteTask_OwnerOnly(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "carol", models.CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, task.ID, "carol", models.UpdateTaskRequest{
		Title: "Plan", Status: "doing",
		Messages: []models.TaskMessage{msg("m1", "carol", "@dave")},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, task.ID, "dave"), errs.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, task.ID, "carol"))
	_, err = svc.Get(ctx, task.ID, "carol")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
