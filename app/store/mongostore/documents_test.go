package mongostore

import (
	"testing"
	"time"

	"collab-go/app/errs"
	"collab-go/app/store"
	"collab-go/app/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ store.Store = (*Store)(nil)

func TestTaskDoc_FlatThreadSurvivesBSON(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []thread.Record{
		{ID: "a", Text: "@dave", Sender: "carol", Timestamp: at, Parent: thread.NoParent},
		{ID: "b", Text: "reply", Sender: "dave", Timestamp: at.Add(time.Second), ParentID: "a", HasParentID: true, Parent: 0, Depth: 1},
		{ID: "c", Text: "deeper", Sender: "carol", Timestamp: at.Add(2 * time.Second), ParentID: "b", HasParentID: true, Parent: 1, Depth: 2},
		{ID: "d", Text: "empty parent", Sender: "carol", Timestamp: at.Add(3 * time.Second), HasParentID: true, Parent: thread.NoParent},
	}
	oid := primitive.NewObjectID()
	in := taskDoc{
		ID:             oid,
		Title:          "Ship",
		Status:         "pending",
		Messages:       threadToDocs(records),
		Owner:          "carol",
		CreatedAt:      at,
		MentionedUsers: []string{"dave"},
		Revision:       2,
	}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)
	var out taskDoc
	require.NoError(t, bson.Unmarshal(raw, &out))

	task := out.toStore()
	assert.Equal(t, oid.Hex(), task.ID)
	assert.Equal(t, records, task.Messages)
	assert.Equal(t, []string{"dave"}, task.MentionedUsers)
	assert.Equal(t, int64(2), task.Revision)
	assert.True(t, task.CreatedAt.Equal(at))
}

// BSON datetimes hold milliseconds, so thread timestamps lose anything finer.
func TestThreadDocs_TimestampPrecision(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"sub-millisecond truncated", time.Date(2025, 3, 1, 9, 0, 0, 123456789, time.UTC), time.Date(2025, 3, 1, 9, 0, 0, 123000000, time.UTC)},
		{"whole milliseconds kept", time.Date(2025, 3, 1, 9, 0, 0, 5e8, time.UTC), time.Date(2025, 3, 1, 9, 0, 0, 5e8, time.UTC)},
		{"year 1600", time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"year 2999", time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"year 9999", time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC), time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := taskDoc{
				ID:        primitive.NewObjectID(),
				Messages:  threadToDocs([]thread.Record{{ID: "a", Timestamp: tt.in, Parent: thread.NoParent}}),
				CreatedAt: tt.in,
			}
			raw, err := bson.Marshal(in)
			require.NoError(t, err)
			var out taskDoc
			require.NoError(t, bson.Unmarshal(raw, &out))

			task := out.toStore()
			assert.Equal(t, tt.want, task.Messages[0].Timestamp)
			assert.Equal(t, tt.want, task.CreatedAt)
		})
	}
}

func TestThreadDocs_AbsentParentIDOmitted(t *testing.T) {
	raw, err := bson.Marshal(threadToDocs([]thread.Record{{ID: "a", Parent: thread.NoParent}})[0])
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("parentId")
	assert.Error(t, err)
}

func TestProjectDoc_ToStore(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	nid := primitive.NewObjectID()
	p := projectDoc{
		ID:        primitive.NewObjectID(),
		Title:     "Launch",
		Members:   []memberDoc{{ID: "u1", Name: "One", Email: "one@example.com"}},
		Notes:     []noteDoc{{ID: nid, Title: "n", Body: "b", CreatedAt: at}},
		CreatedBy: "u1",
		CreatedAt: at,
	}.toStore()
	assert.Equal(t, []store.Member{{ID: "u1", Name: "One", Email: "one@example.com"}}, p.Members)
	assert.Equal(t, nid.Hex(), p.Notes[0].ID)
}

func TestObjectID_MalformedIsNotFound(t *testing.T) {
	_, err := objectID("not-hex")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}
