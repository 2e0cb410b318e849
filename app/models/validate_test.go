package models

import (
	"testing"

	"collab-go/app/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_UsesJSONNames(t *testing.T) {
	err := Validate(RegisterRequest{Name: "Alice", Email: "not-an-email", Username: "alice", Password: "password1"})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestValidate_Handle(t *testing.T) {
	tests := []struct {
		username string
		ok       bool
	}{
		{"alice", true},
		{"bob_99", true},
		{"ab", false},
		{"has space", false},
		{"dash-ed", false},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := Validate(RegisterRequest{Name: "X", Email: "x@example.com", Username: tt.username, Password: "password1"})
			assert.Equal(t, tt.ok, err == nil, "error: %v", err)
		})
	}
}

func TestValidate_DivesIntoLLMMessages(t *testing.T) {
	err := Validate(LLMRequest{Messages: []LLMMessage{{Role: "user", Message: "hi"}, {Role: "robot", Message: "hi"}}})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "messages[1].role", verr.Field)
}

func TestFirstInvalid_DoesNotDescendIntoReplies(t *testing.T) {
	msg := TaskMessage{ID: "m1", Sender: "carol", Timestamp: "2025-03-01T10:00:00Z",
		Replies: []TaskMessage{{}}}
	field, _, err := FirstInvalid(msg)
	require.NoError(t, err)
	assert.Empty(t, field)

	field, tag, err := FirstInvalid(TaskMessage{ID: "m1", Timestamp: "x"})
	require.NoError(t, err)
	assert.Equal(t, "sender", field)
	assert.Equal(t, "required", tag)
}
