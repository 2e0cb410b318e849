package services

import (
	"context"
	"testing"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService(t *testing.T) {
	s := newTestStore(t)
	users := newUserService(s)
	svc := NewMessageService(s, s)
	ctx := context.Background()

	alice := register(t, users, "alice")
	bob := register(t, users, "bob")
	carol := register(t, users, "carol")

	tick := fixedNow
	svc.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	send := func(from *models.User, to *models.User, text string) {
		_, err := svc.Send(ctx, *from, models.SendMessageRequest{ReceiverID: to.ID, Content: text})
		require.NoError(t, err)
	}
	send(alice, bob, "hi bob")
	send(bob, alice, "hi alice")
	send(carol, alice, "hey")
	send(bob, carol, "not for alice")

	_, err := svc.Send(ctx, *alice, models.SendMessageRequest{ReceiverID: "nobody", Content: "?"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Send(ctx, *alice, models.SendMessageRequest{ReceiverID: bob.ID})
	assert.True(t, errs.IsValidation(err))

	inbox, err := svc.Inbox(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 3)
	assert.Equal(t, "hi bob", inbox[0].Content)
	assert.Equal(t, alice.Name, inbox[0].SenderName)
	assert.Equal(t, bob.Name, inbox[1].SenderName)
	assert.Equal(t, carol.Name, inbox[2].SenderName)

	conv, err := svc.Conversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hi alice", conv[1].Content)

	partners, err := svc.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Conversation{
		{ID: bob.ID, Name: bob.Name},
		{ID: carol.ID, Name: carol.Name},
	}, partners)
}
