package services

import (
	"context"
	"testing"

	"collab-go/app/errs"
	"collab-go/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService(t *testing.T) {
	s := newTestStore(t)
	users := newUserService(s)
	svc := NewProjectService(s, s)
	svc.now = clock
	ctx := context.Background()

	alice := register(t, users, "alice")
	bob := register(t, users, "bob")
	register(t, users, "carol")

	p, err := svc.Create(ctx, *alice, models.CreateProjectRequest{Title: "Launch", Description: "ship it"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.CreatedBy)
	assert.Equal(t, "2025-03-01T09:30:15Z", p.CreatedAt)
	assert.Equal(t, []models.Member{{ID: alice.ID, Name: alice.Name, Email: alice.Email}}, p.Members)
	assert.Empty(t, p.Notes)

	_, err = svc.Get(ctx, p.ID, bob.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.AddNote(ctx, p.ID, bob.ID, models.NoteRequest{Title: "sneaky"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.AddMember(ctx, p.ID, bob.ID, models.AddMemberRequest{Email: "carol@example.com"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.AddMember(ctx, p.ID, alice.ID, models.AddMemberRequest{Email: "zed@example.com"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	m, err := svc.AddMember(ctx, p.ID, alice.ID, models.AddMemberRequest{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, m.ID)
	_, err = svc.AddMember(ctx, p.ID, alice.ID, models.AddMemberRequest{Email: "bob@example.com"})
	assert.ErrorIs(t, err, errs.ErrConflict)

	n, err := svc.AddNote(ctx, p.ID, bob.ID, models.NoteRequest{Title: "Agenda", Body: "1. ship"})
	require.NoError(t, err)
	_, err = svc.UpdateNote(ctx, p.ID, n.ID, alice.ID, models.NoteRequest{Title: "Agenda v2", Body: "1. ship 2. celebrate"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "Agenda v2", got.Notes[0].Title)
	assert.Len(t, got.Members, 2)

	list, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteNote(ctx, p.ID, n.ID, bob.ID))
	assert.ErrorIs(t, svc.DeleteNote(ctx, p.ID, n.ID, bob.ID), errs.ErrNotFound)
	_, err = svc.UpdateNote(ctx, p.ID, n.ID, bob.ID, models.NoteRequest{Title: "gone"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
