package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_UsersLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	repo := m.Users(nil)

	u, err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("h")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = repo.Create(ctx, &models.User{Username: "alice"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkLoggedIn(ctx, u.ID, at))
	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsLoggedIn)
	assert.Equal(t, at, *got.LastLogin)

	require.NoError(t, repo.MarkLoggedOut(ctx, u.ID, at))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLoggedIn)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.MarkLoggedIn(ctx, 99, at), common.ErrorNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInMemory_ConversationsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	convs := m.Conversations(nil)
	msgs := m.Messages(nil)

	notes, err := convs.Create(ctx, &models.Conversation{OwnerID: 1, Name: "Notes"})
	require.NoError(t, err)
	trip, err := convs.Create(ctx, &models.Conversation{OwnerID: 1, Name: "Trip"})
	require.NoError(t, err)
	_, err = convs.Create(ctx, &models.Conversation{OwnerID: 2, Name: "Other"})
	require.NoError(t, err)

	list, err := convs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Trip", list[0].Name)
	assert.Equal(t, "Notes", list[1].Name)

	_, err = convs.Get(ctx, 2, notes.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = convs.Rename(ctx, 2, notes.ID, "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, convs.Delete(ctx, 2, notes.ID), common.ErrorNotFound)

	_, err = msgs.Create(ctx, &models.Message{ConversationID: trip.ID, Sender: "user", Text: "Hello"})
	require.NoError(t, err)
	_, err = msgs.Create(ctx, &models.Message{ConversationID: trip.ID, Sender: "bot", Text: "You said: Hello"})
	require.NoError(t, err)

	owned, err := msgs.ListByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	other, err := msgs.ListByOwner(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, convs.Delete(ctx, 1, trip.ID))
	thread, err := msgs.ListByConversation(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, thread, "messages are deleted with their conversation")

	_, err = msgs.Create(ctx, &models.Message{ConversationID: trip.ID, Sender: "user", Text: "late"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	conv, err := m.Conversations(nil).Create(ctx, &models.Conversation{OwnerID: 1, Name: "Notes"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := m.Messages(tx).Create(ctx, &models.Message{ConversationID: conv.ID, Sender: "user", Text: "hi"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	thread, err := m.Messages(nil).ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)

	err = m.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := m.Messages(tx).Create(ctx, &models.Message{ConversationID: conv.ID, Sender: "user", Text: "hi"})
		return err
	})
	require.NoError(t, err)
	thread, err = m.Messages(nil).ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 1)
}

func TestInMemory_WithTxRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	boom := errors.New("boom")
	done := make(chan error, 1)
	err := m.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		go func() {
			_, err := m.Users(nil).Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("h")})
			done <- err
		}()
		time.Sleep(50 * time.Millisecond)

		select {
		case <-done:
			t.Error("outside write finished while the transaction was running")
		default:
		}

		if _, err := m.Users(tx).Create(ctx, &models.User{Username: "bob", PasswordHash: []byte("h")}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	_, err = m.Users(nil).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	_, err = m.Users(nil).GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
