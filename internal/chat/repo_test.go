package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_CreateConversation(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	conv, err := repo.CreateConversation(ctx, "conv-1", "", 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultConversationName, conv.Name)
	assert.NotZero(t, conv.ID)

	_, err = repo.CreateConversation(ctx, "conv-1", "again", 1)
	assert.ErrorIs(t, err, ErrConversationExists)
	_, err = repo.CreateConversation(ctx, "conv-1", "other owner", 2)
	assert.ErrorIs(t, err, ErrConversationExists)

	_, err = repo.CreateConversation(ctx, "  ", "", 1)
	assert.Error(t, err)
}

func TestRepo_ListConversationsInInsertionOrder(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.CreateConversation(ctx, id, "chat "+id, 1)
		require.NoError(t, err)
	}
	_, err := repo.CreateConversation(ctx, "z", "", 2)
	require.NoError(t, err)

	convs, err := repo.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "c", convs[0].ConversationID)
	assert.Equal(t, "a", convs[1].ConversationID)
	assert.Equal(t, "b", convs[2].ConversationID)

	empty, err := repo.ListConversations(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepo_RenameConversation(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()
	_, err := repo.CreateConversation(ctx, "conv-1", "", 1)
	require.NoError(t, err)

	conv, err := repo.RenameConversation(ctx, "conv-1", 1, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", conv.Name)

	// same name again is not an error
	_, err = repo.RenameConversation(ctx, "conv-1", 1, "Renamed")
	require.NoError(t, err)

	_, err = repo.RenameConversation(ctx, "conv-1", 2, "Hijack")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.GetConversation(ctx, "conv-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestRepo_MessagesAreStrictlyOrdered(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()
	_, err := repo.CreateConversation(ctx, "conv-1", "", 1)
	require.NoError(t, err)
	_, err = repo.CreateConversation(ctx, "conv-2", "", 1)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleModel
		}
		_, err := repo.AppendMessage(ctx, "conv-1", role, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		_, err = repo.AppendMessage(ctx, "conv-2", role, "noise")
		require.NoError(t, err)
	}

	msgs, err := repo.ListMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
		if i > 0 {
			assert.Greater(t, m.ID, msgs[i-1].ID)
		}
	}

	first, err := repo.FirstUserMessage(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "m0", first.Content)

	_, err = repo.FirstUserMessage(ctx, "conv-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_AppendMessageRejectsUnknownRole(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	_, err := repo.AppendMessage(context.Background(), "conv-1", Role("assistant"), "x")
	assert.Error(t, err)
}

func TestRole_Label(t *testing.T) {
	assert.Equal(t, "assistant", RoleModel.Label())
	assert.Equal(t, "user", RoleUser.Label())
}
