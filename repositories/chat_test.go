package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

func TestChatRepository_CreateChat_PrivatePairIdempotency(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository(newTestDB(t), slog.Default())

	first := domain.Chat{
		ID:           uuid.NewString(),
		Type:         domain.PrivateChat,
		Participants: []string{"alice", "bob"},
		CreatedBy:    "alice",
		CreatedAt:    time.Now().UTC(),
		Settings:     domain.DefaultSettings(domain.PrivateChat),
	}
	created, err := repo.CreateChat(first)
	req.NoError(err)
	req.Equal(first.ID, created.ID)

	t.Run("should return the existing chat for the same pair", func(t *testing.T) {
		req := require.New(t)
		second := first
		second.ID = uuid.NewString()
		second.Participants = []string{"bob", "alice"} // reversed order, same pair
		got, err := repo.CreateChat(second)
		req.NoError(err)
		req.Equal(first.ID, got.ID)
	})

	t.Run("should resolve the pair regardless of argument order", func(t *testing.T) {
		req := require.New(t)
		got, err := repo.FindPrivateChatBetween("bob", "alice")
		req.NoError(err)
		req.Equal(first.ID, got.ID)
	})

	t.Run("should not index group chats by pair", func(t *testing.T) {
		req := require.New(t)
		group := domain.Chat{
			ID:           uuid.NewString(),
			Type:         domain.GroupChat,
			Name:         "lunch",
			Participants: []string{"carol", "dave"},
			CreatedBy:    "carol",
			CreatedAt:    time.Now().UTC(),
			Settings:     domain.DefaultSettings(domain.GroupChat),
		}
		_, err := repo.CreateChat(group)
		req.NoError(err)
		_, err = repo.FindPrivateChatBetween("carol", "dave")
		req.ErrorIs(err, apperrors.ErrChatNotFound)
	})
}

func TestChatRepository_GetChat(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository(newTestDB(t), slog.Default())

	chat := domain.Chat{
		ID:           uuid.NewString(),
		Type:         domain.ChannelChat,
		Name:         "announcements",
		Participants: []string{"alice"},
		CreatedBy:    "alice",
		CreatedAt:    time.Now().UTC(),
		Settings:     domain.DefaultSettings(domain.ChannelChat),
	}
	_, err := repo.CreateChat(chat)
	req.NoError(err)

	fetched, err := repo.GetChat(chat.ID)
	req.NoError(err)
	req.Equal(chat.Name, fetched.Name)
	req.Equal(domain.PostAdmin, fetched.Settings.CanPostMessages)

	_, err = repo.GetChat("chat-404")
	req.ErrorIs(err, apperrors.ErrChatNotFound)
}

func TestChatRepository_ListChatsForUser(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository(newTestDB(t), slog.Default())

	for _, c := range []domain.Chat{
		{ID: uuid.NewString(), Type: domain.GroupChat, Name: "team", Participants: []string{"alice", "bob"}, CreatedBy: "alice"},
		{ID: uuid.NewString(), Type: domain.GroupChat, Name: "family", Participants: []string{"alice", "carol"}, CreatedBy: "alice"},
		{ID: uuid.NewString(), Type: domain.GroupChat, Name: "strangers", Participants: []string{"dave", "erin"}, CreatedBy: "dave"},
	} {
		_, err := repo.CreateChat(c)
		req.NoError(err)
	}

	chats, err := repo.ListChatsForUser("alice")
	req.NoError(err)
	req.Len(chats, 2)
	for _, c := range chats {
		req.True(c.HasParticipant("alice"))
	}
}
