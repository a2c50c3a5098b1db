package services_test

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/services"
)

func TestDirectoryService_CreateChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChats := mocks.NewMockIChatRepository(ctrl)
	svc := services.NewDirectoryService(mocks.NewMockIUserRepository(ctrl), mockChats, mocks.NewMockIMessageRepository(ctrl), nil)

	t.Run("should create a private chat for exactly two participants", func(t *testing.T) {
		req := require.New(t)

		mockChats.EXPECT().
			CreateChat(gomock.Any()).
			DoAndReturn(func(chat domain.Chat) (domain.Chat, error) {
				require.Equal(t, domain.PrivateChat, chat.Type)
				require.Len(t, chat.Participants, 2)
				require.NotEmpty(t, chat.ID)
				return chat, nil
			}).
			Times(1)

		// Duplicated participant collapses to a valid pair.
		chat, err := svc.CreateChat(services.CreateChatSpec{
			Type:         domain.PrivateChat,
			Participants: []string{"alice", "bob", "alice"},
			CreatedBy:    "alice",
		})
		req.NoError(err)
		req.Equal(domain.PostAll, chat.Settings.CanPostMessages)
	})

	t.Run("should reject a private chat without exactly two participants", func(t *testing.T) {
		req := require.New(t)

		mockChats.EXPECT().CreateChat(gomock.Any()).Times(0)

		_, err := svc.CreateChat(services.CreateChatSpec{
			Type:         domain.PrivateChat,
			Participants: []string{"alice"},
			CreatedBy:    "alice",
		})
		req.ErrorIs(err, apperrors.ErrInvalidChatSpec)
	})

	t.Run("should apply type defaults with caller overrides on top", func(t *testing.T) {
		req := require.New(t)

		mockChats.EXPECT().
			CreateChat(gomock.Any()).
			DoAndReturn(func(chat domain.Chat) (domain.Chat, error) { return chat, nil }).
			Times(1)

		chat, err := svc.CreateChat(services.CreateChatSpec{
			Type:         domain.ChannelChat,
			Name:         "news",
			Participants: []string{"alice"},
			CreatedBy:    "alice",
			Settings:     domain.SettingsOverride{CanAddMembers: lo.ToPtr(true)},
		})
		req.NoError(err)
		// Channel default survives; only the overridden field changes.
		req.Equal(domain.PostAdmin, chat.Settings.CanPostMessages)
		req.True(chat.Settings.CanAddMembers)
	})

	t.Run("should reject an unknown chat type", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.CreateChat(services.CreateChatSpec{Type: "broadcast", Participants: []string{"a"}})
		req.ErrorIs(err, apperrors.ErrInvalidChatSpec)
	})
}

func TestDirectoryService_ListChatsForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChats := mocks.NewMockIChatRepository(ctrl)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	svc := services.NewDirectoryService(mocks.NewMockIUserRepository(ctrl), mockChats, mockMessages, nil)

	now := time.Now().UTC()
	quiet := domain.Chat{ID: "chat-quiet", CreatedAt: now}
	older := domain.Chat{ID: "chat-older", CreatedAt: now.Add(-2 * time.Hour)}
	busy := domain.Chat{ID: "chat-busy", CreatedAt: now.Add(-1 * time.Hour)}

	mockChats.EXPECT().
		ListChatsForUser("alice").
		Return([]domain.Chat{quiet, older, busy}, nil).
		Times(1)

	mockMessages.EXPECT().LastMessage("chat-quiet").Return(domain.Message{}, false, nil)
	mockMessages.EXPECT().LastMessage("chat-older").
		Return(domain.Message{ChatID: "chat-older", Timestamp: now.Add(-30 * time.Minute)}, true, nil)
	mockMessages.EXPECT().LastMessage("chat-busy").
		Return(domain.Message{ChatID: "chat-busy", Timestamp: now.Add(-1 * time.Minute)}, true, nil)

	summaries, err := svc.ListChatsForUser("alice")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Most recent conversation first; quiet chats sort last.
	require.Equal(t, "chat-busy", summaries[0].Chat.ID)
	require.Equal(t, "chat-older", summaries[1].Chat.ID)
	require.Equal(t, "chat-quiet", summaries[2].Chat.ID)
	require.Nil(t, summaries[2].LastMessage)
}

func TestDirectoryService_ListMessagesForChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChats := mocks.NewMockIChatRepository(ctrl)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	svc := services.NewDirectoryService(mocks.NewMockIUserRepository(ctrl), mockChats, mockMessages, nil)

	t.Run("should fail fast on an unknown chat", func(t *testing.T) {
		req := require.New(t)

		mockChats.EXPECT().GetChat("chat-404").Return(domain.Chat{}, apperrors.ErrChatNotFound)
		mockMessages.EXPECT().ListMessagesForChat(gomock.Any()).Times(0)

		_, err := svc.ListMessagesForChat("chat-404")
		req.ErrorIs(err, apperrors.ErrChatNotFound)
	})

	t.Run("should return the history of an existing chat", func(t *testing.T) {
		req := require.New(t)

		mockChats.EXPECT().GetChat("chat-1").Return(domain.Chat{ID: "chat-1"}, nil)
		mockMessages.EXPECT().
			ListMessagesForChat("chat-1").
			Return([]domain.Message{{ChatID: "chat-1", Content: "hello"}}, nil)

		messages, err := svc.ListMessagesForChat("chat-1")
		req.NoError(err)
		req.Len(messages, 1)
	})
}
