//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/search"
)

type IDirectoryService interface {
	ListUsers() ([]domain.User, error)
	UpdateUser(id string, patch domain.UserPatch) (domain.User, error)
	CreateChat(spec CreateChatSpec) (domain.Chat, error)
	ListChatsForUser(userID string) ([]ChatSummary, error)
	ListMessagesForChat(chatID string) ([]domain.Message, error)
	SearchMessages(ctx context.Context, chatID, query string) ([]search.Hit, error)
}

// CreateChatSpec is the caller's intent; server-assigned fields (id,
// creation time, merged settings) are filled in here.
type CreateChatSpec struct {
	Type         domain.ChatType
	Name         string
	Participants []string
	CreatedBy    string
	Settings     domain.SettingsOverride
}

// ChatSummary annotates a chat with its most recent message, if any.
type ChatSummary struct {
	Chat        domain.Chat
	LastMessage *domain.Message
}

// DirectoryService is the read path plus chat creation. All mutation of
// message state goes through the pipeline instead.
type DirectoryService struct {
	users    repositories.IUserRepository
	chats    repositories.IChatRepository
	messages repositories.IMessageRepository
	index    *search.Index
}

func NewDirectoryService(
	users repositories.IUserRepository,
	chats repositories.IChatRepository,
	messages repositories.IMessageRepository,
	index *search.Index,
) *DirectoryService {
	return &DirectoryService{users: users, chats: chats, messages: messages, index: index}
}

func (s *DirectoryService) ListUsers() ([]domain.User, error) {
	return s.users.ListUsers()
}

func (s *DirectoryService) UpdateUser(id string, patch domain.UserPatch) (domain.User, error) {
	return s.users.UpdateUser(id, patch)
}

// CreateChat is idempotent for private pairs: an existing private chat for
// the same unordered pair is returned unchanged instead of duplicated.
// Caller-supplied settings override individual defaults without discarding
// the others.
func (s *DirectoryService) CreateChat(spec CreateChatSpec) (domain.Chat, error) {
	participants := lo.Uniq(spec.Participants)

	switch spec.Type {
	case domain.PrivateChat:
		if len(participants) != 2 {
			return domain.Chat{}, apperrors.ErrInvalidChatSpec
		}
	case domain.GroupChat, domain.ChannelChat:
		if len(participants) == 0 {
			return domain.Chat{}, apperrors.ErrInvalidChatSpec
		}
	default:
		return domain.Chat{}, apperrors.ErrInvalidChatSpec
	}

	chat := domain.Chat{
		ID:           uuid.NewString(),
		Type:         spec.Type,
		Name:         spec.Name,
		Participants: participants,
		CreatedBy:    spec.CreatedBy,
		CreatedAt:    time.Now().UTC(),
		Settings:     domain.DefaultSettings(spec.Type).Merge(spec.Settings),
	}
	// The repository resolves the private-pair race atomically and hands
	// back whichever chat actually owns the pair.
	return s.chats.CreateChat(chat)
}

// ListChatsForUser returns the user's chats sorted descending by
// last-message time. Chats with no messages sort after all chats that have
// one, ordered among themselves by creation time descending.
func (s *DirectoryService) ListChatsForUser(userID string) ([]ChatSummary, error) {
	chats, err := s.chats.ListChatsForUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{Chat: chat}
		if msg, found, err := s.messages.LastMessage(chat.ID); err == nil && found {
			summary.LastMessage = lo.ToPtr(msg)
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		li, lj := summaries[i].LastMessage, summaries[j].LastMessage
		switch {
		case li != nil && lj != nil:
			return li.Timestamp.After(lj.Timestamp)
		case li != nil:
			return true
		case lj != nil:
			return false
		default:
			return summaries[i].Chat.CreatedAt.After(summaries[j].Chat.CreatedAt)
		}
	})
	return summaries, nil
}

// ListMessagesForChat returns the full ordered history. Pagination, if
// needed, wraps this call at an outer layer.
func (s *DirectoryService) ListMessagesForChat(chatID string) ([]domain.Message, error) {
	if _, err := s.chats.GetChat(chatID); err != nil {
		return nil, err
	}
	return s.messages.ListMessagesForChat(chatID)
}

func (s *DirectoryService) SearchMessages(ctx context.Context, chatID, query string) ([]search.Hit, error) {
	if _, err := s.chats.GetChat(chatID); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, chatID, query)
}
