//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

type IChatRepository interface {
	CreateChat(chat domain.Chat) (domain.Chat, error)
	GetChat(id string) (domain.Chat, error)
	FindPrivateChatBetween(a, b string) (domain.Chat, error)
	ListChatsForUser(userID string) ([]domain.Chat, error)
}

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

type DiskChat struct {
	ID           string              `json:"id"`
	Type         domain.ChatType     `json:"type"`
	Name         string              `json:"name,omitempty"`
	Participants []string            `json:"participants"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    int64               `json:"created_at"`
	Settings     domain.ChatSettings `json:"settings"`
}

func chatKey(id string) []byte  { return []byte("chat:" + id) }
func pairKey(key string) []byte { return []byte("chat_pair:" + key) }

// CreateChat persists the chat and, for private chats, the unordered-pair
// index entry backing the idempotent create. The pair check and both writes
// share one transaction; if the pair already has a chat, that existing chat
// is returned unchanged and nothing is written.
func (r ChatRepository) CreateChat(chat domain.Chat) (domain.Chat, error) {
	data, err := json.Marshal(fromChat(chat))
	if err != nil {
		return domain.Chat{}, fmt.Errorf("marshal failed: %w", err)
	}

	existingID := ""
	err = r.db.Update(func(txn *badger.Txn) error {
		if chat.Type == domain.PrivateChat {
			key := pairKey(domain.PairKey(chat.Participants[0], chat.Participants[1]))
			item, err := txn.Get(key)
			if err == nil {
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				existingID = string(raw)
				return nil
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Set(key, []byte(chat.ID)); err != nil {
				return err
			}
		}
		return txn.Set(chatKey(chat.ID), data)
	})
	if err != nil {
		return domain.Chat{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if existingID != "" {
		return r.GetChat(existingID)
	}
	return chat, nil
}

func (r ChatRepository) GetChat(id string) (domain.Chat, error) {
	var dc DiskChat
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, apperrors.ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return toChat(dc), nil
}

// FindPrivateChatBetween resolves the pair index for an unordered pair of
// participants. ErrChatNotFound means no private chat exists for the pair.
func (r ChatRepository) FindPrivateChatBetween(a, b string) (domain.Chat, error) {
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(domain.PairKey(a, b)))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id = string(raw)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, apperrors.ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return r.GetChat(id)
}

// ListChatsForUser scans the chat collection and keeps the chats the user
// participates in. Corrupt records are skipped and logged.
func (r ChatRepository) ListChatsForUser(userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("chat:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var dc DiskChat
				if err := json.Unmarshal(val, &dc); err != nil {
					r.log.Warn("Skipping corrupt chat record", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				chat := toChat(dc)
				if chat.HasParticipant(userID) {
					chats = append(chats, chat)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return chats, err
}

func fromChat(c domain.Chat) DiskChat {
	return DiskChat{
		ID:           c.ID,
		Type:         c.Type,
		Name:         c.Name,
		Participants: c.Participants,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt.UnixNano(),
		Settings:     c.Settings,
	}
}

func toChat(dc DiskChat) domain.Chat {
	return domain.Chat{
		ID:           dc.ID,
		Type:         dc.Type,
		Name:         dc.Name,
		Participants: dc.Participants,
		CreatedBy:    dc.CreatedBy,
		CreatedAt:    time.Unix(0, dc.CreatedAt).UTC(),
		Settings:     dc.Settings,
	}
}
