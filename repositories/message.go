//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

type IMessageRepository interface {
	AppendMessage(message domain.Message) error
	ListMessagesForChat(chatID string) ([]domain.Message, error)
	LastMessage(chatID string) (domain.Message, bool, error)
	MarkRead(chatID, userID string) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID         string   `json:"id"`
	ChatID     string   `json:"chat_id"`
	SenderID   string   `json:"sender_id"`
	Content    string   `json:"content"`
	Attachment string   `json:"attachment,omitempty"`
	Language   string   `json:"language,omitempty"`
	At         int64    `json:"at"`
	ReadBy     []string `json:"read_by"`
}

// messageKey is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order matches insertion order within a chat).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages carry the same nanosecond.
func messageKey(chatID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", chatID, at.UnixNano(), id))
}

func messagePrefix(chatID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", chatID))
}

// AppendMessage commits the message before the caller acknowledges it; a
// broadcast only ever carries data that already survived this write.
func (m MessageRepository) AppendMessage(message domain.Message) error {
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.ChatID, message.Timestamp, message.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// ListMessagesForChat returns the full history ascending by timestamp.
// Thanks to the padded timestamp in the key, a forward prefix scan is
// already sorted. Corrupt values are skipped and logged, never fatal.
func (m MessageRepository) ListMessagesForChat(chatID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, err := decodeMessage(val)
				if err != nil {
					m.log.Warn("Skipping corrupt message record", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// LastMessage seeks past the newest possible key and walks backwards one
// step, so annotating a chat list never scans full histories.
func (m MessageRepository) LastMessage(chatID string) (domain.Message, bool, error) {
	var msg domain.Message
	found := false
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				decoded, err := decodeMessage(val)
				if err != nil {
					m.log.Warn("Skipping corrupt message record", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				msg = decoded
				found = true
				return nil
			})
			if err != nil || found {
				return err
			}
		}
		return nil
	})
	return msg, found, err
}

// MarkRead adds the user to the ReadBy set of every message in the chat
// that misses it, inside a single transaction. Returns how many messages
// changed; zero means the call was a no-op, which keeps it idempotent.
func (m MessageRepository) MarkRead(chatID, userID string) (int, error) {
	changed := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := messagePrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)

		type pending struct {
			key  []byte
			data []byte
		}
		var updates []pending

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			err := it.Item().Value(func(val []byte) error {
				msg, err := decodeMessage(val)
				if err != nil {
					m.log.Warn("Skipping corrupt message record", "key", string(key), "error", err)
					return nil
				}
				if !msg.MarkReadBy(userID) {
					return nil
				}
				data, err := json.Marshal(fromMessage(msg))
				if err != nil {
					return err
				}
				updates = append(updates, pending{key: key, data: data})
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		// Writes happen after the iterator is released; mutating keys
		// under an open iterator on the same transaction is unsafe.
		it.Close()
		for _, u := range updates {
			if err := txn.Set(u.key, u.data); err != nil {
				return err
			}
		}
		changed = len(updates)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return changed, nil
}

func decodeMessage(val []byte) (domain.Message, error) {
	var dm DiskMessage
	if err := json.Unmarshal(val, &dm); err != nil {
		return domain.Message{}, err
	}
	return toMessage(dm)
}

func fromMessage(msg domain.Message) DiskMessage {
	return DiskMessage{
		ID:         msg.ID.String(),
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		Content:    msg.Content,
		Attachment: msg.Attachment,
		Language:   msg.Language,
		At:         msg.Timestamp.UnixNano(),
		ReadBy:     msg.ReadBy,
	}
}

func toMessage(dm DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		ChatID:     dm.ChatID,
		SenderID:   dm.SenderID,
		Content:    dm.Content,
		Attachment: dm.Attachment,
		Language:   dm.Language,
		Timestamp:  time.Unix(0, dm.At).UTC(),
		ReadBy:     dm.ReadBy,
	}, nil
}
