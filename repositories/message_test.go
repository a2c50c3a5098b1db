package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func newMessage(chatID, sender, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  sender,
		Content:   content,
		Timestamp: at,
		ReadBy:    []string{sender},
	}
}

func TestMessageRepository_AppendAndListSorted(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default())

	chatID := uuid.NewString()
	at := time.Now().UTC()
	ordered := []domain.Message{
		newMessage(chatID, "alice", "first", at),
		newMessage(chatID, "bob", "second", at.Add(1*time.Minute)),
		newMessage(chatID, "clara", "third", at.Add(2*time.Minute)),
	}

	// Insert out of order; the padded key must restore chronology.
	for _, i := range []int{2, 0, 1} {
		req.NoError(repo.AppendMessage(ordered[i]))
	}

	fetched, err := repo.ListMessagesForChat(chatID)
	req.NoError(err)
	req.Len(fetched, 3)
	for i, msg := range fetched {
		req.Equal(ordered[i].ID, msg.ID)
		req.Equal(ordered[i].Content, msg.Content)
	}
}

func TestMessageRepository_ListIsScopedToChat(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default())

	at := time.Now().UTC()
	chatA := uuid.NewString()
	chatB := uuid.NewString()
	req.NoError(repo.AppendMessage(newMessage(chatA, "alice", "in A", at)))
	req.NoError(repo.AppendMessage(newMessage(chatB, "bob", "in B", at)))

	fetched, err := repo.ListMessagesForChat(chatA)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("in A", fetched[0].Content)
}

func TestMessageRepository_LastMessage(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default())

	chatID := uuid.NewString()
	_, found, err := repo.LastMessage(chatID)
	req.NoError(err)
	req.False(found)

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req.NoError(repo.AppendMessage(newMessage(chatID, "alice", fmt.Sprintf("msg %d", i), at.Add(time.Duration(i)*time.Second))))
	}

	last, found, err := repo.LastMessage(chatID)
	req.NoError(err)
	req.True(found)
	req.Equal("msg 4", last.Content)
}

func TestMessageRepository_MarkRead(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default())

	chatID := uuid.NewString()
	at := time.Now().UTC()
	req.NoError(repo.AppendMessage(newMessage(chatID, "alice", "hello", at)))
	req.NoError(repo.AppendMessage(newMessage(chatID, "alice", "anyone there?", at.Add(time.Second))))

	t.Run("should add the reader to every unread message", func(t *testing.T) {
		req := require.New(t)
		changed, err := repo.MarkRead(chatID, "bob")
		req.NoError(err)
		req.Equal(2, changed)

		messages, err := repo.ListMessagesForChat(chatID)
		req.NoError(err)
		for _, msg := range messages {
			req.Contains(msg.ReadBy, "alice")
			req.Contains(msg.ReadBy, "bob")
		}
	})

	t.Run("should be a no-op when repeated", func(t *testing.T) {
		req := require.New(t)
		changed, err := repo.MarkRead(chatID, "bob")
		req.NoError(err)
		req.Zero(changed)
	})

	t.Run("should never remove an existing reader", func(t *testing.T) {
		req := require.New(t)
		_, err := repo.MarkRead(chatID, "carol")
		req.NoError(err)
		messages, err := repo.ListMessagesForChat(chatID)
		req.NoError(err)
		for _, msg := range messages {
			req.Contains(msg.ReadBy, "bob")
			req.Contains(msg.ReadBy, "carol")
		}
	})
}

func TestMessageRepository_SurvivesReopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	open := func() *badger.DB {
		db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
		req.NoError(err)
		return db
	}

	chatID := uuid.NewString()
	msg := newMessage(chatID, "alice", "durable", time.Now().UTC())

	db := open()
	repo := NewMessageRepository(db, slog.Default())
	req.NoError(repo.AppendMessage(msg))
	req.NoError(db.Close())

	db = open()
	defer db.Close()
	repo = NewMessageRepository(db, slog.Default())

	fetched, err := repo.ListMessagesForChat(chatID)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(msg.ID, fetched[0].ID)
	req.Equal(msg.Content, fetched[0].Content)
	req.Equal(msg.Timestamp.UnixNano(), fetched[0].Timestamp.UnixNano())
}
