package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/repositories"
)

// The inspector must decode the records exactly as the repositories write
// them, so the rows are built from real stored values, not hand-marshaled
// fixtures.
func TestRowForDecodesRepositoryRecords(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	messages := repositories.NewMessageRepository(db, slog.Default())
	at := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	req.NoError(messages.AppendMessage(domain.Message{
		ID: uuid.New(), ChatID: "chat-1", SenderID: "alice", Content: "ship it",
		Timestamp: at, ReadBy: []string{"alice"},
	}))

	chats := repositories.NewChatRepository(db, slog.Default())
	_, err = chats.CreateChat(domain.Chat{
		ID:           uuid.NewString(),
		Type:         domain.GroupChat,
		Name:         "ops",
		Participants: []string{"alice", "bob"},
		CreatedBy:    "alice",
		CreatedAt:    at,
		Settings:     domain.DefaultSettings(domain.GroupChat),
	})
	req.NoError(err)

	msgRow := rawRow(t, db, "msg:")
	req.Equal("MSG", msgRow[1])
	req.Equal("10:30:00", msgRow[2])
	req.Equal("alice: ship it", msgRow[3])
	req.Equal("read_by=1", msgRow[4])

	chatRow := rawRow(t, db, "chat:")
	req.Equal("CHAT", chatRow[1])
	req.Equal("10:30:00", chatRow[2])
	req.Equal("ops", chatRow[3])
	req.Equal("group", chatRow[4])
}

// rawRow feeds the first stored value under the prefix through rowFor.
func rawRow(t *testing.T, db *badger.DB, prefix string) []string {
	t.Helper()
	var row []string
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			return item.Value(func(v []byte) error {
				row = rowFor(key, v)
				return nil
			})
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, row, "no record stored under prefix %s", prefix)
	return row
}
