// Package search maintains a full-text index over message content. The
// index is a convenience projection: losing it never affects the store,
// and writes to it are best-effort.
package search

import (
	"context"

	"github.com/blugelabs/bluge"

	"chat-relay/domain"
)

type Index struct {
	writer *bluge.Writer
	limit  int
}

func NewIndex(writer *bluge.Writer, limit int) *Index {
	return &Index{writer: writer, limit: limit}
}

// IndexMessage upserts one message document. Keyed by message id, so
// re-indexing after a replay is harmless.
func (i *Index) IndexMessage(msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("chat_id", msg.ChatID)).
		AddField(bluge.NewKeywordField("sender_id", msg.SenderID).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewNumericField("at", float64(msg.Timestamp.UnixNano())))
	return i.writer.Update(doc.ID(), doc)
}

type Hit struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
}

// Search matches the query against message content within one chat.
func (i *Index) Search(ctx context.Context, chatID, query string) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("content")).
		AddMust(bluge.NewTermQuery(chatID).SetField("chat_id"))

	dmi, err := reader.Search(ctx, bluge.NewTopNSearch(i.limit, q))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	next, err := dmi.Next()
	for err == nil && next != nil {
		var h Hit
		visitErr := next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				h.MessageID = string(value)
			case "sender_id":
				h.SenderID = string(value)
			case "content":
				h.Content = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, h)
		next, err = dmi.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
