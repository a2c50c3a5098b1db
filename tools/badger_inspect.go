package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"chat-relay/repositories"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-relay/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, chat:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Detail", "Extra"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Secondary indexes hold raw ids, not records.
			if strings.HasPrefix(key, "user_email:") || strings.HasPrefix(key, "chat_pair:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func rowFor(key string, v []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m repositories.DiskMessage
		if err := json.Unmarshal(v, &m); err != nil {
			return []string{key, "MSG", "", fmt.Sprintf("decode error: %v", err), ""}
		}
		return []string{
			key, "MSG", time.Unix(0, m.At).UTC().Format("15:04:05"),
			fmt.Sprintf("%s: %s", m.SenderID, m.Content),
			fmt.Sprintf("read_by=%d", len(m.ReadBy)),
		}
	case strings.HasPrefix(key, "user:"):
		var u repositories.DiskUser
		if err := json.Unmarshal(v, &u); err != nil {
			return []string{key, "USER", "", fmt.Sprintf("decode error: %v", err), ""}
		}
		return []string{key, "USER", "", fmt.Sprintf("%s <%s>", u.FullName, u.Email), u.Status}
	case strings.HasPrefix(key, "chat:"):
		var c repositories.DiskChat
		if err := json.Unmarshal(v, &c); err != nil {
			return []string{key, "CHAT", "", fmt.Sprintf("decode error: %v", err), ""}
		}
		return []string{key, "CHAT", time.Unix(0, c.CreatedAt).UTC().Format("15:04:05"), c.Name, string(c.Type)}
	default:
		return []string{key, "RAW", "", fmt.Sprintf("%d bytes", len(v)), ""}
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
