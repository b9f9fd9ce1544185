package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key          string
	Conversation string
	Timestamp    string
	MessageID    string
	Detail       string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartInspectServer serves a read-only HTML view of the message store on
// its own port, for poking at conversations during development. It never
// blocks the caller.
func StartInspectServer(db *badger.DB, port int, log *slog.Logger, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		log.Info("Inspect server listening", "address", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("Inspect server stopped", "error", err)
		}
	}()
}

// mapRow renders one store entry. Message keys look like
// msg:{conversation}:{unix nanos}:{uuid}; anything else is shown raw.
func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:          key,
		Conversation: "-",
		Timestamp:    "--:--:--",
		MessageID:    "--------",
		Detail:       "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	parts := strings.Split(key, ":")
	if len(parts) >= 4 && parts[0] == "msg" {
		row.Conversation = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.MessageID = parts[3]
		if len(row.MessageID) > 8 {
			row.MessageID = row.MessageID[:8]
		}
	}

	var record struct {
		SenderRole string `json:"senderRole"`
		Message    string `json:"message"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(val, &record); err == nil && record.Message != "" {
		body := record.Message
		// Truncate on a rune boundary so multi-byte text never renders a
		// broken tail.
		if runes := []rune(body); len(runes) > 60 {
			body = string(runes[:60]) + "…"
		}
		row.Detail = fmt.Sprintf("[%s/%s] %s", record.SenderRole, record.Status, body)
	}
	return row
}
