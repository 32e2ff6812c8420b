package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// Incoming is one user command extracted from a Telegram update.
type Incoming struct {
	UserID   string
	Nickname string
	GroupID  string // empty for direct messages
	ChatID   string
	Text     string
}

// CommandHandler is called for each incoming message; a non-empty return is
// sent back to the originating chat.
type CommandHandler func(msg Incoming) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		From *struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID   int64  `json:"id"`
			Type string `json:"type"` // "private", "group", "supergroup"
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling begins long-polling for commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=30", t.BotToken, offset)
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			msg, ok := toIncoming(update)
			if !ok {
				continue
			}
			log.Printf("[INFO] received command from %s: %s", msg.UserID, msg.Text)
			reply := handler(msg)
			if reply != "" {
				if err := t.Send(msg.ChatID, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func toIncoming(u telegramUpdate) (Incoming, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.Text == "" {
		return Incoming{}, false
	}
	chatID := strconv.FormatInt(m.Chat.ID, 10)
	msg := Incoming{
		UserID:   strconv.FormatInt(m.From.ID, 10),
		Nickname: m.From.FirstName,
		ChatID:   chatID,
		Text:     m.Text,
	}
	if msg.Nickname == "" {
		msg.Nickname = m.From.Username
	}
	if m.Chat.Type == "group" || m.Chat.Type == "supergroup" {
		msg.GroupID = chatID
	}
	return msg, true
}
