// Package notify delivers alert messages to Telegram.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"signalbot/types"
)

// Notifier sends an alert somewhere a human will see it.
type Notifier interface {
	SendAlert(ctx context.Context, alert types.Alert)
}

// Telegram posts alerts through the Bot API sendMessage endpoint.
type Telegram struct {
	token      string
	chatID     string
	httpClient *http.Client
	baseURL    string
}

// NewTelegram returns a notifier, or nil when the bot is not configured.
// Callers treat a nil notifier as "alerting disabled".
func NewTelegram(token, chatID string) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	return &Telegram{
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.telegram.org",
	}
}

// SendAlert formats and posts the alert. Delivery failures are logged and
// swallowed; a dropped notification must never stall the stream.
func (t *Telegram) SendAlert(ctx context.Context, alert types.Alert) {
	if t == nil {
		return
	}

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       FormatAlert(alert),
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Telegram payload marshal failed: %v", err)
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("Telegram request build failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		log.Printf("Telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Telegram send failed (status %d): %s", resp.StatusCode, string(respBody))
		return
	}
	log.Printf("Telegram alert delivered: %q", alert.Headline)
}

// FormatAlert renders the markdown alert message.
func FormatAlert(alert types.Alert) string {
	emoji := "🟢"
	if strings.EqualFold(alert.Decision.Direction, "negative") {
		emoji = "🔴"
	}

	return fmt.Sprintf(
		"%s *MARKET SIGNAL*\n\n*Headline:* %s\n*Direction:* %s\n*Impact:* %d/10 | *Confidence:* %d/10\n*BTC Price:* %s\n\n_%s_",
		emoji,
		alert.Headline,
		alert.Decision.Direction,
		alert.Decision.Impact,
		alert.Decision.Confidence,
		alert.Price,
		alert.Decision.Analysis,
	)
}
