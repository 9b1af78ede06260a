package notify

import (
	"strings"
	"testing"
	"time"

	"signalbot/types"
)

func TestFormatAlert(t *testing.T) {
	alert := types.Alert{
		Decision: types.Decision{
			Direction:  "Negative",
			Impact:     9,
			Confidence: 8,
			Analysis:   "Geopolitical, risk-off event.",
		},
		Headline:    "War breaks out",
		Price:       "$50000.00",
		TriggeredAt: time.Now(),
	}

	msg := FormatAlert(alert)
	for _, want := range []string{"🔴", "War breaks out", "Negative", "9/10", "8/10", "$50000.00", "Geopolitical"} {
		if !strings.Contains(msg, want) {
			t.Errorf("FormatAlert() missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatAlertNegativeEmojiAnyCase(t *testing.T) {
	for _, direction := range []string{"negative", "Negative", "NEGATIVE"} {
		alert := types.Alert{
			Decision: types.Decision{Direction: direction, Impact: 8, Confidence: 8},
			Headline: "Exchange halts withdrawals",
			Price:    "Price N/A",
		}
		if !strings.Contains(FormatAlert(alert), "🔴") {
			t.Errorf("direction %q missing red emoji", direction)
		}
	}
}

func TestFormatAlertPositiveEmoji(t *testing.T) {
	alert := types.Alert{
		Decision: types.Decision{Direction: "Positive", Impact: 8, Confidence: 8},
		Headline: "ETF approved",
		Price:    "Price N/A",
	}
	if !strings.Contains(FormatAlert(alert), "🟢") {
		t.Error("positive alert missing green emoji")
	}
}

func TestNewTelegramUnconfigured(t *testing.T) {
	if NewTelegram("", "") != nil {
		t.Error("NewTelegram without credentials must return nil")
	}
	if NewTelegram("token", "") != nil {
		t.Error("NewTelegram without chat id must return nil")
	}
}
