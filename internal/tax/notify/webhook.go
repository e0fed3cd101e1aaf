package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// WebhookNotifier posts reminders as text messages to a webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends the reminder.
func (n *WebhookNotifier) Notify(ctx context.Context, msg Reminder) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatReminder(msg)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}
	return nil
}

func formatReminder(msg Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Échéances fiscales] au %s\n", msg.AsOf)
	writeLines(&b, "En retard", msg.Overdue)
	writeLines(&b, "À venir", msg.Upcoming)
	return strings.TrimSpace(b.String())
}

func writeLines(b *strings.Builder, title string, lines []ReminderLine) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s %s: %s € le %s\n", strings.ToUpper(l.TaxType), l.Period, ledger.FormatEuros(l.AmountCents), l.DueDate)
	}
}
