package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookNotifier_PostsTextPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL)
	err := n.Notify(context.Background(), Reminder{
		AsOf:     "2024-03-25",
		Overdue:  []ReminderLine{{TaxType: "vat", Period: "2024-01", DueDate: "2024-02-20", AmountCents: 123456}},
		Upcoming: []ReminderLine{{TaxType: "urssaf", Period: "2024-02", DueDate: "2024-03-05", AmountCents: 5000}},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.MsgType != "text" {
		t.Fatalf("unexpected msgtype %q", got.MsgType)
	}
	for _, want := range []string{"En retard", "VAT 2024-01: 1234.56 €", "À venir", "URSSAF 2024-02: 50.00 €"} {
		if !strings.Contains(got.Text.Content, want) {
			t.Fatalf("content missing %q: %s", want, got.Text.Content)
		}
	}
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if err := NewWebhookNotifier(server.URL).Notify(context.Background(), Reminder{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestWebhookNotifier_EmptyURL(t *testing.T) {
	if err := NewWebhookNotifier("").Notify(context.Background(), Reminder{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
