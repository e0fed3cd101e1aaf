package notify

import "context"

// Reminder lists schedule entries that need attention.
type Reminder struct {
	AsOf     string         `json:"as_of"`
	Overdue  []ReminderLine `json:"overdue"`
	Upcoming []ReminderLine `json:"upcoming"`
}

// ReminderLine is one schedule entry in a reminder.
type ReminderLine struct {
	TaxType     string `json:"tax_type"`
	Period      string `json:"period"`
	DueDate     string `json:"due_date"`
	AmountCents int64  `json:"amount_cents"`
}

// Empty reports whether the reminder carries nothing to send.
func (r Reminder) Empty() bool { return len(r.Overdue) == 0 && len(r.Upcoming) == 0 }

// Notifier delivers reminders.
type Notifier interface {
	Notify(ctx context.Context, msg Reminder) error
}
