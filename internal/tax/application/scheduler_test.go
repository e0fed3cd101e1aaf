package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"freelance-tax/internal/tax/notify"
)

type countingSender struct {
	calls   int
	horizon int
	err     error
}

func (c *countingSender) SendReminders(_ context.Context, horizonDays int) (notify.Reminder, error) {
	c.calls++
	c.horizon = horizonDays
	return notify.Reminder{}, c.err
}

func TestReminderScheduler_ShouldRun(t *testing.T) {
	s := NewReminderScheduler(&countingSender{}, "08:30", 7, zerolog.Nop())
	if !s.shouldRun(time.Date(2024, 3, 15, 8, 30, 12, 0, time.UTC)) {
		t.Fatalf("expected run at 08:30")
	}
	if s.shouldRun(time.Date(2024, 3, 15, 8, 31, 0, 0, time.UTC)) {
		t.Fatalf("unexpected run at 08:31")
	}
	bad := NewReminderScheduler(&countingSender{}, "8h30", 7, zerolog.Nop())
	if bad.shouldRun(time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("invalid daily_at must never run")
	}
}

func TestReminderScheduler_RunOnce(t *testing.T) {
	sender := &countingSender{}
	s := NewReminderScheduler(sender, "08:30", 10, zerolog.Nop())
	s.runOnce(context.Background())
	if sender.calls != 1 || sender.horizon != 10 {
		t.Fatalf("unexpected sender state: %+v", sender)
	}
	sender.err = errors.New("webhook down")
	s.runOnce(context.Background())
	if sender.calls != 2 {
		t.Fatalf("expected second call despite error")
	}
}

func TestReminderScheduler_StartReturnsOnInvalidSchedule(t *testing.T) {
	sender := &countingSender{}
	done := make(chan struct{})
	go func() {
		NewReminderScheduler(sender, "never", 7, zerolog.Nop()).Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler should stop on invalid schedule")
	}
}
