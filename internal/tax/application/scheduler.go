package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"freelance-tax/internal/tax/notify"
)

// ReminderSender sends schedule reminders.
type ReminderSender interface {
	SendReminders(ctx context.Context, horizonDays int) (notify.Reminder, error)
}

// ReminderScheduler sends reminders once a day at dailyAt (UTC, "15:04").
type ReminderScheduler struct {
	sender      ReminderSender
	dailyAt     string
	horizonDays int
	logger      zerolog.Logger
}

// NewReminderScheduler constructs a ReminderScheduler.
func NewReminderScheduler(sender ReminderSender, dailyAt string, horizonDays int, logger zerolog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		sender:      sender,
		dailyAt:     dailyAt,
		horizonDays: horizonDays,
		logger:      logger.With().Str("component", "reminder_scheduler").Logger(),
	}
}

// Start begins the scheduler loop and returns when ctx is done.
func (s *ReminderScheduler) Start(ctx context.Context) {
	if s == nil || s.sender == nil {
		return
	}
	if _, _, err := parseDailyAt(s.dailyAt); err != nil {
		s.logger.Warn().Err(err).Str("daily_at", s.dailyAt).Msg("reminder scheduler disabled")
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx)
		}
	}
}

func (s *ReminderScheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *ReminderScheduler) runOnce(ctx context.Context) {
	msg, err := s.sender.SendReminders(ctx, s.horizonDays)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled reminder failed")
		return
	}
	s.logger.Debug().Int("overdue", len(msg.Overdue)).Int("upcoming", len(msg.Upcoming)).Msg("scheduled reminder done")
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
