package productivity

import (
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// WorkingDay is a tracked day of work.
type WorkingDay struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	HoursWorked     float64   `json:"hours_worked"`
	BillableHours   float64   `json:"billable_hours"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkingDayInput carries the editable fields of a working day.
type WorkingDayInput struct {
	Date            time.Time
	HoursWorked     float64
	BillableHours   float64
	HourlyRateCents int64
	Description     string
}

func (in WorkingDayInput) validate() error {
	if in.Date.IsZero() {
		return ledger.NewValidationError("date", "date requise")
	}
	if in.HoursWorked < 0 || in.HoursWorked > 24 {
		return ledger.NewValidationError("hours_worked", "heures travaillées hors limites (0..24)")
	}
	if in.BillableHours < 0 || in.BillableHours > 24 {
		return ledger.NewValidationError("billable_hours", "heures facturables hors limites (0..24)")
	}
	if in.HourlyRateCents < 0 {
		return ledger.NewValidationError("hourly_rate_cents", "taux horaire négatif")
	}
	return nil
}

// NewWorkingDay validates the input and stamps timestamps.
// Billable hours above worked hours are accepted.
func NewWorkingDay(id string, in WorkingDayInput, now time.Time) (*WorkingDay, error) {
	if id == "" {
		return nil, ledger.NewValidationError("id", "identifiant requis")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	wd := &WorkingDay{ID: id, CreatedAt: now.UTC()}
	wd.apply(in, now)
	return wd, nil
}

// Update replaces the editable fields.
func (d *WorkingDay) Update(in WorkingDayInput, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	d.apply(in, now)
	return nil
}

func (d *WorkingDay) apply(in WorkingDayInput, now time.Time) {
	d.Date = ledger.CivilDate(in.Date)
	d.HoursWorked = in.HoursWorked
	d.BillableHours = in.BillableHours
	d.HourlyRateCents = in.HourlyRateCents
	d.Description = in.Description
	d.UpdatedAt = now.UTC()
}

// RevenueCents is billable hours times the hourly rate, truncated.
func (d WorkingDay) RevenueCents() int64 {
	return int64(d.BillableHours * float64(d.HourlyRateCents))
}

// BillableRatio is billable over worked hours, 0 without worked hours.
func (d WorkingDay) BillableRatio() float64 {
	if d.HoursWorked <= 0 {
		return 0
	}
	return d.BillableHours / d.HoursWorked
}

// WeekStart returns the Monday of the day's week.
func WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return ledger.CivilDate(date).AddDate(0, 0, -offset)
}
