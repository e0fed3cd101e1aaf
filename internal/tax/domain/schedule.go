package tax

import (
	"errors"
	"sort"
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// TaxType is the kind of obligation a schedule entry covers.
type TaxType string

const (
	TaxVAT       TaxType = "vat"
	TaxURSSAF    TaxType = "urssaf"
	TaxIncomeTax TaxType = "income_tax"
	TaxOther     TaxType = "other"
)

// ParseTaxType accepts the known tax types, including French spellings.
func ParseTaxType(value string) (TaxType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "vat", "tva":
		return TaxVAT, nil
	case "urssaf":
		return TaxURSSAF, nil
	case "income_tax", "impot", "impôt":
		return TaxIncomeTax, nil
	case "other", "autre":
		return TaxOther, nil
	}
	return "", ledger.NewValidationError("tax_type", "type d'impôt inconnu: "+value)
}

// ScheduleStatus tracks the payment state of a schedule entry.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "pending"
	SchedulePaid    ScheduleStatus = "paid"
	ScheduleOverdue ScheduleStatus = "overdue"
)

// ParseScheduleStatus accepts pending, paid and overdue.
func ParseScheduleStatus(value string) (ScheduleStatus, error) {
	switch ScheduleStatus(strings.ToLower(strings.TrimSpace(value))) {
	case SchedulePending:
		return SchedulePending, nil
	case SchedulePaid:
		return SchedulePaid, nil
	case ScheduleOverdue:
		return ScheduleOverdue, nil
	}
	return "", ledger.NewValidationError("status", "statut inconnu: "+value)
}

// ErrScheduleAlreadyPaid is returned when paying a settled entry twice.
var ErrScheduleAlreadyPaid = errors.New("tax schedule: already paid")

// TaxSchedule is a dated obligation derived from a monthly report.
type TaxSchedule struct {
	ID          string         `json:"id"`
	TaxType     TaxType        `json:"tax_type"`
	DueDate     time.Time      `json:"due_date"`
	AmountCents int64          `json:"amount_cents"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Status      ScheduleStatus `json:"status"`
	PaidAt      *time.Time     `json:"paid_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Period returns the month the entry covers.
func (s TaxSchedule) Period() ledger.MonthID {
	return ledger.MonthOf(s.PeriodStart)
}

// ScheduleKey identifies the single entry of a tax type for a month.
type ScheduleKey struct {
	TaxType TaxType
	Period  ledger.MonthID
}

// Key returns the entry's (type, period) key.
func (s TaxSchedule) Key() ScheduleKey {
	return ScheduleKey{TaxType: s.TaxType, Period: s.Period()}
}

// MarkPaid settles the entry.
func (s *TaxSchedule) MarkPaid(paidOn time.Time) error {
	if s.Status == SchedulePaid {
		return ErrScheduleAlreadyPaid
	}
	d := ledger.CivilDate(paidOn)
	s.Status = SchedulePaid
	s.PaidAt = &d
	return nil
}

// IsOverdue reports whether an unpaid entry is past its due date on asOf.
func (s TaxSchedule) IsOverdue(asOf time.Time) bool {
	return s.Status != SchedulePaid && s.DueDate.Before(ledger.CivilDate(asOf))
}

// ComputeTaxSchedule turns monthly reports into dated obligations over
// horizonMonths starting at current. Each positive report is due on the
// configured pay day of the following month. Results are ordered by due
// date; VAT precedes URSSAF on equal dates.
func ComputeTaxSchedule(current ledger.MonthID, horizonMonths int, vatReports []VATReport, urssafReports []URSSAFReport, settings ledger.Settings, newID func() string, now time.Time) []TaxSchedule {
	schedules := make([]TaxSchedule, 0, 2*max(horizonMonths, 0))
	created := now.UTC()
	for i := 0; i < horizonMonths; i++ {
		month := current.AddMonths(i)
		if r, ok := findVAT(vatReports, month); ok && r.DueCents > 0 {
			schedules = append(schedules, newSchedule(newID(), TaxVAT, month, settings.VATPayDay, r.DueCents, created))
		}
		if r, ok := findURSSAF(urssafReports, month); ok && r.DueCents > 0 {
			schedules = append(schedules, newSchedule(newID(), TaxURSSAF, month, settings.URSSAFPayDay, r.DueCents, created))
		}
	}
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].DueDate.Before(schedules[j].DueDate)
	})
	return schedules
}

// StaleScheduleKeys lists the VAT and URSSAF keys of the horizon that
// computed does not cover, i.e. months whose due is no longer positive.
func StaleScheduleKeys(current ledger.MonthID, horizonMonths int, computed []TaxSchedule) []ScheduleKey {
	emitted := make(map[ScheduleKey]struct{}, len(computed))
	for _, s := range computed {
		emitted[s.Key()] = struct{}{}
	}
	var stale []ScheduleKey
	for i := 0; i < horizonMonths; i++ {
		month := current.AddMonths(i)
		for _, kind := range []TaxType{TaxVAT, TaxURSSAF} {
			key := ScheduleKey{TaxType: kind, Period: month}
			if _, ok := emitted[key]; !ok {
				stale = append(stale, key)
			}
		}
	}
	return stale
}

func newSchedule(id string, kind TaxType, month ledger.MonthID, payDay int, amount int64, created time.Time) TaxSchedule {
	return TaxSchedule{
		ID:          id,
		TaxType:     kind,
		DueDate:     ledger.DueDate(month.Next(), payDay),
		AmountCents: amount,
		PeriodStart: month.Start(),
		PeriodEnd:   month.End(),
		Status:      SchedulePending,
		CreatedAt:   created,
	}
}

func findVAT(reports []VATReport, month ledger.MonthID) (VATReport, bool) {
	for _, r := range reports {
		if r.Month == month {
			return r, true
		}
	}
	return VATReport{}, false
}

func findURSSAF(reports []URSSAFReport, month ledger.MonthID) (URSSAFReport, bool) {
	for _, r := range reports {
		if r.Month == month {
			return r, true
		}
	}
	return URSSAFReport{}, false
}
