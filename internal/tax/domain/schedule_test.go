package tax

import (
	"fmt"
	"testing"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sched-%d", n)
	}
}

func TestComputeTaxSchedule_DueDatesAndOrdering(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.VATPayDay = 5
	settings.URSSAFPayDay = 5
	current := ledger.MonthID{Year: 2024, Month: 11}
	vat := []VATReport{
		{Month: ledger.MonthID{Year: 2024, Month: 11}, DueCents: 1000},
		{Month: ledger.MonthID{Year: 2024, Month: 12}, DueCents: -50},
	}
	urssaf := []URSSAFReport{
		{Month: ledger.MonthID{Year: 2024, Month: 11}, DueCents: 2000},
		{Month: ledger.MonthID{Year: 2024, Month: 12}, DueCents: 3000},
		{Month: ledger.MonthID{Year: 2025, Month: 3}, DueCents: 9999},
	}
	now := time.Date(2024, 11, 15, 8, 0, 0, 0, time.UTC)
	got := ComputeTaxSchedule(current, 2, vat, urssaf, settings, seqIDs(), now)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].TaxType != TaxVAT || got[1].TaxType != TaxURSSAF {
		t.Fatalf("expected VAT before URSSAF on equal due dates, got %s then %s", got[0].TaxType, got[1].TaxType)
	}
	if !got[0].DueDate.Equal(day(2024, 12, 5)) {
		t.Fatalf("unexpected due date %v", got[0].DueDate)
	}
	if !got[2].DueDate.Equal(day(2025, 1, 5)) || got[2].AmountCents != 3000 {
		t.Fatalf("unexpected December URSSAF entry %+v", got[2])
	}
	if !got[2].PeriodStart.Equal(day(2024, 12, 1)) || !got[2].PeriodEnd.Equal(day(2024, 12, 31)) {
		t.Fatalf("unexpected period bounds %v %v", got[2].PeriodStart, got[2].PeriodEnd)
	}
	for _, s := range got {
		if s.Status != SchedulePending || !s.CreatedAt.Equal(now) {
			t.Fatalf("unexpected status/created_at %+v", s)
		}
	}
}

func TestStaleScheduleKeys(t *testing.T) {
	current := ledger.MonthID{Year: 2024, Month: 11}
	vat := []VATReport{
		{Month: ledger.MonthID{Year: 2024, Month: 11}, DueCents: 1000},
		{Month: ledger.MonthID{Year: 2024, Month: 12}, DueCents: 0},
	}
	urssaf := []URSSAFReport{
		{Month: ledger.MonthID{Year: 2024, Month: 12}, DueCents: 3000},
	}
	computed := ComputeTaxSchedule(current, 2, vat, urssaf, ledger.DefaultSettings(), seqIDs(), time.Now())
	got := StaleScheduleKeys(current, 2, computed)
	want := []ScheduleKey{
		{TaxType: TaxURSSAF, Period: ledger.MonthID{Year: 2024, Month: 11}},
		{TaxType: TaxVAT, Period: ledger.MonthID{Year: 2024, Month: 12}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d stale keys, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stale key %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if keys := StaleScheduleKeys(current, 0, nil); len(keys) != 0 {
		t.Fatalf("empty horizon has no stale keys: %+v", keys)
	}
}

func TestComputeTaxSchedule_ClampsPayDay(t *testing.T) {
	settings := ledger.DefaultSettings()
	settings.VATPayDay = 31
	vat := []VATReport{{Month: ledger.MonthID{Year: 2023, Month: 1}, DueCents: 100}}
	got := ComputeTaxSchedule(ledger.MonthID{Year: 2023, Month: 1}, 1, vat, nil, settings, seqIDs(), time.Now())
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
	if !got[0].DueDate.Equal(day(2023, 2, 28)) {
		t.Fatalf("expected 2023-02-28, got %s", ledger.FormatDate(got[0].DueDate))
	}
}

func TestComputeTaxSchedule_SortsAcrossPayDays(t *testing.T) {
	settings := ledger.DefaultSettings() // VAT on the 20th, URSSAF on the 5th
	current := ledger.MonthID{Year: 2024, Month: 1}
	vat := []VATReport{{Month: current, DueCents: 100}}
	urssaf := []URSSAFReport{{Month: current, DueCents: 200}}
	got := ComputeTaxSchedule(current, 1, vat, urssaf, settings, seqIDs(), time.Now())
	if len(got) != 2 || got[0].TaxType != TaxURSSAF {
		t.Fatalf("expected URSSAF (5th) first, got %+v", got)
	}
}

func TestTaxSchedule_MarkPaid(t *testing.T) {
	s := TaxSchedule{Status: SchedulePending, DueDate: day(2024, 2, 20)}
	if !s.IsOverdue(day(2024, 2, 21)) {
		t.Fatalf("expected overdue")
	}
	if s.IsOverdue(day(2024, 2, 20)) {
		t.Fatalf("due date itself is not overdue")
	}
	if err := s.MarkPaid(time.Date(2024, 2, 22, 15, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if s.Status != SchedulePaid || s.PaidAt == nil || !s.PaidAt.Equal(day(2024, 2, 22)) {
		t.Fatalf("unexpected paid state %+v", s)
	}
	if s.IsOverdue(day(2024, 3, 1)) {
		t.Fatalf("paid entry is never overdue")
	}
	if err := s.MarkPaid(day(2024, 3, 1)); err != ErrScheduleAlreadyPaid {
		t.Fatalf("expected ErrScheduleAlreadyPaid, got %v", err)
	}
}

func TestParseTaxTypeAndStatus(t *testing.T) {
	if got, err := ParseTaxType("TVA"); err != nil || got != TaxVAT {
		t.Fatalf("unexpected %s %v", got, err)
	}
	if _, err := ParseTaxType("cfe"); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, err := ParseScheduleStatus("Overdue"); err != nil || got != ScheduleOverdue {
		t.Fatalf("unexpected %s %v", got, err)
	}
	if _, err := ParseProvisionKind("bonus"); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
