package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// RecordRepository stores legacy invoices and expenses in memory.
type RecordRepository struct {
	mu       sync.RWMutex
	invoices map[string]ledger.Invoice
	expenses map[string]ledger.Expense
}

// NewRecordRepository constructs a repository.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		invoices: make(map[string]ledger.Invoice),
		expenses: make(map[string]ledger.Expense),
	}
}

// CreateInvoice stores an invoice.
func (r *RecordRepository) CreateInvoice(ctx context.Context, inv *ledger.Invoice) error {
	_ = ctx
	if inv == nil {
		return ledger.NewValidationError("invoice", "facture vide")
	}
	stored := *inv
	stored.PaidAt = clonePtr(inv.PaidAt)
	r.mu.Lock()
	r.invoices[inv.ID] = stored
	r.mu.Unlock()
	return nil
}

// ListInvoices returns invoices, filtered on service month when given.
func (r *RecordRepository) ListInvoices(ctx context.Context, month *ledger.MonthID) ([]ledger.Invoice, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]ledger.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		if month != nil && !month.Contains(inv.ServiceDate) {
			continue
		}
		inv.PaidAt = clonePtr(inv.PaidAt)
		out = append(out, inv)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceDate.Before(out[j].ServiceDate) })
	return out, nil
}

// CreateExpense stores an expense.
func (r *RecordRepository) CreateExpense(ctx context.Context, exp *ledger.Expense) error {
	_ = ctx
	if exp == nil {
		return ledger.NewValidationError("expense", "dépense vide")
	}
	stored := *exp
	stored.PaidAt = clonePtr(exp.PaidAt)
	r.mu.Lock()
	r.expenses[exp.ID] = stored
	r.mu.Unlock()
	return nil
}

// ListExpenses returns expenses, filtered on booking month when given.
func (r *RecordRepository) ListExpenses(ctx context.Context, month *ledger.MonthID) ([]ledger.Expense, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]ledger.Expense, 0, len(r.expenses))
	for _, exp := range r.expenses {
		if month != nil && !month.Contains(exp.BookingDate) {
			continue
		}
		exp.PaidAt = clonePtr(exp.PaidAt)
		out = append(out, exp)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.Before(out[j].BookingDate) })
	return out, nil
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
