package ledger

import (
	"context"
	"time"
)

// OperationFilter narrows operation listings. Zero values mean "any".
type OperationFilter struct {
	Month        *MonthID
	PaymentMonth *MonthID
	Type         OperationType
}

// Matches reports whether op passes the filter.
func (f OperationFilter) Matches(op Operation) bool {
	if f.Month != nil && !f.Month.Contains(op.InvoiceDate) {
		return false
	}
	if f.PaymentMonth != nil && !f.PaymentMonth.ContainsPtr(op.PaymentDate) {
		return false
	}
	if f.Type != "" && op.Type != f.Type {
		return false
	}
	return true
}

// OperationRepository stores unified operations.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op *Operation) error
	GetOperation(ctx context.Context, id string) (*Operation, error)
	UpdateOperation(ctx context.Context, op *Operation) error
	DeleteOperation(ctx context.Context, id string) error
	ListOperations(ctx context.Context, filter OperationFilter) ([]Operation, error)
}

// InvoiceRepository stores legacy invoices.
type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	ListInvoices(ctx context.Context, month *MonthID) ([]Invoice, error)
}

// ExpenseRepository stores legacy expenses.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, exp *Expense) error
	ListExpenses(ctx context.Context, month *MonthID) ([]Expense, error)
}

// SettingsRepository stores the single settings row.
// LoadSettings returns (nil, nil) when nothing was saved yet.
type SettingsRepository interface {
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// MonthStatusRepository tracks month closure.
type MonthStatusRepository interface {
	GetMonthStatus(ctx context.Context, month MonthID) (MonthStatus, error)
	CloseMonth(ctx context.Context, month MonthID, closedAt time.Time) error
}
