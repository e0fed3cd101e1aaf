package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "freelance-tax/internal/ledger/domain"
)

// RecordRepository persists legacy invoices and expenses.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateInvoice inserts an invoice.
func (r *RecordRepository) CreateInvoice(ctx context.Context, inv *ledger.Invoice) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if inv == nil {
		return errors.New("record repo: nil invoice")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, number, client, service_date, amount_ht, vat_rate_ppm, amount_tva, amount_ttc, paid_at, note
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		inv.ID, inv.Number, inv.Client, inv.ServiceDate, inv.AmountHT, inv.VATRatePPM,
		inv.AmountTVA, inv.AmountTTC, nullTime(inv.PaidAt), inv.Note)
	return ledger.WrapRepo("create invoice", err)
}

// ListInvoices lists invoices, optionally restricted to a service month.
func (r *RecordRepository) ListInvoices(ctx context.Context, month *ledger.MonthID) ([]ledger.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	query := `
SELECT id, number, client, service_date, amount_ht, vat_rate_ppm, amount_tva, amount_ttc, paid_at, note
FROM invoices`
	var args []any
	if month != nil {
		query += "\nWHERE service_date >= $1 AND service_date < $2"
		args = append(args, month.Start(), month.Next().Start())
	}
	query += "\nORDER BY service_date ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.WrapRepo("list invoices", err)
	}
	defer rows.Close()

	var result []ledger.Invoice
	for rows.Next() {
		var (
			inv    ledger.Invoice
			paidAt sql.NullTime
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Client, &inv.ServiceDate, &inv.AmountHT, &inv.VATRatePPM,
			&inv.AmountTVA, &inv.AmountTTC, &paidAt, &inv.Note); err != nil {
			return nil, ledger.WrapRepo("list invoices", err)
		}
		inv.ServiceDate = ledger.CivilDate(inv.ServiceDate)
		inv.PaidAt = civilPtr(paidAt)
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list invoices", err)
	}
	return result, nil
}

// CreateExpense inserts an expense.
func (r *RecordRepository) CreateExpense(ctx context.Context, exp *ledger.Expense) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if exp == nil {
		return errors.New("record repo: nil expense")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (
	id, label, category, booking_date, amount_ht, vat_rate_ppm, amount_tva, amount_ttc, paid_at, receipt_path
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		exp.ID, exp.Label, exp.Category, exp.BookingDate, exp.AmountHT, exp.VATRatePPM,
		exp.AmountTVA, exp.AmountTTC, nullTime(exp.PaidAt), exp.ReceiptPath)
	return ledger.WrapRepo("create expense", err)
}

// ListExpenses lists expenses, optionally restricted to a booking month.
func (r *RecordRepository) ListExpenses(ctx context.Context, month *ledger.MonthID) ([]ledger.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	query := `
SELECT id, label, category, booking_date, amount_ht, vat_rate_ppm, amount_tva, amount_ttc, paid_at, receipt_path
FROM expenses`
	var args []any
	if month != nil {
		query += "\nWHERE booking_date >= $1 AND booking_date < $2"
		args = append(args, month.Start(), month.Next().Start())
	}
	query += "\nORDER BY booking_date ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.WrapRepo("list expenses", err)
	}
	defer rows.Close()

	var result []ledger.Expense
	for rows.Next() {
		var (
			exp    ledger.Expense
			paidAt sql.NullTime
		)
		if err := rows.Scan(&exp.ID, &exp.Label, &exp.Category, &exp.BookingDate, &exp.AmountHT, &exp.VATRatePPM,
			&exp.AmountTVA, &exp.AmountTTC, &paidAt, &exp.ReceiptPath); err != nil {
			return nil, ledger.WrapRepo("list expenses", err)
		}
		exp.BookingDate = ledger.CivilDate(exp.BookingDate)
		exp.PaidAt = civilPtr(paidAt)
		result = append(result, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list expenses", err)
	}
	return result, nil
}
