package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// OperationRepository persists unified operations.
type OperationRepository struct {
	db *sql.DB
}

// NewOperationRepository constructs a repository.
func NewOperationRepository(db *sql.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

const operationColumns = `id, invoice_date, payment_date, operation_type, amount_ht_cents, vat_amount_cents,
	amount_ttc_cents, vat_on_payments, label, receipt_url, created_at, updated_at`

// CreateOperation inserts an operation.
func (r *OperationRepository) CreateOperation(ctx context.Context, op *ledger.Operation) error {
	if r == nil || r.db == nil {
		return errors.New("operation repo: nil db")
	}
	if op == nil {
		return errors.New("operation repo: nil operation")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO operations (
	id, invoice_date, payment_date, operation_type, amount_ht_cents, vat_amount_cents,
	amount_ttc_cents, vat_on_payments, label, receipt_url, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`,
		op.ID, op.InvoiceDate, nullTime(op.PaymentDate), string(op.Type), op.AmountHTCents, op.VATAmountCents,
		op.AmountTTCCents, op.VATOnPayments, op.Label, op.ReceiptURL, op.CreatedAt, op.UpdatedAt,
	)
	return ledger.WrapRepo("create operation", err)
}

// GetOperation fetches an operation by id.
func (r *OperationRepository) GetOperation(ctx context.Context, id string) (*ledger.Operation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("operation repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+operationColumns+`
FROM operations
WHERE id = $1`, id)
	op, err := scanOperation(row)
	if err != nil {
		return nil, ledger.WrapRepo("get operation", err)
	}
	if op == nil {
		return nil, ledger.ErrNotFound
	}
	return op, nil
}

// UpdateOperation rewrites every mutable column.
func (r *OperationRepository) UpdateOperation(ctx context.Context, op *ledger.Operation) error {
	if r == nil || r.db == nil {
		return errors.New("operation repo: nil db")
	}
	if op == nil {
		return errors.New("operation repo: nil operation")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE operations
SET invoice_date = $2, payment_date = $3, operation_type = $4, amount_ht_cents = $5,
	vat_amount_cents = $6, amount_ttc_cents = $7, vat_on_payments = $8, label = $9,
	receipt_url = $10, updated_at = $11
WHERE id = $1`,
		op.ID, op.InvoiceDate, nullTime(op.PaymentDate), string(op.Type), op.AmountHTCents,
		op.VATAmountCents, op.AmountTTCCents, op.VATOnPayments, op.Label, op.ReceiptURL, op.UpdatedAt,
	)
	if err != nil {
		return ledger.WrapRepo("update operation", err)
	}
	return requireAffected(res)
}

// DeleteOperation removes an operation.
func (r *OperationRepository) DeleteOperation(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("operation repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM operations WHERE id = $1`, id)
	if err != nil {
		return ledger.WrapRepo("delete operation", err)
	}
	return requireAffected(res)
}

// ListOperations returns operations matching filter ordered by invoice date.
func (r *OperationRepository) ListOperations(ctx context.Context, filter ledger.OperationFilter) ([]ledger.Operation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("operation repo: nil db")
	}
	var (
		where []string
		args  []any
	)
	if filter.Month != nil {
		args = append(args, filter.Month.Start(), filter.Month.Next().Start())
		where = append(where, "invoice_date >= $"+strconv.Itoa(len(args)-1)+" AND invoice_date < $"+strconv.Itoa(len(args)))
	}
	if filter.PaymentMonth != nil {
		args = append(args, filter.PaymentMonth.Start(), filter.PaymentMonth.Next().Start())
		where = append(where, "payment_date >= $"+strconv.Itoa(len(args)-1)+" AND payment_date < $"+strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, "operation_type = $"+strconv.Itoa(len(args)))
	}
	query := `
SELECT ` + operationColumns + `
FROM operations`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY invoice_date ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.WrapRepo("list operations", err)
	}
	defer rows.Close()

	var result []ledger.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, ledger.WrapRepo("list operations", err)
		}
		if op != nil {
			result = append(result, *op)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.WrapRepo("list operations", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*ledger.Operation, error) {
	var (
		op          ledger.Operation
		opType      string
		paymentDate sql.NullTime
	)
	if err := row.Scan(
		&op.ID,
		&op.InvoiceDate,
		&paymentDate,
		&opType,
		&op.AmountHTCents,
		&op.VATAmountCents,
		&op.AmountTTCCents,
		&op.VATOnPayments,
		&op.Label,
		&op.ReceiptURL,
		&op.CreatedAt,
		&op.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	op.Type = ledger.OperationType(opType)
	op.InvoiceDate = ledger.CivilDate(op.InvoiceDate)
	op.PaymentDate = civilPtr(paymentDate)
	op.CreatedAt = op.CreatedAt.UTC()
	op.UpdatedAt = op.UpdatedAt.UTC()
	return &op, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func civilPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := ledger.CivilDate(t.Time)
	return &v
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

