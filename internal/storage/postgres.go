// Package storage opens the PostgreSQL pool and creates the schema.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// pgx registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("storage: empty dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return db, nil
}

// Migrate creates every table used by the engine. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("storage: nil db")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: migrate step %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS operations (
	id TEXT PRIMARY KEY,
	invoice_date DATE NOT NULL,
	payment_date DATE,
	operation_type TEXT NOT NULL CHECK (operation_type IN ('sale','purchase')),
	amount_ht_cents BIGINT NOT NULL,
	vat_amount_cents BIGINT NOT NULL,
	amount_ttc_cents BIGINT NOT NULL,
	vat_on_payments BOOLEAN NOT NULL DEFAULT TRUE,
	label TEXT NOT NULL DEFAULT '',
	receipt_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS operations_invoice_date_idx ON operations (invoice_date)`,
	`CREATE INDEX IF NOT EXISTS operations_payment_date_idx ON operations (payment_date)`,
	`CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL,
	client TEXT NOT NULL,
	service_date DATE NOT NULL,
	amount_ht BIGINT NOT NULL,
	vat_rate_ppm BIGINT NOT NULL,
	amount_tva BIGINT NOT NULL,
	amount_ttc BIGINT NOT NULL,
	paid_at DATE,
	note TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	booking_date DATE NOT NULL,
	amount_ht BIGINT NOT NULL,
	vat_rate_ppm BIGINT NOT NULL,
	amount_tva BIGINT NOT NULL,
	amount_ttc BIGINT NOT NULL,
	paid_at DATE,
	receipt_path TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS settings (
	id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	default_vat_rate_ppm BIGINT NOT NULL,
	urssaf_rate_ppm BIGINT NOT NULL,
	vat_declare_day INT NOT NULL,
	vat_pay_day INT NOT NULL,
	urssaf_pay_day INT NOT NULL,
	buffer_cents BIGINT NOT NULL,
	forecast_ht_cents BIGINT NOT NULL,
	forecast_expenses_ttc_cents BIGINT NOT NULL,
	forecast_expense_vat_rate_ppm BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS month_status (
	year INT NOT NULL,
	month INT NOT NULL,
	closed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (year, month)
)`,
	`CREATE TABLE IF NOT EXISTS provisions (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	due_date DATE NOT NULL,
	amount_cents BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tax_schedules (
	id TEXT PRIMARY KEY,
	tax_type TEXT NOT NULL,
	due_date DATE NOT NULL,
	amount_cents BIGINT NOT NULL,
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	status TEXT NOT NULL,
	paid_at DATE,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (tax_type, period_start, period_end)
)`,
	`CREATE TABLE IF NOT EXISTS working_days (
	id TEXT PRIMARY KEY,
	work_date DATE NOT NULL,
	hours_worked DOUBLE PRECISION NOT NULL,
	billable_hours DOUBLE PRECISION NOT NULL,
	hourly_rate_cents BIGINT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS working_days_date_idx ON working_days (work_date)`,
	`CREATE TABLE IF NOT EXISTS monthly_kpis (
	id TEXT PRIMARY KEY,
	year INT NOT NULL,
	month INT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (year, month)
)`,
	`CREATE TABLE IF NOT EXISTS simulations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	scenario_type TEXT NOT NULL,
	parameters JSONB NOT NULL,
	results JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	metadata JSONB,
	payload_digest TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
}
