package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
)

// Repositories groups the stores the ledger service reads and writes.
type Repositories struct {
	Operations ledger.OperationRepository
	Invoices   ledger.InvoiceRepository
	Expenses   ledger.ExpenseRepository
	Settings   ledger.SettingsRepository
	Months     ledger.MonthStatusRepository
}

// Service handles ledger records, settings and month closure.
type Service struct {
	repos  Repositories
	clock  ledger.Clock
	newID  func() string
	logger zerolog.Logger
}

// NewService constructs a service.
func NewService(repos Repositories, clock ledger.Clock, logger zerolog.Logger) (*Service, error) {
	if repos.Operations == nil {
		return nil, errors.New("ledger service: nil operation repo")
	}
	if repos.Invoices == nil || repos.Expenses == nil {
		return nil, errors.New("ledger service: nil record repo")
	}
	if repos.Settings == nil {
		return nil, errors.New("ledger service: nil settings repo")
	}
	if repos.Months == nil {
		return nil, errors.New("ledger service: nil month status repo")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Service{
		repos:  repos,
		clock:  clock,
		newID:  uuid.NewString,
		logger: logger.With().Str("component", "ledger").Logger(),
	}, nil
}

// OperationRequest is the boundary form of an operation. Amounts follow the
// HT/TVA/TTC triangle; dates are "YYYY-MM-DD".
type OperationRequest struct {
	InvoiceDate    string `json:"invoice_date"`
	PaymentDate    string `json:"payment_date,omitempty"`
	Type           string `json:"operation_type"`
	AmountHTCents  *int64 `json:"amount_ht_cents,omitempty"`
	VATAmountCents *int64 `json:"vat_amount_cents,omitempty"`
	AmountTTCCents *int64 `json:"amount_ttc_cents,omitempty"`
	VATOnPayments  *bool  `json:"vat_on_payments,omitempty"`
	Label          string `json:"label"`
	ReceiptURL     string `json:"receipt_url,omitempty"`
}

// CreateOperation validates req and stores a new operation.
func (s *Service) CreateOperation(ctx context.Context, req OperationRequest) (op *ledger.Operation, err error) {
	defer observe("create_operation", time.Now(), &err)

	in, err := s.operationInput(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, ledger.MonthOf(in.InvoiceDate)); err != nil {
		return nil, err
	}
	op, err = ledger.NewOperation(s.newID(), in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repos.Operations.CreateOperation(ctx, op); err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", op.ID).Str("type", string(op.Type)).Int64("ht", op.AmountHTCents).Msg("operation created")
	return op, nil
}

// GetOperation loads one operation.
func (s *Service) GetOperation(ctx context.Context, id string) (*ledger.Operation, error) {
	return s.repos.Operations.GetOperation(ctx, id)
}

// UpdateOperation replaces every field of an operation from req.
func (s *Service) UpdateOperation(ctx context.Context, id string, req OperationRequest) (op *ledger.Operation, err error) {
	defer observe("update_operation", time.Now(), &err)

	op, err = s.repos.Operations.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.operationInput(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, ledger.MonthOf(op.InvoiceDate)); err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, ledger.MonthOf(in.InvoiceDate)); err != nil {
		return nil, err
	}
	if err := op.Amend(in, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repos.Operations.UpdateOperation(ctx, op); err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", op.ID).Msg("operation updated")
	return op, nil
}

// DeleteOperation removes an operation outside closed months.
func (s *Service) DeleteOperation(ctx context.Context, id string) (err error) {
	defer observe("delete_operation", time.Now(), &err)

	op, err := s.repos.Operations.GetOperation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, ledger.MonthOf(op.InvoiceDate)); err != nil {
		return err
	}
	if err := s.repos.Operations.DeleteOperation(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("operation deleted")
	return nil
}

// ListOperations lists operations matching filter.
func (s *Service) ListOperations(ctx context.Context, filter ledger.OperationFilter) ([]ledger.Operation, error) {
	return s.repos.Operations.ListOperations(ctx, filter)
}

// ListOperationsByPaymentMonth lists operations paid in month.
func (s *Service) ListOperationsByPaymentMonth(ctx context.Context, month ledger.MonthID) ([]ledger.Operation, error) {
	return s.repos.Operations.ListOperations(ctx, ledger.OperationFilter{PaymentMonth: &month})
}

// RecordRequest is the simple form of a legacy invoice or expense.
type RecordRequest struct {
	Number     string `json:"number,omitempty"`
	Client     string `json:"client,omitempty"`
	Label      string `json:"label,omitempty"`
	Category   string `json:"category,omitempty"`
	Date       string `json:"date"`
	AmountHT   *int64 `json:"amount_ht,omitempty"`
	AmountTVA  *int64 `json:"amount_tva,omitempty"`
	AmountTTC  *int64 `json:"amount_ttc,omitempty"`
	VATRatePPM *int64 `json:"vat_rate_ppm,omitempty"`
	PaidAt     string `json:"paid_at,omitempty"`
	Note       string `json:"note,omitempty"`
	Receipt    string `json:"receipt_path,omitempty"`
}

// CreateInvoice stores a legacy invoice.
func (s *Service) CreateInvoice(ctx context.Context, req RecordRequest) (inv *ledger.Invoice, err error) {
	defer observe("create_invoice", time.Now(), &err)

	date, paidAt, amounts, rate, override, err := s.recordFields(ctx, req)
	if err != nil {
		return nil, err
	}
	inv, err = ledger.NewInvoice(s.newID(), ledger.InvoiceInput{
		Number:      req.Number,
		Client:      req.Client,
		ServiceDate: date,
		AmountHT:    amounts.HT,
		VATRatePPM:  rate,
		VATOverride: override,
		PaidAt:      paidAt,
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Invoices.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices lists legacy invoices, optionally for one service month.
func (s *Service) ListInvoices(ctx context.Context, month *ledger.MonthID) ([]ledger.Invoice, error) {
	return s.repos.Invoices.ListInvoices(ctx, month)
}

// CreateExpense stores a legacy expense.
func (s *Service) CreateExpense(ctx context.Context, req RecordRequest) (exp *ledger.Expense, err error) {
	defer observe("create_expense", time.Now(), &err)

	date, paidAt, amounts, rate, override, err := s.recordFields(ctx, req)
	if err != nil {
		return nil, err
	}
	exp, err = ledger.NewExpense(s.newID(), ledger.ExpenseInput{
		Label:       req.Label,
		Category:    req.Category,
		BookingDate: date,
		AmountHT:    amounts.HT,
		VATRatePPM:  rate,
		VATOverride: override,
		PaidAt:      paidAt,
		ReceiptPath: req.Receipt,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Expenses.CreateExpense(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// ListExpenses lists legacy expenses, optionally for one booking month.
func (s *Service) ListExpenses(ctx context.Context, month *ledger.MonthID) ([]ledger.Expense, error) {
	return s.repos.Expenses.ListExpenses(ctx, month)
}

// Settings returns the stored settings, or the defaults when none are saved.
func (s *Service) Settings(ctx context.Context) (ledger.Settings, error) {
	stored, err := s.repos.Settings.LoadSettings(ctx)
	if err != nil {
		return ledger.Settings{}, err
	}
	if stored == nil {
		return ledger.DefaultSettings(), nil
	}
	return *stored, nil
}

// SaveSettings validates and stores settings.
func (s *Service) SaveSettings(ctx context.Context, settings ledger.Settings) (err error) {
	defer observe("save_settings", time.Now(), &err)

	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.repos.Settings.SaveSettings(ctx, settings); err != nil {
		return err
	}
	s.logger.Info().Int64("vat_rate_ppm", settings.DefaultVATRatePPM).Int64("urssaf_rate_ppm", settings.URSSAFRatePPM).Msg("settings saved")
	return nil
}

// SeedSettings saves settings only when none are stored yet. It reports
// whether the seed was written.
func (s *Service) SeedSettings(ctx context.Context, settings ledger.Settings) (bool, error) {
	stored, err := s.repos.Settings.LoadSettings(ctx)
	if err != nil {
		return false, err
	}
	if stored != nil {
		return false, nil
	}
	if err := s.SaveSettings(ctx, settings); err != nil {
		return false, err
	}
	return true, nil
}

// MonthStatus returns the closure state of month.
func (s *Service) MonthStatus(ctx context.Context, month ledger.MonthID) (ledger.MonthStatus, error) {
	return s.repos.Months.GetMonthStatus(ctx, month)
}

// CloseMonth closes month against further operation edits.
func (s *Service) CloseMonth(ctx context.Context, month ledger.MonthID) (status ledger.MonthStatus, err error) {
	defer observe("close_month", time.Now(), &err)

	if !month.Valid() {
		return ledger.MonthStatus{}, ledger.NewValidationError("month", "mois invalide")
	}
	if err := s.repos.Months.CloseMonth(ctx, month, s.clock.Now()); err != nil {
		return ledger.MonthStatus{}, err
	}
	s.logger.Info().Str("month", month.String()).Msg("month closed")
	return s.repos.Months.GetMonthStatus(ctx, month)
}

func (s *Service) ensureOpen(ctx context.Context, month ledger.MonthID) error {
	status, err := s.repos.Months.GetMonthStatus(ctx, month)
	if err != nil {
		return err
	}
	if status.IsClosed() {
		return ledger.ErrMonthClosed
	}
	return nil
}

func (s *Service) operationInput(ctx context.Context, req OperationRequest) (ledger.OperationInput, error) {
	invoiceDate, err := ledger.ParseDate(req.InvoiceDate)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	paymentDate, err := ledger.ParseOptionalDate(req.PaymentDate)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	opType, err := ledger.ParseOperationType(req.Type)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	amounts, err := ledger.ResolveAmounts(req.AmountHTCents, req.VATAmountCents, req.AmountTTCCents, settings.DefaultVATRatePPM)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	onPayments := true
	if req.VATOnPayments != nil {
		onPayments = *req.VATOnPayments
	}
	return ledger.OperationInput{
		InvoiceDate:    invoiceDate,
		PaymentDate:    paymentDate,
		Type:           opType,
		AmountHTCents:  amounts.HT,
		VATAmountCents: amounts.TVA,
		VATOnPayments:  onPayments,
		Label:          req.Label,
		ReceiptURL:     req.ReceiptURL,
	}, nil
}

// recordFields resolves a legacy record. When only HT is given the VAT is
// left to the record constructor (rounded at the rate); otherwise the
// resolved VAT is kept as an override.
func (s *Service) recordFields(ctx context.Context, req RecordRequest) (time.Time, *time.Time, ledger.Amounts, int64, *int64, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return time.Time{}, nil, ledger.Amounts{}, 0, nil, err
	}
	paidAt, err := ledger.ParseOptionalDate(req.PaidAt)
	if err != nil {
		return time.Time{}, nil, ledger.Amounts{}, 0, nil, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return time.Time{}, nil, ledger.Amounts{}, 0, nil, err
	}
	rate := settings.DefaultVATRatePPM
	if req.VATRatePPM != nil {
		rate = *req.VATRatePPM
	}
	amounts, err := ledger.ResolveAmounts(req.AmountHT, req.AmountTVA, req.AmountTTC, rate)
	if err != nil {
		return time.Time{}, nil, ledger.Amounts{}, 0, nil, err
	}
	var override *int64
	if req.AmountTVA != nil || req.AmountTTC != nil {
		tva := amounts.TVA
		override = &tva
	}
	return date, paidAt, amounts, rate, override, nil
}

func observe(command string, start time.Time, errp *error) {
	result := metrics.ResultSuccess
	if errp != nil && *errp != nil {
		result = metrics.ResultError
	}
	metrics.ObserveCommand(command, result, time.Since(start))
}
