package apihttp

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/observability/metrics"
)

// OperationLister lists ledger operations.
type OperationLister interface {
	ListOperations(ctx context.Context, filter ledger.OperationFilter) ([]ledger.Operation, error)
}

// ExportOperationsCSVHandler serves operation CSV exports.
type ExportOperationsCSVHandler struct {
	operations OperationLister
	auditor    *Auditor
}

// NewExportOperationsCSVHandler constructs an ExportOperationsCSVHandler.
func NewExportOperationsCSVHandler(operations OperationLister, auditor *Auditor) (*ExportOperationsCSVHandler, error) {
	if operations == nil {
		return nil, errors.New("operations csv handler: nil lister")
	}
	return &ExportOperationsCSVHandler{operations: operations, auditor: auditor}, nil
}

// ServeHTTP handles GET /api/v1/exports/operations.csv.
func (h *ExportOperationsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("operations", "csv", result, time.Since(start))
	}()

	month, err := OptionalMonthQuery(r)
	if err != nil {
		result = metrics.ResultError
		RespondError(w, err)
		return
	}
	ops, err := h.operations.ListOperations(r.Context(), ledger.OperationFilter{Month: month})
	if err != nil {
		result = metrics.ResultError
		RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id",
		"invoice_date",
		"payment_date",
		"operation_type",
		"amount_ht_cents",
		"vat_amount_cents",
		"amount_ttc_cents",
		"vat_on_payments",
		"label",
		"receipt_url",
	})
	for _, op := range ops {
		payment := ""
		if op.PaymentDate != nil {
			payment = ledger.FormatDate(*op.PaymentDate)
		}
		_ = writer.Write([]string{
			op.ID,
			ledger.FormatDate(op.InvoiceDate),
			payment,
			string(op.Type),
			formatInt64(op.AmountHTCents),
			formatInt64(op.VATAmountCents),
			formatInt64(op.AmountTTCCents),
			strconv.FormatBool(op.VATOnPayments),
			op.Label,
			op.ReceiptURL,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		result = metrics.ResultError
		return
	}
	meta := map[string]any{"format": "csv", "rows": len(ops)}
	if month != nil {
		meta["month"] = month.String()
	}
	h.auditor.Record(r, "export.operations", "operation", "", meta)
}

func formatInt64(value int64) string {
	return strconv.FormatInt(value, 10)
}
