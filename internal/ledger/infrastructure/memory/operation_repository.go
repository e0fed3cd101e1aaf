package memory

import (
	"context"
	"sort"
	"sync"

	ledger "freelance-tax/internal/ledger/domain"
)

// OperationRepository is an in-memory operation store.
type OperationRepository struct {
	mu   sync.RWMutex
	data map[string]ledger.Operation
}

// NewOperationRepository constructs a repository.
func NewOperationRepository() *OperationRepository {
	return &OperationRepository{data: make(map[string]ledger.Operation)}
}

// CreateOperation stores a new operation.
func (r *OperationRepository) CreateOperation(ctx context.Context, op *ledger.Operation) error {
	_ = ctx
	if op == nil {
		return ledger.NewValidationError("operation", "opération vide")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[op.ID]; exists {
		return ledger.NewValidationError("id", "opération déjà existante: "+op.ID)
	}
	r.data[op.ID] = cloneOperation(*op)
	return nil
}

// GetOperation loads an operation by id.
func (r *OperationRepository) GetOperation(ctx context.Context, id string) (*ledger.Operation, error) {
	_ = ctx
	r.mu.RLock()
	op, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	out := cloneOperation(op)
	return &out, nil
}

// UpdateOperation overwrites an existing operation.
func (r *OperationRepository) UpdateOperation(ctx context.Context, op *ledger.Operation) error {
	_ = ctx
	if op == nil {
		return ledger.NewValidationError("operation", "opération vide")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[op.ID]; !ok {
		return ledger.ErrNotFound
	}
	r.data[op.ID] = cloneOperation(*op)
	return nil
}

// DeleteOperation removes an operation.
func (r *OperationRepository) DeleteOperation(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListOperations returns matching operations ordered by invoice date.
func (r *OperationRepository) ListOperations(ctx context.Context, filter ledger.OperationFilter) ([]ledger.Operation, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]ledger.Operation, 0, len(r.data))
	for _, op := range r.data {
		if filter.Matches(op) {
			out = append(out, cloneOperation(op))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvoiceDate.Equal(out[j].InvoiceDate) {
			return out[i].InvoiceDate.Before(out[j].InvoiceDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneOperation(op ledger.Operation) ledger.Operation {
	if op.PaymentDate != nil {
		d := *op.PaymentDate
		op.PaymentDate = &d
	}
	return op
}
