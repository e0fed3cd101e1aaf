package receiptshttp

import (
	"context"
	"errors"
	"io"
	"net/http"

	apihttp "freelance-tax/internal/api/http"
	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/receipts"
)

const (
	receiptsPath   = "/api/v1/receipts"
	maxUploadBytes = 10 << 20
)

// Store is the receipt storage used by the handler.
type Store interface {
	Upload(ctx context.Context, content io.Reader, originalName string) (string, error)
	Delete(ctx context.Context, fileURL string) error
	ListByMonth(ctx context.Context, month ledger.MonthID) ([]receipts.FileInfo, error)
	Stats(ctx context.Context) (receipts.Stats, error)
}

// Handler serves receipt uploads and listings.
type Handler struct {
	store   Store
	auditor *apihttp.Auditor
}

// NewHandler constructs a handler.
func NewHandler(store Store, auditor *apihttp.Auditor) (*Handler, error) {
	if store == nil {
		return nil, errors.New("receipts handler: nil store")
	}
	return &Handler{store: store, auditor: auditor}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(receiptsPath, h)
	mux.Handle(receiptsPath+"/", h)
}

// ServeHTTP dispatches on path and method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == receiptsPath:
		switch r.Method {
		case http.MethodPost:
			h.handleUpload(w, r)
		case http.MethodDelete:
			h.handleDelete(w, r)
		default:
			apihttp.MethodNotAllowed(w)
		}
	case r.URL.Path == receiptsPath+"/by-month" && r.Method == http.MethodGet:
		h.handleByMonth(w, r)
	case r.URL.Path == receiptsPath+"/stats" && r.Method == http.MethodGet:
		h.handleStats(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apihttp.RespondError(w, ledger.NewValidationError("file", "formulaire multipart invalide"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apihttp.RespondError(w, ledger.NewValidationError("file", "fichier requis"))
		return
	}
	defer file.Close()

	url, err := h.store.Upload(r.Context(), file, header.Filename)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
	h.auditor.Record(r, "receipt.upload", "receipt", url, map[string]any{
		"filename":   header.Filename,
		"size_bytes": header.Size,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		apihttp.RespondError(w, ledger.NewValidationError("url", "url requise"))
		return
	}
	if err := h.store.Delete(r.Context(), url); err != nil {
		apihttp.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.auditor.Record(r, "receipt.delete", "receipt", url, nil)
}

func (h *Handler) handleByMonth(w http.ResponseWriter, r *http.Request) {
	month, err := apihttp.MonthQuery(r)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	files, err := h.store.ListByMonth(r.Context(), month)
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	if files == nil {
		files = []receipts.FileInfo{}
	}
	apihttp.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		apihttp.RespondError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, stats)
}
