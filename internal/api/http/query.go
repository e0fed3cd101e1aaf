package apihttp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	ledger "freelance-tax/internal/ledger/domain"
)

// MonthQuery reads the required year and month parameters.
func MonthQuery(r *http.Request) (ledger.MonthID, error) {
	year, err := IntQuery(r, "year", 0)
	if err != nil {
		return ledger.MonthID{}, err
	}
	month, err := IntQuery(r, "month", 0)
	if err != nil {
		return ledger.MonthID{}, err
	}
	if year == 0 || month == 0 {
		return ledger.MonthID{}, ledger.NewValidationError("month", "year et month requis")
	}
	return ledger.MonthFromParts(year, month)
}

// OptionalMonthQuery returns nil when neither year nor month is given.
func OptionalMonthQuery(r *http.Request) (*ledger.MonthID, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return nil, nil
	}
	m, err := MonthQuery(r)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// YearQuery reads the required year parameter.
func YearQuery(r *http.Request) (int, error) {
	year, err := IntQuery(r, "year", 0)
	if err != nil {
		return 0, err
	}
	if year <= 0 {
		return 0, ledger.NewValidationError("year", "année requise")
	}
	return year, nil
}

// IntQuery parses an integer parameter, returning fallback when absent.
func IntQuery(r *http.Request, key string, fallback int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, ledger.NewValidationError(key, "entier attendu")
	}
	return n, nil
}

// Int64Query parses a 64-bit integer parameter.
func Int64Query(r *http.Request, key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ledger.NewValidationError(key, "entier attendu")
	}
	return n, nil
}

// DateQuery parses a YYYY-MM-DD parameter; the zero time means absent.
func DateQuery(r *http.Request, key string) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return time.Time{}, nil
	}
	d, err := ledger.ParseDate(value)
	if err != nil {
		return time.Time{}, ledger.NewValidationError(key, "date YYYY-MM-DD attendue")
	}
	return d, nil
}
