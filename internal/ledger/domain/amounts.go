package ledger

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// PPMScale is 100% expressed in parts per million.
const PPMScale int64 = 1_000_000

// ApplyRatePPM returns trunc(amount*ratePPM/1e6) without intermediate overflow.
func ApplyRatePPM(amount, ratePPM int64) int64 {
	return mulDiv(amount, ratePPM, PPMScale, false)
}

// RoundRatePPM returns amount*ratePPM/1e6 rounded half away from zero.
func RoundRatePPM(amount, ratePPM int64) int64 {
	return mulDiv(amount, ratePPM, PPMScale, true)
}

// MulDiv returns trunc(a*b/d) with a 128-bit intermediate product.
func MulDiv(a, b, d int64) int64 {
	return mulDiv(a, b, d, false)
}

func mulDiv(a, b, d int64, round bool) int64 {
	if d == 0 {
		return 0
	}
	neg := (a < 0) != (b < 0) != (d < 0)
	hi, lo := bits.Mul64(abs64(a), abs64(b))
	ud := abs64(d)
	if hi >= ud {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	q, r := bits.Div64(hi, lo, ud)
	if round && r >= ud-r {
		q++
	}
	if q > math.MaxInt64 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(^v) + 1
	}
	return uint64(v)
}

// FormatEuros renders cents as a euro amount with two decimals.
func FormatEuros(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Amounts is a reconciled HT/TVA/TTC triangle.
type Amounts struct {
	HT  int64 `json:"amount_ht"`
	TVA int64 `json:"amount_tva"`
	TTC int64 `json:"amount_ttc"`
}

// ResolveAmounts derives the missing side of the HT/TVA/TTC triangle.
// HT alone uses defaultRatePPM; any two of three derive the third.
func ResolveAmounts(ht, tva, ttc *int64, defaultRatePPM int64) (Amounts, error) {
	switch {
	case ht != nil && tva != nil && ttc != nil:
		if *ht+*tva != *ttc {
			return Amounts{}, NewValidationError("amount_ttc", "TTC doit être égal à HT + TVA")
		}
		return Amounts{HT: *ht, TVA: *tva, TTC: *ttc}, nil
	case ht != nil && tva != nil:
		return Amounts{HT: *ht, TVA: *tva, TTC: *ht + *tva}, nil
	case ht != nil && ttc != nil:
		if *ttc < *ht {
			return Amounts{}, NewValidationError("amount_ttc", "TTC < HT")
		}
		return Amounts{HT: *ht, TVA: *ttc - *ht, TTC: *ttc}, nil
	case tva != nil && ttc != nil:
		if *ttc < *tva {
			return Amounts{}, NewValidationError("amount_ttc", "TTC < TVA")
		}
		return Amounts{HT: *ttc - *tva, TVA: *tva, TTC: *ttc}, nil
	case ht != nil:
		vat := ApplyRatePPM(*ht, defaultRatePPM)
		return Amounts{HT: *ht, TVA: vat, TTC: *ht + vat}, nil
	}
	return Amounts{}, NewValidationError("amount_ht", "Fournir au moins HT, ou deux montants parmi HT/TVA/TTC")
}

// ValidateRatePPM checks a rate lies within 0..100%.
func ValidateRatePPM(field string, ratePPM int64) error {
	if ratePPM < 0 || ratePPM > PPMScale {
		return NewValidationError(field, "taux hors limites (0..1000000 ppm)")
	}
	return nil
}
