package ledger

// Settings holds tax rates, due days and forecast assumptions.
type Settings struct {
	DefaultVATRatePPM         int64 `json:"default_vat_rate_ppm" yaml:"default_vat_rate_ppm"`
	URSSAFRatePPM             int64 `json:"urssaf_rate_ppm" yaml:"urssaf_rate_ppm"`
	VATDeclareDay             int   `json:"vat_declare_day" yaml:"vat_declare_day"`
	VATPayDay                 int   `json:"vat_pay_day" yaml:"vat_pay_day"`
	URSSAFPayDay              int   `json:"urssaf_pay_day" yaml:"urssaf_pay_day"`
	BufferCents               int64 `json:"buffer_cents" yaml:"buffer_cents"`
	ForecastHTCents           int64 `json:"forecast_ht_cents" yaml:"forecast_ht_cents"`
	ForecastExpensesTTCCents  int64 `json:"forecast_expenses_ttc_cents" yaml:"forecast_expenses_ttc_cents"`
	ForecastExpenseVATRatePPM int64 `json:"forecast_expense_vat_rate_ppm" yaml:"forecast_expense_vat_rate_ppm"`
}

// DefaultSettings returns the settings used before any are saved.
func DefaultSettings() Settings {
	return Settings{
		DefaultVATRatePPM:         200_000,
		URSSAFRatePPM:             220_000,
		VATDeclareDay:             12,
		VATPayDay:                 20,
		URSSAFPayDay:              5,
		BufferCents:               30_000,
		ForecastHTCents:           0,
		ForecastExpensesTTCCents:  0,
		ForecastExpenseVATRatePPM: 200_000,
	}
}

// Validate checks rates and due days.
func (s Settings) Validate() error {
	for field, rate := range map[string]int64{
		"default_vat_rate_ppm":          s.DefaultVATRatePPM,
		"urssaf_rate_ppm":               s.URSSAFRatePPM,
		"forecast_expense_vat_rate_ppm": s.ForecastExpenseVATRatePPM,
	} {
		if err := ValidateRatePPM(field, rate); err != nil {
			return err
		}
	}
	for field, day := range map[string]int{
		"vat_declare_day": s.VATDeclareDay,
		"vat_pay_day":     s.VATPayDay,
		"urssaf_pay_day":  s.URSSAFPayDay,
	} {
		if day < 1 || day > 31 {
			return NewValidationError(field, "jour hors limites (1..31)")
		}
	}
	if s.BufferCents < 0 {
		return NewValidationError("buffer_cents", "tampon négatif")
	}
	return nil
}
