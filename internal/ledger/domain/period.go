package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// MonthID identifies a calendar month.
type MonthID struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewMonthID builds a month id, carrying out-of-range months into the year.
func NewMonthID(year, month int) MonthID {
	return MonthID{Year: year, Month: 1}.AddMonths(month - 1)
}

// MonthOf returns the month a date falls in.
func MonthOf(t time.Time) MonthID {
	y, m, _ := t.Date()
	return MonthID{Year: y, Month: int(m)}
}

// AddMonths shifts the month by n, borrowing or carrying across years.
func (m MonthID) AddMonths(n int) MonthID {
	total := m.Year*12 + (m.Month - 1) + n
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	return MonthID{Year: year, Month: month + 1}
}

// Next returns the following month.
func (m MonthID) Next() MonthID { return m.AddMonths(1) }

// Valid reports whether the month number is within 1..12.
func (m MonthID) Valid() bool { return m.Month >= 1 && m.Month <= 12 }

// Before reports whether m precedes other.
func (m MonthID) Before(other MonthID) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Start is the first day of the month at UTC midnight.
func (m MonthID) Start() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month at UTC midnight.
func (m MonthID) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// DaysIn returns the number of days in the month.
func (m MonthID) DaysIn() int {
	return m.End().Day()
}

// Contains reports whether date falls in the month.
func (m MonthID) Contains(date time.Time) bool {
	y, mo, _ := date.Date()
	return y == m.Year && int(mo) == m.Month
}

// ContainsPtr is Contains for optional dates; nil is never contained.
func (m MonthID) ContainsPtr(date *time.Time) bool {
	if date == nil {
		return false
	}
	return m.Contains(*date)
}

func (m MonthID) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// DueDate returns day-of-month `day` in the month, clamped into the month.
func DueDate(m MonthID, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := m.DaysIn(); day > last {
		day = last
	}
	return time.Date(m.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
}

// CivilDate truncates t to its calendar day at UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseMonthID parses "YYYY-MM".
func ParseMonthID(value string) (MonthID, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return MonthID{}, NewValidationError("month", "format attendu YYYY-MM: "+value)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthID{}, NewValidationError("month", "année invalide: "+value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthID{}, NewValidationError("month", "mois invalide: "+value)
	}
	return MonthFromParts(year, month)
}

// MonthFromParts validates a year/month pair coming from a request.
func MonthFromParts(year, month int) (MonthID, error) {
	if month < 1 || month > 12 {
		return MonthID{}, NewValidationError("month", fmt.Sprintf("mois hors limites: %d", month))
	}
	if year < 1900 || year > 9999 {
		return MonthID{}, NewValidationError("year", fmt.Sprintf("année hors limites: %d", year))
	}
	return MonthID{Year: year, Month: month}, nil
}

// ParseDate parses a "YYYY-MM-DD" civil date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, NewValidationError("date", "date invalide: "+value)
	}
	return t, nil
}

// ParseOptionalDate parses a date, returning nil for an empty string.
func ParseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a civil date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
