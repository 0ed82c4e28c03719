package normalizer

import (
	"errors"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
)

var ErrInvalidDate = errors.New("invalid date")

var dateFormats = []string{
	// ISO
	"2006-01-02",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	// Day first
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/2006 15:04",
	// Month only
	"2006-01",
	"01/2006",
	"1/2006",
}

var dateFormatReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// ParseFlexibleDate parses raw with preferredFormat first (in the
// "DD/MM/YYYY" notation) and then with every known layout.
func ParseFlexibleDate(raw string, preferredFormat string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}

	if preferredFormat != "" {
		if t, err := time.ParseInLocation(dateFormatReplacer.Replace(preferredFormat), raw, loc); err == nil {
			return t, nil
		}
	}

	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// CellDate reads a date from a resolved cell. Numbers are Excel serial dates.
func CellDate(c grid.Cell) (time.Time, bool) {
	switch c.Kind {
	case grid.KindNumber:
		serial := c.Number.InexactFloat64()
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case grid.KindText:
		t, err := ParseFlexibleDate(c.Text, "", time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// MonthAnchor returns the first day of t's UTC month at 12:00 UTC. Records
// are stored at month granularity.
func MonthAnchor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 12, 0, 0, 0, time.UTC)
}

// MonthDate is MonthAnchor for an explicit year and month.
func MonthDate(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
}
