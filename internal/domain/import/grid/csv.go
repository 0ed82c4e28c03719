package grid

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/charmap"
)

// ReadCSV loads a delimited text file as a single sheet. The delimiter is
// detected from the first non-blank line.
func ReadCSV(name string, data []byte) (Sheet, error) {
	data = normalizeCSVBytes(data)

	reader := gocsv.LazyCSVReader(bytes.NewReader(data))
	if r, ok := reader.(*csv.Reader); ok {
		r.FieldsPerRecord = -1
		if delimiter := detectDelimiter(firstLine(data)); delimiter != 0 {
			r.Comma = delimiter
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to parse CSV: %w", err)
	}

	sheet := Sheet{Name: name, Rows: make([][]Cell, len(records))}
	for r, record := range records {
		cells := make([]Cell, len(record))
		for c, raw := range record {
			cells[c] = Normalize(raw)
		}
		sheet.Rows[r] = cells
	}
	return sheet, nil
}

func normalizeCSVBytes(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

func firstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(strings.TrimRight(line, "\r")); line != "" {
			return line
		}
	}
	return ""
}

func detectDelimiter(line string) rune {
	best, bestCount := rune(0), 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}
