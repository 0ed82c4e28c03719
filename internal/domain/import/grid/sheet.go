package grid

// Sheet is one worksheet of an upload. Rows[r][c] holds the spreadsheet's
// row r+1, column c+1; rows may be ragged.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// NewSheet builds a sheet from raw values, normalizing every cell.
func NewSheet(name string, rows [][]any) Sheet {
	sheet := Sheet{Name: name, Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, v := range row {
			cells[c] = Normalize(v)
		}
		sheet.Rows[r] = cells
	}
	return sheet
}

// Len returns the number of rows.
func (s Sheet) Len() int { return len(s.Rows) }

// Row returns row r, or nil when out of range.
func (s Sheet) Row(r int) []Cell {
	if r < 0 || r >= len(s.Rows) {
		return nil
	}
	return s.Rows[r]
}

// Cell returns the cell at (r, c). Out-of-range coordinates yield an empty cell.
func (s Sheet) Cell(r, c int) Cell {
	row := s.Row(r)
	if c < 0 || c >= len(row) {
		return EmptyCell()
	}
	return row[c]
}

// IsBlank reports whether the sheet has no non-empty cell.
func (s Sheet) IsBlank() bool {
	for _, row := range s.Rows {
		if !RowIsBlank(row) {
			return false
		}
	}
	return true
}

// RowIsBlank reports whether every cell in the row is empty.
func RowIsBlank(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
