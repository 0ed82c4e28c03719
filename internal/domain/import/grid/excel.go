package grid

import (
	"bytes"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReadExcel loads every worksheet of an xlsx workbook.
func ReadExcel(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	reader := &excelReader{file: f, boldByStyle: make(map[int]bool)}

	names := f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		sheet, err := reader.readSheet(name)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// ReadExcelBytes is ReadExcel over an in-memory file.
func ReadExcelBytes(data []byte) ([]Sheet, error) {
	return ReadExcel(bytes.NewReader(data))
}

type excelReader struct {
	file        *excelize.File
	boldByStyle map[int]bool
}

func (x *excelReader) readSheet(name string) (Sheet, error) {
	rows, err := x.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	sheet := Sheet{Name: name, Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return Sheet{}, fmt.Errorf("failed to address cell in sheet %s: %w", name, err)
			}
			cells[c] = x.resolve(name, axis, raw).WithBold(x.isBold(name, axis))
		}
		sheet.Rows[r] = cells
	}
	return sheet, nil
}

// resolve turns a raw cell value into a Cell according to its stored type.
// Formula cells without a cached result are evaluated.
func (x *excelReader) resolve(sheet, axis, raw string) Cell {
	if raw == "" {
		formula, err := x.file.GetCellFormula(sheet, axis)
		if err != nil || formula == "" {
			return EmptyCell()
		}
		value, err := x.file.CalcCellValue(sheet, axis)
		if err != nil {
			return EmptyCell()
		}
		return Normalize(Formula{Expr: formula, Result: value})
	}

	cellType, err := x.file.GetCellType(sheet, axis)
	if err != nil {
		return Normalize(raw)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeDate, excelize.CellTypeError:
		return Normalize(raw)
	case excelize.CellTypeBool:
		return Normalize(raw == "1" || raw == "TRUE" || raw == "true")
	default:
		if d, err := decimal.NewFromString(raw); err == nil {
			return NumberCell(d)
		}
		return Normalize(raw)
	}
}

func (x *excelReader) isBold(sheet, axis string) bool {
	styleID, err := x.file.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	if bold, ok := x.boldByStyle[styleID]; ok {
		return bold
	}

	bold := false
	if style, err := x.file.GetStyle(styleID); err == nil && style != nil && style.Font != nil {
		bold = style.Font.Bold
	}
	x.boldByStyle[styleID] = bold
	return bold
}
