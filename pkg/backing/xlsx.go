package backing

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

// DefaultSheetName is the worksheet the inventory lives on
const DefaultSheetName = "Plots"

var numericColumns = map[string]bool{
	strings.ToLower(models.ColumnPlotNo):     true,
	strings.ToLower(models.ColumnAreaSqft):   true,
	strings.ToLower(models.ColumnPriceLakhs): true,
	strings.ToLower(models.ColumnLat):        true,
	strings.ToLower(models.ColumnLon):        true,
}

// status fill colours, same palette as the map markers
var statusFill = map[string]string{
	string(models.PlotStatusAvailable): "D4EDDA",
	string(models.PlotStatusBooked):    "F8D7DA",
	string(models.PlotStatusSold):      "E2E3E5",
}

// EncodeXLSX writes s to a workbook with one sheet: header on row 1, one row per record
func EncodeXLSX(s inventory.Sheet, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"1E3A8A"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	statusStyles := map[string]int{}
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("status style: %w", err)
		}
		statusStyles[status] = id
	}

	for colIdx, h := range s.Header {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, colName, colName, columnWidth(h))
	}

	for rowIdx, row := range s.Rows {
		for colIdx, value := range row {
			if colIdx >= len(s.Header) || value == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			h := strings.ToLower(strings.TrimSpace(s.Header[colIdx]))
			if numericColumns[h] {
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					f.SetCellValue(sheetName, cell, v)
					continue
				}
			}
			f.SetCellValue(sheetName, cell, value)
			if h == strings.ToLower(models.ColumnStatus) {
				if id, ok := statusStyles[value]; ok {
					f.SetCellStyle(sheetName, cell, cell, id)
				}
			}
		}
	}

	if len(s.Header) > 0 {
		f.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeXLSX reads sheetName, or the first sheet when it is missing.
// Row 1 is the header; cell values are read raw, without number formatting.
func DecodeXLSX(data []byte, sheetName string) (inventory.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return inventory.Sheet{}, nil
	}
	name := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, sheetName) {
			name = s
			break
		}
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return inventory.Sheet{}, nil
	}
	return inventory.Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

func columnWidth(header string) float64 {
	w := float64(len(header)) + 4
	if w < 12 {
		w = 12
	}
	if strings.EqualFold(header, models.ColumnLocation) {
		w = 28
	}
	return w
}
