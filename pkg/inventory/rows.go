package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"p9e.in/plotdesk/models"
)

// Sheet is the rectangular, header-keyed form every backing store reads and writes
type Sheet struct {
	Header []string
	Rows   [][]string
}

// canonicalByKey maps a normalized header cell to its canonical column name
var canonicalByKey = func() map[string]string {
	m := make(map[string]string, len(models.CanonicalColumns))
	for _, c := range models.CanonicalColumns {
		m[headerKey(c)] = c
	}
	return m
}()

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isCanonical(col string) bool {
	_, ok := canonicalByKey[headerKey(col)]
	return ok
}

// EmptyTable returns a table with the canonical columns and no rows
func EmptyTable() models.InventoryTable {
	cols := make([]string, len(models.CanonicalColumns))
	copy(cols, models.CanonicalColumns)
	return models.InventoryTable{Columns: cols, Records: []models.PlotRecord{}}
}

// FromSheet decodes a sheet into a table. Rows blank across every cell are dropped.
// Unknown statuses are coerced to Available; each coercion is reported in warnings.
func FromSheet(s Sheet) (models.InventoryTable, []string, error) {
	table := EmptyTable()
	if len(s.Header) == 0 {
		for _, row := range s.Rows {
			if !blankRow(row) {
				return table, nil, fmt.Errorf("%w: rows without a header", ErrMalformedSheet)
			}
		}
		return table, nil, nil
	}

	// column index -> canonical name, or "" for extra columns
	canon := make([]string, len(s.Header))
	seen := map[string]bool{}
	for i, h := range s.Header {
		name := strings.TrimSpace(h)
		if c, ok := canonicalByKey[headerKey(name)]; ok {
			if seen[c] {
				continue
			}
			seen[c] = true
			canon[i] = c
			continue
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		table.Columns = append(table.Columns, name)
	}
	if !seen[models.ColumnPlotNo] {
		for _, row := range s.Rows {
			if !blankRow(row) {
				return table, nil, fmt.Errorf("%w: no %s column", ErrMalformedSheet, models.ColumnPlotNo)
			}
		}
	}

	var warnings []string
	for n, row := range s.Rows {
		if blankRow(row) {
			continue
		}
		rec := models.PlotRecord{Status: models.PlotStatusAvailable}
		for i, h := range s.Header {
			if i >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[i])
			if canon[i] == "" {
				name := strings.TrimSpace(h)
				if name == "" || cell == "" || isCanonical(name) {
					continue
				}
				if _, dup := rec.Extra[name]; dup {
					continue
				}
				setExtra(&rec, name, cell)
				continue
			}
			if w := decodeCell(&rec, canon[i], cell); w != "" {
				warnings = append(warnings, fmt.Sprintf("row %d: %s", n+2, w))
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, warnings, nil
}

func decodeCell(rec *models.PlotRecord, col, cell string) string {
	switch col {
	case models.ColumnPlotNo:
		if cell == "" {
			return "missing plot number"
		}
		n, ok := parsePlotNo(cell)
		if !ok {
			setExtra(rec, col, cell)
			return fmt.Sprintf("plot number %q is not a number", cell)
		}
		rec.PlotNo = n
	case models.ColumnLocation:
		rec.Location = cell
	case models.ColumnStatus:
		if cell == "" {
			return ""
		}
		st, ok := parseStatus(cell)
		if !ok {
			return fmt.Sprintf("status %q coerced to %s", cell, models.PlotStatusAvailable)
		}
		rec.Status = st
	default:
		if cell == "" {
			return ""
		}
		v, ok := parseNumber(cell)
		if !ok {
			setExtra(rec, col, cell)
			return fmt.Sprintf("%s %q is not a number", col, cell)
		}
		switch col {
		case models.ColumnAreaSqft:
			rec.AreaSqft = &v
		case models.ColumnPriceLakhs:
			rec.PriceLakhs = &v
		case models.ColumnLat:
			rec.Lat = &v
		case models.ColumnLon:
			rec.Lon = &v
		}
	}
	return ""
}

func setExtra(rec *models.PlotRecord, col, val string) {
	if rec.Extra == nil {
		rec.Extra = map[string]string{}
	}
	rec.Extra[col] = val
}

// ToSheet encodes a table using its column order. Canonical numeric cells that could
// not be parsed on load are written back verbatim from Extra.
func ToSheet(t models.InventoryTable) Sheet {
	cols := t.Columns
	if len(cols) == 0 {
		cols = EmptyTable().Columns
	}
	header := make([]string, len(cols))
	copy(header, cols)
	rows := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, RowCells(rec, header))
	}
	return Sheet{Header: header, Rows: rows}
}

// RowCells renders rec as one cell per column
func RowCells(rec models.PlotRecord, columns []string) []string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = cellValue(rec, col)
	}
	return cells
}

func cellValue(rec models.PlotRecord, col string) string {
	c, ok := canonicalByKey[headerKey(col)]
	if !ok {
		return rec.Extra[col]
	}
	var v string
	switch c {
	case models.ColumnPlotNo:
		if _, raw := rec.Extra[c]; !raw {
			v = strconv.FormatInt(rec.PlotNo, 10)
		}
	case models.ColumnLocation:
		v = rec.Location
	case models.ColumnStatus:
		v = string(rec.Status)
	case models.ColumnAreaSqft:
		v = formatNumber(rec.AreaSqft)
	case models.ColumnPriceLakhs:
		v = formatNumber(rec.PriceLakhs)
	case models.ColumnLat:
		v = formatNumber(rec.Lat)
	case models.ColumnLon:
		v = formatNumber(rec.Lon)
	}
	if v == "" {
		v = rec.Extra[c]
	}
	return v
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parsePlotNo accepts "101", "1,024" and the "101.0" form spreadsheets export
func parsePlotNo(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	v, ok := parseNumber(s)
	if !ok || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return 0, false
	}
	return int64(v), true
}

// ParseStatus matches s against the enumerated statuses ignoring case and spaces
func ParseStatus(s string) (models.PlotStatus, bool) {
	return parseStatus(s)
}

func parseStatus(s string) (models.PlotStatus, bool) {
	for _, st := range models.PlotStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}
