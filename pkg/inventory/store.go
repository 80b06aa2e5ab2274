package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"p9e.in/plotdesk/models"
)

// Backend is a whole-table backing store. Read returns the full table and
// Write replaces it; there are no partial operations.
type Backend interface {
	Name() string
	Read(ctx context.Context) (Sheet, error)
	Write(ctx context.Context, s Sheet) error
}

// Store owns the plot inventory and its rules
type Store struct {
	backend Backend
	log     *zap.Logger
}

// NewStore creates a store over backend. A nil logger disables logging.
func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log.With(zap.String("backend", backend.Name()))}
}

// Backend returns the store's backing table
func (s *Store) Backend() Backend {
	return s.backend
}

// Load reads the full table. On failure it returns the empty canonical table
// together with an error matching ErrBackingStoreUnavailable.
func (s *Store) Load(ctx context.Context) (models.InventoryTable, error) {
	sheet, err := s.backend.Read(ctx)
	if err != nil {
		return EmptyTable(), &UnavailableError{Backend: s.backend.Name(), Err: err}
	}
	table, warnings, err := FromSheet(sheet)
	if err != nil {
		return EmptyTable(), &UnavailableError{Backend: s.backend.Name(), Err: err}
	}
	for _, w := range warnings {
		s.log.Warn("inventory row coerced", zap.String("detail", w))
	}
	s.log.Debug("inventory loaded", zap.Int("rows", table.Len()))
	return table, nil
}

// LoadOrEmpty is the fail-soft read used by views: a load failure is logged and
// the empty table is returned with degraded set.
func (s *Store) LoadOrEmpty(ctx context.Context) (table models.InventoryTable, degraded bool) {
	table, err := s.Load(ctx)
	if err != nil {
		s.log.Warn("inventory unavailable, serving empty table", zap.Error(err))
		return table, true
	}
	return table, false
}

// Filter keeps the records whose whole-row text contains query, ignoring case.
// An empty query returns table unchanged.
func Filter(table models.InventoryTable, query string) models.InventoryTable {
	if query == "" {
		return table
	}
	out := models.InventoryTable{Columns: table.Columns, Records: []models.PlotRecord{}}
	for _, i := range FilterRows(table, query) {
		out.Records = append(out.Records, table.Records[i])
	}
	return out
}

// FilterRows is Filter returning the indices of the matching records, in order
func FilterRows(table models.InventoryTable, query string) []int {
	rows := make([]int, 0, len(table.Records))
	q := strings.ToLower(query)
	for i, rec := range table.Records {
		if q == "" || strings.Contains(RowText(rec, table.Columns), q) {
			rows = append(rows, i)
		}
	}
	return rows
}

// RowText is the lower-cased string form of a whole record, one field per line
func RowText(rec models.PlotRecord, columns []string) string {
	if len(columns) == 0 {
		columns = models.CanonicalColumns
	}
	cells := RowCells(rec, columns)
	// extra values whose column is missing from the header still count as fields
	for _, k := range sortedKeys(rec.Extra) {
		if !containsColumn(columns, k) {
			cells = append(cells, rec.Extra[k])
		}
	}
	return strings.ToLower(strings.Join(cells, "\n"))
}

// Validate checks status and coordinate ranges. Missing optional fields are valid.
func Validate(candidate models.PlotRecord) error {
	var problems []FieldError
	add := func(field, format string, args ...any) {
		problems = append(problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if candidate.PlotNo < 0 {
		add(models.ColumnPlotNo, "plot number %d must not be negative", candidate.PlotNo)
	}
	if !candidate.Status.Valid() {
		add(models.ColumnStatus, "status %q must be one of Available, Booked, Sold", candidate.Status)
	}
	if v := candidate.AreaSqft; v != nil && *v < 0 {
		add(models.ColumnAreaSqft, "area %.2f must not be negative", *v)
	}
	if v := candidate.PriceLakhs; v != nil && *v < 0 {
		add(models.ColumnPriceLakhs, "price %.2f must not be negative", *v)
	}
	if v := candidate.Lat; v != nil && (*v < -90 || *v > 90) {
		add(models.ColumnLat, "latitude %.6f is out of valid range [-90, 90]", *v)
	}
	if v := candidate.Lon; v != nil && (*v < -180 || *v > 180) {
		add(models.ColumnLon, "longitude %.6f is out of valid range [-180, 180]", *v)
	}

	if len(problems) > 0 {
		return &InvalidRecordError{Problems: problems}
	}
	return nil
}

// Upsert appends candidate and returns the new table. Rows sharing its plot
// number are left alone; duplicates are allowed.
func Upsert(table models.InventoryTable, candidate models.PlotRecord) models.InventoryTable {
	records := make([]models.PlotRecord, len(table.Records), len(table.Records)+1)
	copy(records, table.Records)
	records = append(records, candidate.Clone())
	return models.InventoryTable{
		Columns: mergeColumns(table.Columns, []models.PlotRecord{candidate}),
		Records: records,
	}
}

// BulkReplace replaces every record with rows; omitted rows are deleted
func BulkReplace(table models.InventoryTable, rows []models.PlotRecord) models.InventoryTable {
	records := make([]models.PlotRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Clone())
	}
	return models.InventoryTable{
		Columns: mergeColumns(table.Columns, rows),
		Records: records,
	}
}

// Persist overwrites the backing table with table. It never retries.
func (s *Store) Persist(ctx context.Context, table models.InventoryTable) error {
	sheet := ToSheet(table)
	if err := s.backend.Write(ctx, sheet); err != nil {
		s.log.Error("persist failed", zap.Int("rows", len(sheet.Rows)), zap.Error(err))
		return &PersistenceError{Backend: s.backend.Name(), Rows: len(sheet.Rows), Err: err}
	}
	s.log.Info("inventory persisted", zap.Int("rows", len(sheet.Rows)))
	return nil
}

// Add is the admin form path: blank status defaults to Available, then
// validate, append and persist. On any error the input table is returned.
func (s *Store) Add(ctx context.Context, table models.InventoryTable, candidate models.PlotRecord) (models.InventoryTable, error) {
	if candidate.Status == "" {
		candidate.Status = models.PlotStatusAvailable
	}
	if err := Validate(candidate); err != nil {
		return table, err
	}
	next := Upsert(table, candidate)
	if err := s.Persist(ctx, next); err != nil {
		return table, err
	}
	return next, nil
}

// Append is the import path: only the new rows are validated, then they are
// added after the existing ones and the whole table is persisted. Blank
// statuses default to Available.
func (s *Store) Append(ctx context.Context, table models.InventoryTable, rows []models.PlotRecord) (models.InventoryTable, error) {
	added := make([]models.PlotRecord, 0, len(rows))
	for _, r := range rows {
		if r.Status == "" {
			r.Status = models.PlotStatusAvailable
		}
		added = append(added, r)
	}
	if err := ValidateAll(added); err != nil {
		return table, err
	}
	next := BulkReplace(table, append(slices.Clone(table.Records), added...))
	if err := s.Persist(ctx, next); err != nil {
		return table, err
	}
	return next, nil
}

// Replace is the bulk-edit path. Rows identical to a row already in table are
// kept as they are; every other row is validated before anything is written.
func (s *Store) Replace(ctx context.Context, table models.InventoryTable, rows []models.PlotRecord) (models.InventoryTable, error) {
	if err := validateChanged(table, rows); err != nil {
		return table, err
	}
	next := BulkReplace(table, rows)
	if err := s.Persist(ctx, next); err != nil {
		return table, err
	}
	return next, nil
}

// ValidateAll validates rows, prefixing each problem with its row number (1-based)
func ValidateAll(rows []models.PlotRecord) error {
	return validateRows(rows, func(models.PlotRecord) bool { return false })
}

func validateChanged(table models.InventoryTable, rows []models.PlotRecord) error {
	columns := mergeColumns(table.Columns, append(slices.Clone(table.Records), rows...))
	existing := make(map[string]bool, len(table.Records))
	for _, r := range table.Records {
		existing[rowKey(r, columns)] = true
	}
	return validateRows(rows, func(r models.PlotRecord) bool {
		return existing[rowKey(r, columns)]
	})
}

func rowKey(rec models.PlotRecord, columns []string) string {
	return strings.Join(RowCells(rec, columns), "\x1f")
}

func validateRows(rows []models.PlotRecord, unchanged func(models.PlotRecord) bool) error {
	var problems []FieldError
	for i, r := range rows {
		if unchanged(r) {
			continue
		}
		err := Validate(r)
		if err == nil {
			continue
		}
		inv := err.(*InvalidRecordError)
		for _, p := range inv.Problems {
			problems = append(problems, FieldError{Field: fmt.Sprintf("row %d %s", i+1, p.Field), Message: p.Message})
		}
	}
	if len(problems) > 0 {
		return &InvalidRecordError{Problems: problems}
	}
	return nil
}

func mergeColumns(columns []string, rows []models.PlotRecord) []string {
	out := make([]string, 0, len(columns))
	if len(columns) == 0 {
		out = append(out, models.CanonicalColumns...)
	} else {
		out = append(out, columns...)
	}
	for _, r := range rows {
		for _, k := range sortedKeys(r.Extra) {
			if !isCanonical(k) && !containsColumn(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

func containsColumn(columns []string, col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
