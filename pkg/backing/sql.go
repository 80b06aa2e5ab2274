package backing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"p9e.in/plotdesk/models"
	"p9e.in/plotdesk/pkg/inventory"
)

const sheetColumnsID = 1

// SQL keeps the inventory in the plots table. Every write deletes and
// re-inserts all rows in one transaction.
type SQL struct {
	db *gorm.DB
}

// NewSQL expects the plots migrations to have run on db
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db}
}

func (b *SQL) Name() string { return "sql:" + b.db.Dialector.Name() }

func (b *SQL) Read(ctx context.Context) (inventory.Sheet, error) {
	db := b.db.WithContext(ctx)

	var rows []models.PlotRow
	if err := db.Order("position ASC, id ASC").Find(&rows).Error; err != nil {
		return inventory.Sheet{}, fmt.Errorf("query plots: %w", err)
	}

	table := inventory.EmptyTable()
	var meta models.PlotSheetColumns
	err := db.First(&meta, sheetColumnsID).Error
	switch {
	case err == nil:
		var cols []string
		if err := json.Unmarshal(meta.Columns, &cols); err != nil {
			return inventory.Sheet{}, fmt.Errorf("decode plot columns: %w", err)
		}
		if len(cols) > 0 {
			table.Columns = cols
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return inventory.Sheet{}, fmt.Errorf("query plot columns: %w", err)
	}

	records := make([]models.PlotRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, recordFromRow(r))
	}
	table = inventory.BulkReplace(table, records)
	return inventory.ToSheet(table), nil
}

func (b *SQL) Write(ctx context.Context, s inventory.Sheet) error {
	table, _, err := inventory.FromSheet(s)
	if err != nil {
		return err
	}
	cols, err := json.Marshal(table.Columns)
	if err != nil {
		return fmt.Errorf("encode plot columns: %w", err)
	}

	rows := make([]models.PlotRow, 0, len(table.Records))
	for i, rec := range table.Records {
		rows = append(rows, rowFromRecord(i, rec))
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.PlotRow{}).Error; err != nil {
			return fmt.Errorf("clear plots: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("insert plots: %w", err)
			}
		}
		meta := models.PlotSheetColumns{ID: sheetColumnsID, Columns: datatypes.JSON(cols)}
		if err := tx.Save(&meta).Error; err != nil {
			return fmt.Errorf("save plot columns: %w", err)
		}
		return nil
	})
}

func rowFromRecord(pos int, rec models.PlotRecord) models.PlotRow {
	row := models.PlotRow{
		Position:   pos,
		PlotNo:     rec.PlotNo,
		Location:   rec.Location,
		AreaSqft:   rec.AreaSqft,
		Status:     string(rec.Status),
		PriceLakhs: rec.PriceLakhs,
		Lat:        rec.Lat,
		Lon:        rec.Lon,
	}
	if len(rec.Extra) > 0 {
		row.Extra = datatypes.JSONMap{}
		for k, v := range rec.Extra {
			row.Extra[k] = v
		}
	}
	return row
}

func recordFromRow(row models.PlotRow) models.PlotRecord {
	rec := models.PlotRecord{
		PlotNo:     row.PlotNo,
		Location:   row.Location,
		AreaSqft:   row.AreaSqft,
		Status:     models.PlotStatus(row.Status),
		PriceLakhs: row.PriceLakhs,
		Lat:        row.Lat,
		Lon:        row.Lon,
	}
	if len(row.Extra) > 0 {
		rec.Extra = make(map[string]string, len(row.Extra))
		for k, v := range row.Extra {
			rec.Extra[k] = fmt.Sprint(v)
		}
	}
	return rec
}
