package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlotRow is the SQL form of a PlotRecord; Position keeps the table order
type PlotRow struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Position   int               `gorm:"not null;index" json:"position"`
	PlotNo     int64             `gorm:"not null;index" json:"plotNo"` // not unique, duplicates are real inventory
	Location   string            `gorm:"size:255" json:"location"`
	AreaSqft   *float64          `json:"areaSqft,omitempty"`
	Status     string            `gorm:"size:20;not null;default:Available" json:"status"`
	PriceLakhs *float64          `json:"priceLakhs,omitempty"`
	Lat        *float64          `json:"lat,omitempty"`
	Lon        *float64          `json:"lon,omitempty"`
	Extra      datatypes.JSONMap `json:"extra,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func (PlotRow) TableName() string { return "plots" }

// PlotSheetColumns stores the header order of the plots table (single row, ID 1)
type PlotSheetColumns struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Columns   datatypes.JSON `json:"columns"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (PlotSheetColumns) TableName() string { return "plot_sheet_columns" }
