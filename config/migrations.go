package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/plotdesk/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260301_create_plots_table",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.PlotRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("plots")
			},
		},
		{
			ID: "20260315_add_plot_sheet_columns",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.PlotSheetColumns{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("plot_sheet_columns")
			},
		},
	})
	return m.Migrate()
}
