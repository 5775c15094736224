package database

import (
	"tickethub/internal/catalog"
	"tickethub/internal/orders"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&catalog.Event{},
		&catalog.Seat{},
		&orders.Order{},
		&orders.Hold{},
		&orders.Ticket{},
	)
	if err != nil {
		return err
	}
	return MigrateConstraints(db)
}
