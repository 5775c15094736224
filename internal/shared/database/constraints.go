package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// A seat can carry at most one live hold. Released holds fall out
	// of the index, so re-holding a freed seat works without deletes.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_active_hold_per_seat
		ON holds (seat_id)
		WHERE released_at IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// Index for hold expiry scans
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_active_expiry
		ON holds (expires_at)
		WHERE released_at IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// Index for availability queries by event
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_event_seat
		ON holds (event_id, seat_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
