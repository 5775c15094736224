package main

import (
	"fmt"
	"log"
	"time"

	"tickethub/internal/catalog"
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting TicketHub Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"tickets",
		"holds",
		"orders",
		"seats",
		"events",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds sample events, each with a full seat grid
func (s *Seeder) SeedAll() error {
	events := []struct {
		name     string
		venue    string
		daysOut  int
		sections []sectionSpec
	}{
		{
			name:    "Symphony Under the Stars",
			venue:   "Riverside Amphitheater",
			daysOut: 14,
			sections: []sectionSpec{
				{name: "VIP", rows: 2, seatsPerRow: 10, priceCents: 150000},
				{name: "ORCHESTRA", rows: 5, seatsPerRow: 12, priceCents: 85000},
				{name: "BALCONY", rows: 8, seatsPerRow: 14, priceCents: 45000},
			},
		},
		{
			name:    "Indie Rock Night",
			venue:   "The Velvet Hall",
			daysOut: 30,
			sections: []sectionSpec{
				{name: "FRONT", rows: 3, seatsPerRow: 8, priceCents: 60000},
				{name: "GENERAL", rows: 10, seatsPerRow: 10, priceCents: 30000},
			},
		},
		{
			name:    "Stand-Up Comedy Gala",
			venue:   "Downtown Comedy Club",
			daysOut: 7,
			sections: []sectionSpec{
				{name: "TABLE", rows: 4, seatsPerRow: 6, priceCents: 40000},
				{name: "BAR", rows: 2, seatsPerRow: 12, priceCents: 25000},
			},
		},
	}

	for _, spec := range events {
		event := &catalog.Event{
			ID:       uuid.New(),
			Name:     spec.name,
			Venue:    spec.venue,
			DateTime: time.Now().AddDate(0, 0, spec.daysOut).Truncate(time.Hour),
			Status:   catalog.EventOnSale,
		}
		if err := s.db.PostgreSQL.Create(event).Error; err != nil {
			return fmt.Errorf("failed to create event %s: %w", spec.name, err)
		}

		seats := buildSeatGrid(event.ID, spec.sections)
		if err := s.db.PostgreSQL.CreateInBatches(seats, 500).Error; err != nil {
			return fmt.Errorf("failed to create seats for %s: %w", spec.name, err)
		}

		fmt.Printf("  Created event %q with %d seats\n", spec.name, len(seats))
	}

	return nil
}

type sectionSpec struct {
	name        string
	rows        int
	seatsPerRow int
	priceCents  int64
}

func buildSeatGrid(eventID uuid.UUID, sections []sectionSpec) []catalog.Seat {
	var seats []catalog.Seat
	for _, section := range sections {
		for row := 0; row < section.rows; row++ {
			rowLabel := string(rune('A' + row))
			for num := 1; num <= section.seatsPerRow; num++ {
				seats = append(seats, catalog.Seat{
					ID:         uuid.New(),
					EventID:    eventID,
					Section:    section.name,
					Row:        rowLabel,
					SeatNumber: num,
					PriceCents: section.priceCents,
				})
			}
		}
	}
	return seats
}
