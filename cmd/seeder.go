package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			if _, err := db.Exec("DELETE FROM payments"); err != nil {
				log.Fatalf("failed to clear payments: %v", err)
			}
			if _, err := db.Exec("DELETE FROM bookings"); err != nil {
				log.Fatalf("failed to clear bookings: %v", err)
			}
			if _, err := db.Exec("DELETE FROM listings"); err != nil {
				log.Fatalf("failed to clear listings: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		// prices are minor units, so 250000 is 2500.00 ETB a night
		listings := []struct {
			Name          string
			Description   string
			Location      string
			PricePerNight int64
		}{
			{"Bole Skyline Apartment", "Two bedroom apartment with a view of Bole Road", "Addis Ababa", 250000},
			{"Entoto Eco Lodge", "Quiet lodge on the slopes of Mount Entoto", "Addis Ababa", 180000},
			{"Lalibela Stone House", "Traditional stone guesthouse near the rock-hewn churches", "Lalibela", 320000},
			{"Lake Tana Retreat", "Lakeside bungalow with monastery boat tours", "Bahir Dar", 275000},
			{"Harar Old Town Riad", "Courtyard house inside the walled city", "Harar", 210000},
		}

		for _, l := range listings {
			var exists int
			err := db.QueryRow("SELECT 1 FROM listings WHERE name = $1", l.Name).Scan(&exists)
			if err == nil {
				continue
			}

			if _, err := db.Exec(
				"INSERT INTO listings (name, description, location, price_per_night, currency, created_at, updated_at) VALUES ($1, $2, $3, $4, 'ETB', now(), now())",
				l.Name, l.Description, l.Location, l.PricePerNight,
			); err != nil {
				log.Fatalf("failed to insert listing %s: %v", l.Name, err)
			}
			fmt.Printf("Seeded listing: %s\n", l.Name)
		}

		fmt.Println("Listings seeded successfully")
	},
}
