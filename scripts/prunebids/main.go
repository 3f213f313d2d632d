package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Removes bids whose auction no longer exists. Auctions deleted before
// the cascading foreign key was introduced left their bids behind.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var orphans int
	err = db.QueryRow(`SELECT COUNT(*) FROM bids b
		WHERE NOT EXISTS (SELECT 1 FROM auctions a WHERE a.id = b.auction_id)`).Scan(&orphans)
	if err != nil {
		log.Fatalf("Failed to count orphaned bids: %v", err)
	}

	if orphans == 0 {
		log.Println("No orphaned bids found")
		return
	}

	log.Printf("Found %d orphaned bids", orphans)

	fmt.Print("Delete them? (y/N): ")
	var response string
	fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		log.Println("Aborted, nothing deleted")
		return
	}

	result, err := db.Exec(`DELETE FROM bids b
		WHERE NOT EXISTS (SELECT 1 FROM auctions a WHERE a.id = b.auction_id)`)
	if err != nil {
		log.Fatalf("Failed to delete orphaned bids: %v", err)
	}

	deleted, _ := result.RowsAffected()
	log.Printf("Deleted %d orphaned bids", deleted)
}
