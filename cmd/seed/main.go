package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/placeshare/places-api/config"
	"github.com/placeshare/places-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@places.dev"
	password := "password123"
	name := "Demo User"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (name, email, password_hash, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, email, hash, "").Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", userID, email, password)

	// One sample place owned by the demo user, kept consistent with the
	// owner's place_ids array the same way the API does it.
	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	var placeID string
	err = tx.QueryRow(`
		INSERT INTO places (title, description, address, lat, lng, image_url, creator)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, "Empire State Building", "One of the most famous skyscrapers in the world.",
		"20 W 34th St, New York, NY 10001", 40.7484405, -73.9878584, "", userID).Scan(&placeID)
	if err != nil {
		log.Fatalf("failed to seed place: %v", err)
	}
	if _, err := tx.Exec(`
		UPDATE users SET place_ids = array_append(place_ids, $1), updated_at = now()
		WHERE id = $2 AND NOT ($1 = ANY(place_ids))
	`, placeID, userID); err != nil {
		log.Fatalf("failed to attach place to user: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Printf("seeded place: id=%s creator=%s\n", placeID, userID)
}
