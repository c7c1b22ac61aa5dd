package db

import (
	"log"

	"inkwell/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and migrates the schema. The returned handle is
// injected into the stores; there is no package-level connection.
func Open(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")

	return conn, nil
}

// Migrate creates or updates the tables for all entities.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Rating{},
	)
}
