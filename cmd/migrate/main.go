package main

import (
	"log"
	"os"

	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Enabling pgvector...")
	if err := database.EnableVector(db); err != nil {
		log.Fatal("Error: Failed to create vector extension:", err)
	}

	log.Println("Step 2: Running AutoMigrate for the document corpus...")
	if err := db.AutoMigrate(&model.Document{}, &model.DocumentChunk{}); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	log.Println("Migration completed.")
}
