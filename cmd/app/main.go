package main

import (
	"fmt"
	"log"

	"recipebook/cmd/config"
	migration "recipebook/cmd/database/migrate"
	"recipebook/cmd/database/seed"
	"recipebook/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	if err := seed.Seed(db); err != nil {
		log.Fatalf("Error seeding database: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("Error creating app: %v", err)
	}

	port := utils.GetConfig("APP_PORT")
	if port == "" {
		port = "8000"
	}
	if err := app.Listen(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
