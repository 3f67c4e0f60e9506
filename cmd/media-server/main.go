package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"soundbridge/internal/config"
	"soundbridge/internal/dbmongo"
	"soundbridge/internal/media"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()

	mongoClient, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Close(context.Background())

	mediaServer := media.NewHTTPServer(mongoClient)

	addr := fmt.Sprintf(":%s", cfg.Server.MediaServerPort)
	log.Printf("Media server listening on %s", addr)
	if err := http.ListenAndServe(addr, mediaServer); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
