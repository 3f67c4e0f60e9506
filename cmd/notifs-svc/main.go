package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
	"soundbridge/internal/di"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Initializing application...")
	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := dbmysql.AutoMigrate(app.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	router := mux.NewRouter()

	// Auth endpoints stay open; everything else needs a token.
	app.UserHandler.RegisterRoutes(router)

	protected := router.NewRoute().Subrouter()
	protected.Use(common.AuthMiddleware)
	app.UserHandler.RegisterProtectedRoutes(protected)
	app.NotifHandler.RegisterRoutes(protected)
	app.ChatHandler.RegisterRoutes(protected)
	protected.Handle("/ws", app.WSHandler).Methods(http.MethodGet)

	// Read rows older than the retention window get dropped nightly.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := app.Notifications.CleanOldNotifications(ctx, app.Config.Notification.RetentionDays); err != nil {
			log.Printf("Notification cleanup failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule notification cleanup: %v", err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.Config.Server.NotifServicePort),
		Handler:      router,
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()
	app.Sessions.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
