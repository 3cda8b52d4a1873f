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

	"github.com/vrsandeep/vnshelf/internal/api"
	"github.com/vrsandeep/vnshelf/internal/core"
	"github.com/vrsandeep/vnshelf/internal/jobs"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	settings, err := app.Store().GetSettings(context.Background())
	if err != nil {
		log.Fatalf("Could not read settings: %v", err)
	}
	if settings.AdminPasswordHash == "" {
		log.Println("==================================================")
		log.Println("No admin password set yet.")
		log.Println("Open the web UI or POST /api/auth/init to set one.")
		log.Println("==================================================")
	}

	// Index tasks run until shutdown; a task interrupted mid-flight is
	// redelivered after its lease on the next start.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	pool := app.StartIndexWorkers(workerCtx)

	scheduler := jobs.StartJobs(app)

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s (version %s)", httpServer.Addr, core.Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop()
	stopWorkers()
	pool.Wait()

	log.Println("Server exiting.")
}
