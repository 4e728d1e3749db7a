package main

import (
	"context"
	"log"

	"ai-bookrec-be/internal/bootstrap"
	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/server"
	"ai-bookrec-be/internal/tracer"
	"ai-bookrec-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Ingestion Worker...")
		if err := container.IngestionService.Consume(context.Background()); err != nil {
			log.Printf("Background Ingestion Error: %v", err)
		}
	}()
	container.RetentionService.Start(context.Background())

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
