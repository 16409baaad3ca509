package main

import (
	"context"
	"log"

	"market-assist-be/internal/bootstrap"
	"market-assist-be/internal/config"
	"market-assist-be/internal/server"
	"market-assist-be/internal/tracer"
	"market-assist-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go container.SessionReaper.Run(context.Background())

	go func() {
		log.Println("Background: Starting Alert Service...")
		if err := container.AlertService.Consume(context.Background()); err != nil {
			log.Printf("Background Alert Service Error: %v", err)
		}
	}()

	if container.SupportNotifier != nil {
		container.SupportNotifier.Start()
	}

	color.Cyan("🛒 MarketAssist conversational backend")
	color.Green("   env=%s port=%s", cfg.App.Environment, cfg.App.Port)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
