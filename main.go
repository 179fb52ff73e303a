// backend/main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/database"
	"github.com/gramdarpan/mgnrega/backend/govapi"
	"github.com/gramdarpan/mgnrega/backend/handlers"
	"github.com/gramdarpan/mgnrega/backend/jobs"
	"github.com/gramdarpan/mgnrega/backend/services"
)

func main() {
	log.Println("Starting Gram Darpan backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Server port: %s, DB name: %s",
		config.AppConfig.Server.Port, config.AppConfig.Database.DBName)

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.CloseDB()

	tierCache := cache.New(
		time.Duration(config.AppConfig.Cache.DefaultTTLSeconds)*time.Second,
		time.Duration(config.AppConfig.Cache.SweepIntervalSeconds)*time.Second,
	)
	defer tierCache.Stop()

	recordStore := database.NewRecordStore(database.DB)
	districtStore := database.NewDistrictStore(database.DB)
	snapshotStore := database.NewSnapshotStore(database.DB)

	gateway := govapi.NewClient(config.AppConfig.GovAPI, tierCache)

	districtService := services.NewDistrictService(tierCache, recordStore, districtStore, gateway)
	adminService := services.NewAdminService(tierCache, recordStore, districtStore, snapshotStore)
	syncService := services.NewSyncService(tierCache, recordStore, gateway, snapshotStore)
	locationService := services.NewLocationService(tierCache)

	districtHandler := &handlers.DistrictHandler{Service: districtService}
	stateHandler := &handlers.StateHandler{Service: districtService}
	adminHandler := &handlers.AdminHandler{Admin: adminService, Sync: syncService}
	miscHandler := &handlers.MiscHandler{DB: database.DB, Admin: adminService, Location: locationService}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", miscHandler.Health)
	mux.HandleFunc("/api/v1/stats", miscHandler.Stats)
	mux.HandleFunc("/api/v1/location", miscHandler.DetectLocation)
	mux.HandleFunc("/api/v1/districts/", districtHandler.Route)
	mux.HandleFunc("/api/v1/states", stateHandler.Route)
	mux.HandleFunc("/api/v1/states/", stateHandler.Route)
	mux.HandleFunc("/api/v1/admin/", adminHandler.Route)

	limiter := handlers.NewRateLimiter(
		time.Duration(config.AppConfig.RateLimit.WindowMinutes)*time.Minute,
		config.AppConfig.RateLimit.MaxRequests,
	)

	if config.AppConfig.Jobs.Enabled {
		scheduler := jobs.NewScheduler(districtService, syncService)
		scheduler.Start()
		defer scheduler.Stop()
	}

	serverAddr := ":" + config.AppConfig.Server.Port
	log.Printf("Server starting on http://localhost%s", serverAddr)
	if err := http.ListenAndServe(serverAddr, limiter.Middleware(mux)); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
