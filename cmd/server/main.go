package main

import (
	"fmt"
	"log"
	"os"

	"github.com/smartshop/agent/config"
	httpDelivery "github.com/smartshop/agent/internal/delivery/http"
	"github.com/smartshop/agent/internal/infrastructure/agent"
	"github.com/smartshop/agent/internal/infrastructure/cache"
	"github.com/smartshop/agent/internal/infrastructure/camera"
	"github.com/smartshop/agent/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SmartShop Agent v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Agent backend: %s (search timeout %s)", cfg.Agent.BaseURL, cfg.Agent.SearchTimeout)

	// Initialize infrastructure dependencies
	agentClient := agent.NewClient(agent.Config{
		BaseURL:           cfg.Agent.BaseURL,
		SearchTimeout:     cfg.Agent.SearchTimeout,
		RequestsPerMinute: cfg.Agent.RequestsPerMinute,
		Burst:             cfg.Agent.Burst,
	})

	forecastCache := cache.NewForecastCache()
	defer forecastCache.Close()
	log.Printf("Forecast cache TTL: %s", cfg.Cache.ForecastTTL)

	cameraSource := camera.NewPushSource()

	// Initialize usecase layer
	sessions := usecase.NewSessionRegistry(agentClient, cfg.Session.MaxCompare, cfg.Session.IdleTTL)
	defer sessions.Close()
	log.Printf("Sessions: max_compare=%d, idle_ttl=%s", cfg.Session.MaxCompare, cfg.Session.IdleTTL)

	forecasts := usecase.NewForecastService(agentClient, forecastCache, cfg.Cache.ForecastTTL)
	tryOn := usecase.NewTryOnService(agentClient, cameraSource)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(sessions, forecasts, tryOn)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
