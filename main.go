package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"cdn-metrics-dashboard/demo"
	"cdn-metrics-dashboard/handlers"
	"cdn-metrics-dashboard/services"
	"cdn-metrics-dashboard/system"
)

func main() {
	// 1. Configuration
	cfg, err := system.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	// 2. Logger
	if err := system.InitLogger(cfg.Logger); err != nil {
		log.Printf("Warning: Could not initialize logger: %v", err)
	}
	defer system.Close()

	system.Info("CDN metrics dashboard starting...")

	// 3. Demo backend (optional)
	var demoServer *demo.Server
	if cfg.Demo.Enabled {
		demoServer, err = demo.NewServer(cfg.Demo)
		if err != nil {
			system.Error("Failed to start demo backend: %v", err)
			log.Fatal("Failed to start demo backend: ", err)
		}
		demoServer.Start()
		if cfg.Upstream.BaseURL == "" {
			cfg.Upstream.BaseURL = demoServer.BaseURL()
		}
		system.Info("Demo mode enabled, upstream: %s", cfg.Upstream.BaseURL)
	}

	// 4. Services
	upstream := services.NewUpstreamClient(cfg.Upstream)
	geo := services.NewGeoResolver(cfg.GeoIP.DBPath)
	defer geo.Close()

	webhook := services.NewWebhookService(cfg.Webhook.URL)
	if webhook.IsEnabled() {
		system.Info("Discord webhook configured")
	}

	health := services.NewHealthMonitor(upstream, webhook)
	health.Start()

	board := services.NewBoard(upstream, geo, webhook, cfg.Selection)
	sysInfo := services.NewSysInfoService()

	// 5. Handlers
	h := handlers.NewHandler(board, upstream, health, sysInfo)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: false,
	})

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))

	app.Use(cors.New())

	api := app.Group("/api")

	// Shell
	api.Get("/sections", h.GetSections)
	api.Get("/selection", h.GetSelection)
	api.Put("/selection", h.PutSelection)
	api.Get("/sync-log", h.GetSyncLog)

	// Section views
	api.Get("/views", h.GetAllViews)
	api.Get("/view/:section", h.GetSectionView)

	// Certificates
	api.Post("/certificates/refresh/:accountId", h.RefreshCertificates)

	// Service status
	api.Get("/status", h.GetStatus)
	api.Get("/events", h.GetEvents)

	// Export contract
	api.Get("/export/root", h.GetExportRoot)

	handlers.AddEvent("success", "Dashboard backend started")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		system.Info("Gracefully shutting down...")
		health.Stop()
		if demoServer != nil {
			_ = demoServer.Shutdown()
		}
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	system.Info("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}
