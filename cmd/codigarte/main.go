package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/codigarte/codigarte/app/controllers"
	"github.com/codigarte/codigarte/app/repository"
	"github.com/codigarte/codigarte/internal/pkg/billing"
	"github.com/codigarte/codigarte/internal/pkg/cache"
	"github.com/codigarte/codigarte/internal/pkg/config"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/env"
	"github.com/codigarte/codigarte/internal/pkg/jobqueue"
	"github.com/codigarte/codigarte/internal/pkg/oauth"
	"github.com/codigarte/codigarte/internal/pkg/payments"
	"github.com/codigarte/codigarte/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey)
	billingService := billing.NewServiceFromDB(database.GetDB(), gateway, cfg.Stripe, cfg.BaseURL)
	controllers.Setup(cfg, billingService)

	oauth.Setup()

	jobqueue.SetBillingService(billingService)
	jobqueue.GetManager().Start()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/codigarte to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": "test",
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
