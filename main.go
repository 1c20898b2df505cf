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
	"github.com/techmarket/marketplace-api/internal/api"
	"github.com/techmarket/marketplace-api/internal/db"
	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/repository"
	"github.com/techmarket/marketplace-api/internal/services"
	"github.com/techmarket/marketplace-api/pkg/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx := context.Background()
	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down meter provider: %v", err)
		}
	}()

	database, err := db.NewDB(cfg.GetDSN(), cfg.OTELServiceName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	schemaSQL, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		log.Printf("Warning: could not read %s: %v", cfg.SchemaPath, err)
		log.Println("Assuming database schema already exists")
	} else if err := database.InitSchema(ctx, string(schemaSQL)); err != nil {
		log.Printf("Warning: could not initialize schema: %v", err)
		log.Println("Assuming database schema already exists")
	}

	store := repository.NewSQLStore(database, appMetrics)
	users := repository.NewUserStore(store)
	categories := repository.NewCategoryStore(store)
	products := repository.NewProductStore(store)
	carts := repository.NewCartStore(store)
	orders := repository.NewOrderStore(store)

	userService := services.NewUserService(users, appMetrics)
	categoryService := services.NewCategoryService(categories)
	productService := services.NewProductService(products, users, categories, appMetrics)
	cartService := services.NewCartService(users, products, carts, store, appMetrics)
	orderService := services.NewOrderService(users, products, orders, store, appMetrics)

	app := api.NewApp(appMetrics, userService, categoryService, productService, cartService, orderService)

	router := mux.NewRouter()
	app.SetupRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.AppPort)
		log.Printf("OTLP endpoint: %s", cfg.OTELExporterOTLPEndpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
