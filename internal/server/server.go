package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventra/eventra/config"
	"github.com/eventra/eventra/internal/cache"
	"github.com/eventra/eventra/internal/handlers"
	"github.com/eventra/eventra/internal/middleware"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	cacheClient := cache.NewClient(cfg)
	if err := cacheClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, cacheClient, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("Received %s, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %v", err)
	}

	if err := cacheClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return nil
}

func setupRoutes(r *gin.Engine, db *gorm.DB, cacheClient *cache.Client, cfg *config.Config) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.CacheMiddleware(cacheClient))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login(cfg))

		public.GET("/events", handlers.ListEvents)
		public.GET("/events/:id", handlers.GetEvent)

		public.GET("/venues", handlers.ListVenues)
		public.GET("/venues/:id", handlers.GetVenue)

		public.GET("/performers", handlers.ListPerformers)
		public.GET("/performers/:id", handlers.GetPerformer)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/profile", handlers.GetProfile)

		protected.POST("/bookings", handlers.CreateBooking)
		protected.GET("/bookings", handlers.ListBookings)
		protected.GET("/bookings/:id", handlers.GetBooking)
		protected.DELETE("/bookings/:id", handlers.CancelBooking)
		protected.GET("/bookings/:id/qr", handlers.GenerateBookingQR(cfg))
	}

	admin := r.Group("/v1")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireAdmin())
	{
		admin.POST("/events", handlers.CreateEvent)
		admin.PUT("/events/:id", handlers.UpdateEvent)
		admin.DELETE("/events/:id", handlers.DeleteEvent)

		admin.POST("/events/:id/ticket-types", handlers.CreateTicketType)
		admin.PUT("/ticket-types/:id", handlers.UpdateTicketType)
		admin.DELETE("/ticket-types/:id", handlers.DeleteTicketType)

		admin.POST("/venues", handlers.CreateVenue)
		admin.PUT("/venues/:id", handlers.UpdateVenue)
		admin.DELETE("/venues/:id", handlers.DeleteVenue)

		admin.POST("/performers", handlers.CreatePerformer)
		admin.PUT("/performers/:id", handlers.UpdatePerformer)
		admin.DELETE("/performers/:id", handlers.DeletePerformer)

		admin.POST("/bookings/validate", handlers.ValidateBooking(cfg))
	}
}
