package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eugene953/TheraAid-Server/internal/auth"
	"github.com/eugene953/TheraAid-Server/internal/config"
	"github.com/eugene953/TheraAid-Server/internal/database"
	"github.com/eugene953/TheraAid-Server/internal/handlers"
	"github.com/eugene953/TheraAid-Server/internal/jobs"
	"github.com/eugene953/TheraAid-Server/internal/notify"
	"github.com/eugene953/TheraAid-Server/internal/repository"
	"github.com/eugene953/TheraAid-Server/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notification fan-out: websocket hub plus winner emails
	hub := notify.NewHub()
	mailer := notify.NewSMTPMailer(cfg.Mailer)
	fanout := notify.NewFanout(hub, notify.NewEmailSink(mailer))
	defer fanout.Close()

	// Initialize repository and services
	repo := repository.NewRepository(database.GetDB())
	userService := services.NewUserService(repo)
	auctionService := services.NewAuctionService(repo)
	bidService := services.NewBidService(database.GetDB(), repo, fanout)
	winnerService := services.NewWinnerService(database.GetDB(), repo, fanout)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	auctionHandler := handlers.NewAuctionHandler(auctionService, winnerService)
	bidHandler := handlers.NewBidHandler(bidService, winnerService, cfg.App.BidTimeout)

	// Start the auction lifecycle scheduler
	lifecycle := jobs.NewAuctionLifecycle(repo, winnerService, cfg.Scheduler.TickInterval)
	go lifecycle.Start()
	defer lifecycle.Stop()
	log.Println("Auction lifecycle job started")

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Real-time notification channel
	router.GET("/ws", hub.ServeWS)

	// Public routes
	router.POST("/api/users/register", authHandler.Register)
	router.POST("/api/users/login", authHandler.Login)
	router.GET("/api/auctions", auctionHandler.GetAuctions)
	router.GET("/api/auctions/:id", auctionHandler.GetAuctionByID)
	router.GET("/api/auctions/:id/winner", auctionHandler.GetAuctionWinner)
	router.GET("/api/winners", bidHandler.GetWinners)

	// Protected routes
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/users/me", authHandler.GetMe)

		api.POST("/auctions", auctionHandler.CreateAuction)
		api.GET("/auctions/mine", auctionHandler.GetMyAuctions)
		api.PUT("/auctions/:id", auctionHandler.UpdateAuction)
		api.DELETE("/auctions/:id", auctionHandler.DeleteAuction)
		api.POST("/auctions/:id/repost", auctionHandler.RepostAuction)

		api.POST("/bids", bidHandler.PlaceBid)
		api.GET("/bids/auction/:id", bidHandler.GetBidsForAuction)
		api.GET("/winners/me", bidHandler.GetMyWins)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
