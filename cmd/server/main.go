package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/cache"
	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/database"
	"github.com/airhive/airline-backend/internal/handlers"
	"github.com/airhive/airline-backend/internal/kafka"
	"github.com/airhive/airline-backend/internal/middleware"
	"github.com/airhive/airline-backend/internal/services"
	"github.com/airhive/airline-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting AirHive Airline Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	airportRepository := database.NewAirportRepository(db)
	airplaneRepository := database.NewAirplaneRepository(db)
	seatRepository := database.NewSeatRepository(db)
	flightRepository := database.NewFlightRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	checkInRepository := database.NewCheckInRepository(db)
	notificationRepository := database.NewNotificationRepository(db)

	// Optional infrastructure. Both come back nil when unconfigured and
	// every call on them degrades to a no-op.
	flightCache := cache.NewFlightCache(cfg.Redis, logger)
	if flightCache != nil {
		logger.Info("Flight search cache enabled")
	}
	producer := kafka.NewProducer(cfg.Kafka)
	if producer != nil {
		logger.Info("Notification event stream enabled")
		defer producer.Close()
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	authService := services.NewAuthService(userRepository, jwtService, cfg.Security, logger)
	airportService := services.NewAirportService(airportRepository, logger)
	notificationService := services.NewNotificationService(notificationRepository, bookingRepository, producer, logger)
	flightService := services.NewFlightService(
		db,
		flightRepository,
		airportRepository,
		airplaneRepository,
		bookingRepository,
		seatRepository,
		notificationService,
		flightCache,
		cfg.Booking,
		logger,
	)
	airplaneService := services.NewAirplaneService(
		airplaneRepository,
		seatRepository,
		flightRepository,
		flightService,
		logger,
	)
	bookingService := services.NewBookingService(
		db,
		bookingRepository,
		seatRepository,
		flightRepository,
		airportRepository,
		paymentRepository,
		userRepository,
		checkInRepository,
		notificationService,
		cfg.Booking,
		logger,
	)
	checkInService := services.NewCheckInService(
		checkInRepository,
		bookingRepository,
		flightService,
		cfg.Booking,
		logger,
	)
	reconciliationService := services.NewReconciliationService(
		flightService,
		bookingService,
		notificationService,
		flightRepository,
		bookingRepository,
		cfg.Booking,
		cfg.Scheduler,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	airportHandler := handlers.NewAirportHandler(airportService)
	airplaneHandler := handlers.NewAirplaneHandler(airplaneService)
	flightHandler := handlers.NewFlightHandler(flightService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	checkInHandler := handlers.NewCheckInHandler(checkInService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthMiddleware(jwtService), authHandler.Me)
		}

		// Profile routes (protected)
		profile := v1.Group("/profile")
		profile.Use(middleware.AuthMiddleware(jwtService))
		{
			profile.GET("", authHandler.GetProfile)
			profile.PUT("", authHandler.UpsertProfile)
		}

		// Airport routes (reads public, writes staff)
		airports := v1.Group("/airports")
		{
			airports.GET("", airportHandler.List)
			airports.GET("/:id", airportHandler.Get)
			airports.POST("", middleware.AuthMiddleware(jwtService), middleware.RequireStaff(), airportHandler.Create)
		}

		// Airplane routes (staff only)
		airplanes := v1.Group("/airplanes")
		airplanes.Use(middleware.AuthMiddleware(jwtService), middleware.RequireStaff())
		{
			airplanes.POST("", airplaneHandler.Create)
			airplanes.GET("", airplaneHandler.List)
			airplanes.GET("/:id", airplaneHandler.Get)
			airplanes.DELETE("/:id", airplaneHandler.Deactivate)
		}

		// Flight routes (search and reads public, writes staff)
		flights := v1.Group("/flights")
		{
			flights.GET("", flightHandler.Search)
			flights.GET("/:id", flightHandler.Get)
			flights.GET("/:id/seats", flightHandler.SeatMap)
			flights.GET("/:id/announcements", notificationHandler.ListAnnouncements)
			flights.POST("", middleware.AuthMiddleware(jwtService), middleware.RequireStaff(), flightHandler.Create)
			flights.PATCH("/:id", middleware.AuthMiddleware(jwtService), middleware.RequireStaff(), flightHandler.Update)
		}

		// Seat routes (protected)
		seats := v1.Group("/seats")
		seats.Use(middleware.AuthMiddleware(jwtService))
		{
			seats.POST("/:id/hold", bookingHandler.HoldSeat)
		}

		// Booking routes (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.ListMine)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/confirm", bookingHandler.Confirm)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.POST("/:id/pay", bookingHandler.Pay)
		}

		// Ticket routes (protected, reassignment staff only)
		tickets := v1.Group("/tickets")
		tickets.Use(middleware.AuthMiddleware(jwtService))
		{
			tickets.DELETE("/:id", bookingHandler.CancelTicket)
			tickets.POST("/:id/check-in", checkInHandler.CheckIn)
			tickets.GET("/:id/boarding-pass", checkInHandler.GetBoardingPass)
			tickets.POST("/:id/reassign", middleware.RequireStaff(), bookingHandler.ReassignSeat)
		}

		// Notification routes (protected)
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.GET("", notificationHandler.ListMine)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// Staff routes
		staff := v1.Group("/staff")
		staff.Use(middleware.AuthMiddleware(jwtService), middleware.RequireStaff())
		{
			staff.GET("/bookings/:pnr", bookingHandler.FindByPNR)
			staff.POST("/announcements", notificationHandler.CreateAnnouncement)
			staff.POST("/notifications", notificationHandler.Send)
		}
	}

	// Start the background reconciliation sweep
	if cfg.Scheduler.Enabled {
		reconciliationService.Start()
	} else {
		logger.Warn("Reconciliation service disabled by configuration")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Scheduler.Enabled {
		reconciliationService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
