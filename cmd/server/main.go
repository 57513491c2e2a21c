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
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/database"
	"github.com/napcube/pod-reservation-backend/internal/handlers"
	"github.com/napcube/pod-reservation-backend/internal/metrics"
	"github.com/napcube/pod-reservation-backend/internal/middleware"
	"github.com/napcube/pod-reservation-backend/internal/services"
	"github.com/napcube/pod-reservation-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
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

	logger.Info("Starting NapCube pod reservation backend")
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
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB.DB); err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	// Availability cache (optional)
	var cache services.AvailabilityCache
	if cfg.Redis.Address != "" {
		redisClient := services.NewRedisClient(cfg.Redis)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, availability cache disabled")
		} else {
			cache = services.NewRedisAvailabilityCache(redisClient, cfg.Redis.CacheTTL)
			logger.WithField("addr", cfg.Redis.Address).Info("Availability cache enabled")
		}
		cancel()
	}

	// Initialize repositories
	locationRepository := database.NewLocationRepository(db.DB)
	bookingRepository := database.NewBookingRepository(db.DB, logger)
	auditRepository := database.NewPaymentAuditRepository(db.DB, logger)

	// Initialize services
	logger.Info("Initializing services...")
	razorpayService := services.NewRazorpayService(&cfg.Payment, logger)
	if !razorpayService.IsConfigured() {
		logger.Warn("Razorpay credentials missing, hosted checkout will be unavailable")
	}
	auditService := services.NewAuditService(auditRepository, logger)
	availabilityService := services.NewAvailabilityService(locationRepository, bookingRepository, cache, logger)
	bookingService := services.NewBookingService(bookingRepository, locationRepository, availabilityService, auditService, cfg.Booking, logger)
	paymentService := services.NewPaymentService(bookingRepository, razorpayService, availabilityService, auditService, &cfg.Payment, logger)
	reconciliationService := services.NewReconciliationService(bookingRepository, availabilityService, paymentService, auditService, &cfg.Payment, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(bookingService, cfg.Booking.ReaperSchedule, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.WithField("schedule", cfg.Booking.ReaperSchedule).Info("Cron service started, pending booking reaper enabled")

	// Initialize handlers
	locationHandler := handlers.NewLocationHandler(availabilityService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, reconciliationService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	adminHandler := handlers.NewAdminHandler(availabilityService, cronService, auditService, logger)

	metrics.Register()

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, logger)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	go limiter.Run(limiterCtx)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/locations", locationHandler.ListLocations)
		v1.GET("/locations/:id/availability", locationHandler.GetLocationAvailability)
		v1.GET("/availability", locationHandler.GetAvailability)

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", limiter.Middleware(), bookingHandler.CreateBooking)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
			bookings.POST("/:id/checkout", limiter.Middleware(), bookingHandler.StartCheckout)
			bookings.POST("/:id/hosted-complete", limiter.Middleware(), bookingHandler.CompleteHosted)
			bookings.POST("/:id/self-report", limiter.Middleware(), bookingHandler.SelfReport)
		}

		payments := v1.Group("/payments")
		payments.Use(limiter.Middleware())
		{
			payments.POST("/create-order", paymentHandler.CreateOrder)
			payments.POST("/verify", paymentHandler.VerifyPayment)
		}

		// Admin routes stay unregistered without a signing secret
		if cfg.JWT.Secret != "" {
			jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenExpiry)

			admin := v1.Group("/admin")
			admin.Use(middleware.AuthMiddleware(jwtService, logger))
			admin.Use(middleware.RequireRole(jwt.RoleAdmin))
			{
				admin.PUT("/locations/:id/capacity", adminHandler.UpdateCapacity)
				admin.POST("/bookings/reap", adminHandler.ReapPendingBookings)
				admin.GET("/jobs", adminHandler.GetJobStatus)
				admin.GET("/bookings/:id/audit", adminHandler.GetBookingAudit)
			}
		} else {
			logger.Warn("ADMIN_JWT_SECRET not set, admin routes disabled")
		}
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

	// Stop cron service
	logger.Info("Stopping cron service...")
	cronService.Stop()
	stopLimiter()

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
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
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
