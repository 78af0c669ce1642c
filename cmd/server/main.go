package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/yumix/internal/config"
	"github.com/Dias221467/yumix/internal/database"
	"github.com/Dias221467/yumix/internal/handlers"
	"github.com/Dias221467/yumix/internal/jobs"
	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/internal/repository"
	"github.com/Dias221467/yumix/internal/scheduler"
	"github.com/Dias221467/yumix/internal/services"
	"github.com/Dias221467/yumix/pkg/email"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/Dias221467/yumix/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration from .env and the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	adminNotifRepo := repository.NewNotificationRepository(db, models.AudienceAdmin)
	userNotifRepo := repository.NewNotificationRepository(db, models.AudienceUser)
	adminRepo := repository.NewRecipientRepository(db, models.AudienceAdmin)
	userRepo := repository.NewRecipientRepository(db, models.AudienceUser)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	if err := ensureIndexes(ctx, adminNotifRepo, userNotifRepo, subscriptionRepo, recipeRepo, historyRepo); err != nil {
		logger.Log.Fatalf("Index creation error: %v", err)
	}

	// --- Services ---
	adminNotifications := services.NewNotificationService(models.AudienceAdmin, adminNotifRepo, adminRepo,
		services.WithInlineSweep(cfg.Jobs.AdminInlineSweep))
	userNotifications := services.NewNotificationService(models.AudienceUser, userNotifRepo, userRepo,
		services.WithInlineSweep(cfg.Jobs.UserInlineSweep))

	// --- Jobs ---
	sched := scheduler.New(scheduler.WithRunTimeout(cfg.Jobs.RunTimeout))
	retention := jobs.NewNotificationRetention(adminNotifications, userNotifications)
	recipeRetention := jobs.NewRecipeRetention(recipeRepo, historyRepo,
		database.NewTxRunner(db.Client(), cfg.MongoTransactions))
	var expiryOpts []jobs.ExpiryOption
	if cfg.SMTP.Enabled() {
		expiryOpts = append(expiryOpts, jobs.WithExpiryEmail(email.NewMailer(cfg.SMTP), userRepo))
	}
	expiryWatcher := jobs.NewSubscriptionExpiryWatcher(subscriptionRepo, userNotifications, nil, expiryOpts...)

	for _, job := range []struct {
		name string
		spec string
		task scheduler.Task
	}{
		{jobs.NotificationRetentionJob, cfg.Jobs.NotificationRetention, retention.Run},
		{jobs.RecipeRetentionJob, cfg.Jobs.RecipeRetention, recipeRetention.Run},
		{jobs.SubscriptionExpiryJob, cfg.Jobs.SubscriptionExpiry, expiryWatcher.Run},
	} {
		if err := sched.Register(job.name, job.spec, job.task); err != nil {
			logger.Log.Fatalf("Scheduler error: %v", err)
		}
	}
	sched.Start()

	// --- Handlers ---
	notificationHandler := handlers.NewNotificationHandler(cfg.Debug, adminNotifications, userNotifications)
	systemHandler := handlers.NewSystemHandler(sched, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})

	router := mux.NewRouter()
	router.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationHandler.RegisterRoutes(notificationRoutes)

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/jobs/{name}/run", systemHandler.RunJobHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware(metrics.APILatency))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")
	shutdown(server, sched, db.Client(), cfg.ShutdownTTL)
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func shutdown(server *http.Server, sched *scheduler.Scheduler, client *mongo.Client, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), ttl)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("HTTP server shutdown incomplete")
	}

	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		logger.Log.Warn("Scheduled tasks still running at shutdown")
	}

	if err := client.Disconnect(ctx); err != nil {
		logger.Log.WithError(err).Warn("MongoDB disconnect failed")
	}
	logger.Log.Info("Server stopped")
}
