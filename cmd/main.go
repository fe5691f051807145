package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"transitpass/internal/caching"
	"transitpass/internal/config"
	"transitpass/internal/handlers"
	"transitpass/internal/jobs/background"
	"transitpass/internal/repositories"
	"transitpass/internal/services"
	"transitpass/pkg/database"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create repositories
	planRepo := repositories.NewPlanRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	historyRepo := repositories.NewSubscriptionHistoryRepo(pool)

	// Create cache service
	var cacheSvc caching.CacheService
	if cfg.CacheEnabled {
		cacheSvc = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	// Create services
	planSvc := services.NewPlanService(planRepo, cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(pool, subscriptionRepo, historyRepo, planSvc)
	billingSvc := services.NewBillingService(pool, paymentRepo, subscriptionRepo)
	gateway := services.NewMockPaymentGateway(cfg.WebhookSecret)
	paymentSvc := services.NewPaymentService(gateway, billingSvc, subscriptionRepo)
	renewalSvc := services.NewRenewalService(subscriptionRepo, subscriptionSvc)

	// Create handlers
	planHandlers := handlers.NewPlanHandlers(planSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	billingHandlers := handlers.NewBillingHandlers(paymentSvc, billingSvc)
	jobHandlers := handlers.NewJobHandlers(renewalSvc)
	webhookHandlers := handlers.NewWebhookHandlers(gateway, billingSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Plan routes
	v1.GET("/plans", planHandlers.ListActivePlans)
	v1.GET("/plans/all", planHandlers.ListAllPlans)
	v1.GET("/plans/:id", planHandlers.GetPlan)
	v1.GET("/plans/code/:code", planHandlers.GetPlanByCode)

	// Subscription routes
	v1.POST("/subscriptions", subscriptionHandlers.CreateSubscription)
	v1.GET("/subscriptions/:id", subscriptionHandlers.GetSubscription)
	v1.PUT("/subscriptions/:id", subscriptionHandlers.UpdateSubscription)
	v1.DELETE("/subscriptions/:id", subscriptionHandlers.DeleteSubscription)
	v1.POST("/subscriptions/:id/activate", subscriptionHandlers.ActivateSubscription)
	v1.POST("/subscriptions/:id/cancel", subscriptionHandlers.CancelSubscription)
	v1.POST("/subscriptions/:id/renew", subscriptionHandlers.RenewSubscription)
	v1.POST("/subscriptions/:id/expire", subscriptionHandlers.ExpireSubscription)
	v1.GET("/subscriptions/:id/history", subscriptionHandlers.GetSubscriptionHistory)
	v1.GET("/users/:userId/subscriptions", subscriptionHandlers.GetUserSubscriptions)

	// Billing routes
	v1.POST("/payments", billingHandlers.ProcessPayment)
	v1.GET("/payments/:id", billingHandlers.GetPayment)
	v1.POST("/payments/:id/refund", billingHandlers.RefundPayment)
	v1.GET("/subscriptions/:id/billing-history", billingHandlers.GetBillingHistory)
	v1.GET("/subscriptions/:id/total-paid", billingHandlers.GetTotalPaid)

	// Job routes
	v1.POST("/jobs/renewals/run", jobHandlers.RunRenewals)
	v1.POST("/jobs/expirations/run", jobHandlers.RunExpirations)
	v1.GET("/jobs/renewals/preview", jobHandlers.PreviewRenewals)

	// Webhook routes
	v1.POST("/webhooks/payments", webhookHandlers.PaymentWebhook)

	// Start background scheduler
	scheduler := background.NewJobScheduler(renewalSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}

	// Stop the scheduler cleanly on shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
		e.Close()
	}()

	log.Printf("Transitpass server v%s starting on port %d", version, cfg.Port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
