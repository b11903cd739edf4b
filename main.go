package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"dinehall/internal/config"
	"dinehall/internal/handlers"
	"dinehall/internal/kafka"
	"dinehall/internal/kitchen"
	"dinehall/internal/logger"
	"dinehall/internal/middleware"
	rediswrap "dinehall/internal/redis"
	"dinehall/internal/services"
	"dinehall/internal/storage"

	"github.com/gin-gonic/gin"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Dinehall starting up...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	locker := rediswrap.NewLocker(redisClient)
	log.LogProcess("SERVICE", "Redis table locker initialized")

	// Services
	tableService := services.NewTableService(store, locker, log)
	orderService := services.NewOrderService(store, tableService, kafkaProducer, log)
	paymentService := services.NewPaymentService(store, orderService, kafkaProducer, log, cfg.Tax.Percent)
	reservationService := services.NewReservationService(store, tableService, kafkaProducer, log)
	foodService := services.NewFoodService(store, log)
	log.LogProcess("SERVICE", "All services initialized")

	// The kitchen board consumes order events; in mock-producer mode there
	// is nothing on the wire, so the consumer is skipped too.
	board := kitchen.NewBoard()
	if !cfg.Kafka.MockMode {
		kafkaConsumer, err := kafka.NewOrderConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, log)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create Kafka consumer: "+err.Error())
		}
		defer kafkaConsumer.Close()
		go func() {
			log.LogKafka("START", "consumer", "Starting kitchen board consumer goroutine")
			if err := kafkaConsumer.ConsumeOrderEvents(context.Background(), board.Apply); err != nil {
				log.Error("KAFKA", "Consumer error: "+err.Error())
			}
		}()
	}

	// Handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	tableHandler := handlers.NewTableHandler(tableService)
	foodHandler := handlers.NewFoodHandler(foodService)
	kitchenHandler := handlers.NewKitchenHandler(board)
	log.LogProcess("HANDLER", "All handlers initialized")

	router := setupRouter(store, orderHandler, paymentHandler, reservationHandler, tableHandler, foodHandler, kitchenHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on "+cfg.Server.Port)
		log.Info("STARTUP", "Dinehall is ready to accept requests")
		log.Info("STARTUP", "Health check available at: http://localhost"+cfg.Server.Port+"/health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Dinehall shutdown completed successfully")
}

func setupRouter(
	store storage.Store,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	reservationHandler *handlers.ReservationHandler,
	tableHandler *handlers.TableHandler,
	foodHandler *handlers.FoodHandler,
	kitchenHandler *handlers.KitchenHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(log))
	router.Use(middleware.SecurityHeaders(log))

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := store.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "dinehall",
			"version":   "1.0.0",
		})
	})

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.POST("/merge", orderHandler.MergeOrders)
			orders.GET("/byTable/:tableId", orderHandler.ListOrdersByTable)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id", orderHandler.UpdateOrder)
			orders.PATCH("/:id/add-items", orderHandler.AddItems)
			orders.PATCH("/:id/items/:itemId", orderHandler.UpdateItemStatus)
			orders.PUT("/:id/complete", orderHandler.CompleteOrder)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("", paymentHandler.ListPayments)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.PUT("/:id", paymentHandler.UpdatePayment)
			payments.DELETE("/:id", paymentHandler.DeletePayment)
		}

		reservations := v1.Group("/reservations")
		{
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.GET("", reservationHandler.ListReservations)
			reservations.GET("/byTable/:tableId", reservationHandler.ListReservationsByTable)
			reservations.PATCH("/byTable/:tableId/confirm", reservationHandler.ConfirmByTable)
			reservations.GET("/:id", reservationHandler.GetReservation)
			reservations.PATCH("/:id/status", reservationHandler.UpdateReservationStatus)
			reservations.DELETE("/:id", reservationHandler.CancelReservation)
		}

		tables := v1.Group("/tables")
		{
			tables.POST("", tableHandler.CreateTable)
			tables.GET("", tableHandler.ListTables)
			tables.GET("/:id", tableHandler.GetTable)
		}

		foods := v1.Group("/foods")
		{
			foods.POST("", foodHandler.CreateFood)
			foods.GET("", foodHandler.ListFoods)
			foods.GET("/:id", foodHandler.GetFood)
		}

		v1.GET("/kitchen/board", kitchenHandler.GetBoard)
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
