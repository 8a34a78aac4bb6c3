package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"pest-alert-system/pkg/database"
	"pest-alert-system/pkg/middleware"
	"pest-alert-system/pkg/queue"
	"pest-alert-system/pkg/realtime"
	"pest-alert-system/pkg/storage"
	"pest-alert-system/services/api/handlers"
	"pest-alert-system/services/api/lifecycle"
	"pest-alert-system/services/api/models"
	"pest-alert-system/services/api/store"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MongoDB: %v", err)
	}
	log.Println("[OK] Connected to MongoDB")

	userDB, err := database.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to Postgres: %v", err)
	}
	if err := userDB.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("[ERROR] User migration failed: %v", err)
	}
	log.Println("[OK] Connected to Postgres")

	objectStore, err := storage.Connect(cfg.Minio)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MinIO: %v", err)
	}
	log.Println("[OK] Connected to MinIO")

	// The intake queue is best effort: without it, reports are still
	// accepted and only dispatch routing is lost.
	var publisher lifecycle.Publisher
	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI)
	if err != nil {
		log.Printf("[WARN] RabbitMQ unavailable, intake events disabled: %v", err)
	} else {
		defer conn.Close()
		defer ch.Close()
		publisher = queue.NewPublisher(ch)
		log.Println("[OK] Connected to RabbitMQ")
	}

	hub := realtime.NewHub()
	manager := lifecycle.NewManager(store.NewMongoStore(mongoDB), hub, publisher)

	reportHandler := handlers.NewReportHandler(manager, objectStore)
	userHandler := handlers.NewUserHandler(userDB, manager)
	streamHandler := handlers.NewStreamHandler(hub)

	middleware.RegisterMetrics()

	auth := middleware.AuthMiddleware
	admin := func(h http.Handler) http.Handler {
		return auth(middleware.RequireAdmin(h))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/reports", auth(http.HandlerFunc(reportHandler.Create)))
	mux.Handle("GET /api/reports", admin(http.HandlerFunc(reportHandler.List)))
	mux.Handle("GET /api/reports/mine", auth(http.HandlerFunc(reportHandler.Mine)))
	mux.Handle("GET /api/reports/{id}", admin(http.HandlerFunc(reportHandler.Get)))
	mux.Handle("PUT /api/reports/{id}", admin(http.HandlerFunc(reportHandler.UpdateStatus)))
	mux.Handle("POST /api/reports/broadcast", admin(http.HandlerFunc(reportHandler.Broadcast)))

	mux.Handle("POST /api/users", http.HandlerFunc(userHandler.Register))
	mux.Handle("POST /api/users/login", http.HandlerFunc(userHandler.Login))
	mux.Handle("GET /api/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/users", admin(http.HandlerFunc(userHandler.List)))
	mux.Handle("GET /api/users/stats", admin(http.HandlerFunc(userHandler.Stats)))
	mux.Handle("DELETE /api/users/{id}", admin(http.HandlerFunc(userHandler.Delete)))

	// Token auth happens inside the stream handler: EventSource clients
	// pass it as a query parameter.
	mux.Handle("GET /api/alerts/subscribe", http.HandlerFunc(streamHandler.Subscribe))

	mux.Handle("GET /health", handlers.HealthHandler(hub))
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	handler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(mux),
		),
	)

	log.Printf("[INFO] Pest Alert API running on port :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}
