package main

import (
	"fmt"
	"os"

	"pest-alert-system/pkg/storage"
)

type config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	PostgresDSN string
	AMQPURI     string
	Minio       storage.Config
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig() config {
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
		getenv("MONGO_USER", "admin"),
		getenv("MONGO_PASSWORD", "password"),
		getenv("MONGO_HOST", "localhost"),
		getenv("MONGO_PORT", "27017"),
	)

	postgresDSN := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		getenv("POSTGRES_HOST", "localhost"),
		getenv("POSTGRES_USER", "admin"),
		getenv("POSTGRES_PASSWORD", "password"),
		getenv("POSTGRES_DB", "pest_alert_users"),
		getenv("POSTGRES_PORT", "5432"),
	)

	amqpURI := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		getenv("RABBITMQ_USER", "guest"),
		getenv("RABBITMQ_PASS", "guest"),
		getenv("RABBITMQ_HOST", "localhost"),
		getenv("RABBITMQ_PORT", "5672"),
	)

	return config{
		Port:        getenv("API_PORT", "8080"),
		MongoURI:    mongoURI,
		MongoDB:     getenv("MONGO_DB", "pest_alert"),
		PostgresDSN: postgresDSN,
		AMQPURI:     amqpURI,
		Minio: storage.Config{
			Endpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getenv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getenv("MINIO_BUCKET", "pest-evidence"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},
	}
}
