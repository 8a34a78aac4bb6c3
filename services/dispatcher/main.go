package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pest-alert-system/pkg/queue"
)

// ReportEvent mirrors the intake payload published by the API service.
type ReportEvent struct {
	ID          string    `json:"id"`
	FarmerName  string    `json:"farmerName"`
	Location    string    `json:"location"`
	PestType    string    `json:"pestType"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

const queueName = "report_queue"

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	amqpURI := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		getenv("RABBITMQ_USER", "guest"),
		getenv("RABBITMQ_PASS", "guest"),
		getenv("RABBITMQ_HOST", "localhost"),
		getenv("RABBITMQ_PORT", "5672"),
	)

	conn, ch, err := queue.ConnectRabbitMQ(amqpURI)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()

	log.Println("[OK] Dispatcher connected to RabbitMQ")

	msgs, err := queue.ConsumeMessages(ch, queueName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to consume queue: %v", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var report ReportEvent
			if err := json.Unmarshal(d.Body, &report); err != nil {
				log.Printf("[WARN] Error parsing intake event: %v", err)
				continue
			}

			office := routeToOffice(report.PestType)
			log.Printf("[ROUTING] Report %s (%s at %s) forwarded to: %s",
				report.ID, report.PestType, report.Location, office)
		}
	}()

	log.Printf("[INFO] Waiting for reports in queue %q. Press CTRL+C to exit.", queueName)
	<-forever
}

// routeToOffice maps a pest type to the field office that handles it.
func routeToOffice(pestType string) string {
	switch pestType {
	case "Locust", "Armyworm":
		return "REGIONAL SWARM CONTROL UNIT"
	case "Aphid", "Whitefly", "Mealybug":
		return "CROP PROTECTION EXTENSION OFFICE"
	case "Rodent":
		return "VERTEBRATE PEST CONTROL SERVICE"
	default:
		return "GENERAL AGRICULTURAL EXTENSION DESK"
	}
}
