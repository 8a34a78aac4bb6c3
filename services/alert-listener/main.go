// Command alert-listener subscribes to the alert stream and prints each
// broadcast as it arrives. Alerts are shown for a configurable display
// duration and then marked dismissed; set -display=0 to keep them on screen.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

type alertEvent struct {
	ReportID     string    `json:"reportId"`
	FarmerName   string    `json:"farmerName"`
	Location     string    `json:"location"`
	PestType     string    `json:"pestType"`
	AlertMessage string    `json:"alertMessage"`
	Severity     string    `json:"severity"`
	ImageURL     string    `json:"imageUrl"`
	Timestamp    time.Time `json:"timestamp"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "pest alert API base URL")
	token := flag.String("token", "", "auth token for the subscription")
	display := flag.Duration("display", 10*time.Second, "how long an alert stays on screen (0 = forever)")
	flag.Parse()

	if *token == "" {
		log.Fatal("[ERROR] -token is required")
	}

	url := fmt.Sprintf("%s/api/alerts/subscribe?token=%s", *serverURL, *token)
	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("[ERROR] Subscription rejected: %s", resp.Status)
	}

	log.Println("[OK] Listening for pest alerts")

	var currentEvent string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			handleData(currentEvent, strings.TrimPrefix(line, "data: "), *display)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("[ERROR] Stream closed: %v", err)
	}
}

func handleData(event, data string, display time.Duration) {
	if event != "new_alert" {
		return
	}

	var alert alertEvent
	if err := json.Unmarshal([]byte(data), &alert); err != nil {
		log.Printf("[WARN] Failed to parse alert: %v", err)
		return
	}

	fmt.Printf("\n=== PEST ALERT [%s] ===\n", alert.Severity)
	fmt.Printf("Pest:     %s\n", alert.PestType)
	fmt.Printf("Location: %s\n", alert.Location)
	fmt.Printf("Reporter: %s\n", alert.FarmerName)
	fmt.Printf("Message:  %s\n", alert.AlertMessage)
	if alert.ImageURL != "" {
		fmt.Printf("Evidence: %s\n", alert.ImageURL)
	}

	if display > 0 {
		go func(id string) {
			time.Sleep(display)
			fmt.Printf("--- alert for report %s dismissed ---\n", id)
		}(alert.ReportID)
	}
}
