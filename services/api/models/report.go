package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses. A report starts Pending; moderation moves it to Resolved
// (with an alert broadcast) or Rejected.
const (
	StatusPending  = "Pending"
	StatusResolved = "Resolved"
	StatusRejected = "Rejected"
)

// Alert severities.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusResolved || s == StatusRejected
}

func ValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Report is a farmer-submitted pest sighting.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmerName  string             `bson:"farmer_name" json:"farmerName"`
	Location    string             `bson:"location" json:"location"`
	PestType    string             `bson:"pest_type" json:"pestType"`
	Description string             `bson:"description" json:"description"`
	ImageURL    string             `bson:"image_url" json:"imageUrl"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// AlertEvent is the payload pushed to every connected subscriber when an
// admin resolves a report with an alert. It is never persisted.
type AlertEvent struct {
	ReportID     string    `json:"reportId"`
	FarmerName   string    `json:"farmerName"`
	Location     string    `json:"location"`
	PestType     string    `json:"pestType"`
	AlertMessage string    `json:"alertMessage"`
	Severity     string    `json:"severity"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// BuildAlertEvent denormalizes a report into an alert payload. The override
// image reference wins when supplied, otherwise the report's own evidence
// image is carried.
func BuildAlertEvent(report *Report, alertMessage, severity, imageOverride string) AlertEvent {
	imageURL := report.ImageURL
	if imageOverride != "" {
		imageURL = imageOverride
	}

	return AlertEvent{
		ReportID:     report.ID.Hex(),
		FarmerName:   report.FarmerName,
		Location:     report.Location,
		PestType:     report.PestType,
		AlertMessage: alertMessage,
		Severity:     severity,
		ImageURL:     imageURL,
		Timestamp:    time.Now(),
	}
}

// ReportEvent is the intake message published to the dispatch queue when a
// new report is created.
type ReportEvent struct {
	ID          string    `json:"id"`
	FarmerName  string    `json:"farmerName"`
	Location    string    `json:"location"`
	PestType    string    `json:"pestType"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
