// Package lifecycle enforces the pest report state machine and produces the
// alert fan-out on resolution. Reports start Pending; an admin either rejects
// them or resolves them with a broadcast alert.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"pest-alert-system/pkg/middleware"
	"pest-alert-system/pkg/realtime"
	"pest-alert-system/services/api/models"
	"pest-alert-system/services/api/store"
)

// IntakeQueue receives a ReportEvent for every accepted report.
const IntakeQueue = "report_queue"

// Broadcaster fans an event out to currently connected subscribers.
// The realtime hub satisfies this.
type Broadcaster interface {
	Broadcast(event string, payload interface{}) error
}

// Publisher hands intake events to the dispatch queue.
type Publisher interface {
	Publish(queueName string, payload interface{}) error
}

// Manager validates and applies report status transitions. The broadcaster
// and publisher may be nil; both paths degrade to a logged no-op so a status
// update never fails because delivery is unavailable.
type Manager struct {
	store       store.ReportStore
	broadcaster Broadcaster
	publisher   Publisher
}

func NewManager(s store.ReportStore, b Broadcaster, p Publisher) *Manager {
	return &Manager{store: s, broadcaster: b, publisher: p}
}

// Create validates the submission and persists a new Pending report.
func (m *Manager) Create(ctx context.Context, farmerName, location, pestType, description, imageURL string) (*models.Report, error) {
	switch {
	case farmerName == "":
		return nil, &ValidationError{Message: "farmer name is required"}
	case location == "":
		return nil, &ValidationError{Message: "location is required"}
	case pestType == "":
		return nil, &ValidationError{Message: "pest type is required"}
	case description == "":
		return nil, &ValidationError{Message: "description is required"}
	case imageURL == "":
		return nil, &ValidationError{Message: "evidence image is required"}
	}

	now := time.Now()
	report := &models.Report{
		FarmerName:  farmerName,
		Location:    location,
		PestType:    pestType,
		Description: description,
		ImageURL:    imageURL,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	middleware.ReportsCreated.Inc()

	m.publishIntake(report)

	return report, nil
}

// publishIntake hands the new report to the dispatch queue. Failure is
// logged and never surfaced: the report is already saved.
func (m *Manager) publishIntake(report *models.Report) {
	if m.publisher == nil {
		return
	}

	event := models.ReportEvent{
		ID:          report.ID.Hex(),
		FarmerName:  report.FarmerName,
		Location:    report.Location,
		PestType:    report.PestType,
		Description: report.Description,
		CreatedAt:   report.CreatedAt,
	}

	if err := m.publisher.Publish(IntakeQueue, event); err != nil {
		log.Printf("[WARN] Report saved but failed to publish intake event: %v", err)
	}
}

// SetStatus applies an admin status update after validating the target
// status. There is no precondition on the current status: a moderated
// report may be re-moderated.
func (m *Manager) SetStatus(ctx context.Context, id string, status string) (*models.Report, error) {
	if !models.ValidStatus(status) {
		return nil, &ValidationError{Message: "invalid status value"}
	}
	return m.store.UpdateStatus(ctx, id, status)
}

// Reject moves a report to Rejected without broadcasting anything.
func (m *Manager) Reject(ctx context.Context, id string) (*models.Report, error) {
	return m.store.UpdateStatus(ctx, id, models.StatusRejected)
}

// ResolveAndAlert moves a report to Resolved and broadcasts an alert built
// from the report plus the admin-supplied message and severity. The alert
// event is returned even when no subscriber is connected; broadcast
// unavailability is logged, never an error.
func (m *Manager) ResolveAndAlert(ctx context.Context, id, alertMessage, severity, imageOverride string) (*models.Report, *models.AlertEvent, error) {
	if alertMessage == "" {
		return nil, nil, &ValidationError{Message: "alert message is required"}
	}
	if !models.ValidSeverity(severity) {
		return nil, nil, &ValidationError{Message: "severity must be Low, Medium, or High"}
	}

	report, err := m.store.UpdateStatus(ctx, id, models.StatusResolved)
	if err != nil {
		return nil, nil, err
	}

	event := models.BuildAlertEvent(report, alertMessage, severity, imageOverride)

	if m.broadcaster == nil {
		log.Printf("[WARN] No subscription channel available, alert for report %s not broadcast", event.ReportID)
	} else if err := m.broadcaster.Broadcast(realtime.EventNewAlert, event); err != nil {
		log.Printf("[WARN] Failed to broadcast alert for report %s: %v", event.ReportID, err)
	}

	return report, &event, nil
}

// Get returns a single report by id.
func (m *Manager) Get(ctx context.Context, id string) (*models.Report, error) {
	return m.store.FindByID(ctx, id)
}

// ListAll returns every report, newest first.
func (m *Manager) ListAll(ctx context.Context) ([]models.Report, error) {
	return m.store.FindAll(ctx)
}

// ListForReporter returns the reports whose farmer name matches the caller's
// identity, newest first. The binding is name-equality, as submitted.
func (m *Manager) ListForReporter(ctx context.Context, farmerName string) ([]models.Report, error) {
	return m.store.FindByFarmer(ctx, farmerName)
}

// PendingCount reports how many submissions still await moderation.
func (m *Manager) PendingCount(ctx context.Context) (int64, error) {
	return m.store.CountByStatus(ctx, models.StatusPending)
}
