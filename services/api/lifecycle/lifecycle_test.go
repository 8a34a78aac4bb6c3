package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"pest-alert-system/services/api/models"
	"pest-alert-system/services/api/store"
)

type fakeBroadcaster struct {
	events   []string
	payloads []interface{}
	err      error
}

func (f *fakeBroadcaster) Broadcast(event string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakePublisher struct {
	queues   []string
	payloads []interface{}
	err      error
}

func (f *fakePublisher) Publish(queueName string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.queues = append(f.queues, queueName)
	f.payloads = append(f.payloads, payload)
	return nil
}

func newTestManager() (*Manager, *store.MemoryStore, *fakeBroadcaster, *fakePublisher) {
	s := store.NewMemoryStore()
	b := &fakeBroadcaster{}
	p := &fakePublisher{}
	return NewManager(s, b, p), s, b, p
}

func mustCreate(t *testing.T, m *Manager, farmer, location, pest string) *models.Report {
	t.Helper()
	report, err := m.Create(context.Background(), farmer, location, pest, "swarm seen", "img1.jpg")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return report
}

func TestCreateSetsPendingStatusAndID(t *testing.T) {
	m, _, _, _ := newTestManager()

	report, err := m.Create(context.Background(), "Asha", "Field 7", "Locust", "swarm seen", "img1.jpg")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if report.Status != models.StatusPending {
		t.Errorf("status = %q, want %q", report.Status, models.StatusPending)
	}
	if report.ID.IsZero() {
		t.Error("report id was not assigned")
	}
	if report.CreatedAt.IsZero() {
		t.Error("creation timestamp was not set")
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	m, s, _, _ := newTestManager()

	cases := []struct {
		name                                       string
		farmer, location, pest, description, image string
	}{
		{"missing farmer name", "", "Field 7", "Locust", "swarm", "img1.jpg"},
		{"missing location", "Asha", "", "Locust", "swarm", "img1.jpg"},
		{"missing pest type", "Asha", "Field 7", "", "swarm", "img1.jpg"},
		{"missing description", "Asha", "Field 7", "Locust", "", "img1.jpg"},
		{"missing image", "Asha", "Field 7", "Locust", "swarm", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Create(context.Background(), tc.farmer, tc.location, tc.pest, tc.description, tc.image)
			if !IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	if all, _ := s.FindAll(context.Background()); len(all) != 0 {
		t.Errorf("invalid submissions were persisted: %d reports", len(all))
	}
}

func TestCreatePublishesIntakeEvent(t *testing.T) {
	m, _, _, p := newTestManager()

	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	if len(p.queues) != 1 || p.queues[0] != IntakeQueue {
		t.Fatalf("intake event queues = %v, want [%s]", p.queues, IntakeQueue)
	}
	event, ok := p.payloads[0].(models.ReportEvent)
	if !ok {
		t.Fatalf("payload type = %T, want models.ReportEvent", p.payloads[0])
	}
	if event.ID != report.ID.Hex() || event.PestType != "Locust" {
		t.Errorf("intake event = %+v does not match report", event)
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	s := store.NewMemoryStore()
	m := NewManager(s, &fakeBroadcaster{}, &fakePublisher{err: errors.New("amqp down")})

	report, err := m.Create(context.Background(), "Asha", "Field 7", "Locust", "swarm seen", "img1.jpg")
	if err != nil {
		t.Fatalf("Create failed despite save succeeding: %v", err)
	}
	if report.Status != models.StatusPending {
		t.Errorf("status = %q, want %q", report.Status, models.StatusPending)
	}
}

func TestResolveAndAlertScenario(t *testing.T) {
	m, _, b, _ := newTestManager()
	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	updated, event, err := m.ResolveAndAlert(context.Background(), report.ID.Hex(), "Spray immediately", models.SeverityHigh, "")
	if err != nil {
		t.Fatalf("ResolveAndAlert failed: %v", err)
	}

	if updated.Status != models.StatusResolved {
		t.Errorf("status = %q, want %q", updated.Status, models.StatusResolved)
	}
	if event.ReportID != report.ID.Hex() {
		t.Errorf("event reportId = %q, want %q", event.ReportID, report.ID.Hex())
	}
	if event.PestType != "Locust" || event.Severity != models.SeverityHigh || event.AlertMessage != "Spray immediately" {
		t.Errorf("event = %+v has wrong denormalized fields", event)
	}
	if event.ImageURL != "img1.jpg" {
		t.Errorf("event image = %q, want report's own image", event.ImageURL)
	}

	if len(b.events) != 1 || b.events[0] != "new_alert" {
		t.Fatalf("broadcast events = %v, want one new_alert", b.events)
	}
	if got := b.payloads[0].(models.AlertEvent); got.ReportID != report.ID.Hex() {
		t.Errorf("broadcast payload = %+v does not match report", got)
	}
}

func TestResolveAndAlertImageOverride(t *testing.T) {
	m, _, _, _ := newTestManager()
	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	_, event, err := m.ResolveAndAlert(context.Background(), report.ID.Hex(), "Spray immediately", models.SeverityMedium, "override.jpg")
	if err != nil {
		t.Fatalf("ResolveAndAlert failed: %v", err)
	}
	if event.ImageURL != "override.jpg" {
		t.Errorf("event image = %q, want override", event.ImageURL)
	}
}

func TestResolveAndAlertWithoutSubscriptionChannel(t *testing.T) {
	s := store.NewMemoryStore()
	m := NewManager(s, nil, nil)

	report, err := m.Create(context.Background(), "Asha", "Field 7", "Locust", "swarm seen", "img1.jpg")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, event, err := m.ResolveAndAlert(context.Background(), report.ID.Hex(), "Spray immediately", models.SeverityHigh, "")
	if err != nil {
		t.Fatalf("resolve must succeed even with no channel: %v", err)
	}
	if updated.Status != models.StatusResolved {
		t.Errorf("status = %q, want %q", updated.Status, models.StatusResolved)
	}
	if event == nil || event.ReportID != report.ID.Hex() {
		t.Errorf("alert event missing or mismatched: %+v", event)
	}
}

func TestResolveAndAlertSurvivesBroadcastFailure(t *testing.T) {
	s := store.NewMemoryStore()
	m := NewManager(s, &fakeBroadcaster{err: errors.New("channel closed")}, nil)

	report, _ := m.Create(context.Background(), "Asha", "Field 7", "Locust", "swarm seen", "img1.jpg")

	updated, _, err := m.ResolveAndAlert(context.Background(), report.ID.Hex(), "Spray immediately", models.SeverityLow, "")
	if err != nil {
		t.Fatalf("resolve failed on broadcast error: %v", err)
	}
	if updated.Status != models.StatusResolved {
		t.Errorf("status = %q, want %q", updated.Status, models.StatusResolved)
	}
}

func TestResolveAndAlertValidation(t *testing.T) {
	m, _, b, _ := newTestManager()
	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	cases := []struct {
		name     string
		message  string
		severity string
	}{
		{"empty message", "", models.SeverityHigh},
		{"unknown severity", "Spray immediately", "Catastrophic"},
		{"empty severity", "Spray immediately", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := m.ResolveAndAlert(context.Background(), report.ID.Hex(), tc.message, tc.severity, "")
			if !IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	if len(b.events) != 0 {
		t.Errorf("invalid requests broadcast %d events", len(b.events))
	}
	if got, _ := m.Get(context.Background(), report.ID.Hex()); got.Status != models.StatusPending {
		t.Errorf("status mutated to %q by invalid request", got.Status)
	}
}

func TestResolveAndAlertUnknownID(t *testing.T) {
	m, _, b, _ := newTestManager()

	_, _, err := m.ResolveAndAlert(context.Background(), "64f000000000000000000000", "Spray immediately", models.SeverityHigh, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(b.events) != 0 {
		t.Errorf("broadcast happened for unknown report")
	}
}

func TestRejectTransitionsStatus(t *testing.T) {
	m, _, _, _ := newTestManager()
	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	updated, err := m.Reject(context.Background(), report.ID.Hex())
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if updated.Status != models.StatusRejected {
		t.Errorf("status = %q, want %q", updated.Status, models.StatusRejected)
	}
}

func TestRejectUnknownIDPerformsNoMutation(t *testing.T) {
	m, s, _, _ := newTestManager()
	mustCreate(t, m, "Asha", "Field 7", "Locust")

	before, _ := s.FindAll(context.Background())

	_, err := m.Reject(context.Background(), "64f000000000000000000000")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	after, _ := s.FindAll(context.Background())
	if !reflect.DeepEqual(before, after) {
		t.Error("store mutated by failed reject")
	}
}

func TestSetStatusValidatesEnum(t *testing.T) {
	m, _, _, _ := newTestManager()
	report := mustCreate(t, m, "Asha", "Field 7", "Locust")

	if _, err := m.SetStatus(context.Background(), report.ID.Hex(), "Escalated"); !IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	updated, err := m.SetStatus(context.Background(), report.ID.Hex(), models.StatusRejected)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Status != models.StatusRejected {
		t.Errorf("status = %q, want %q", updated.Status, models.StatusRejected)
	}
}

func TestListForReporterFiltersAndOrders(t *testing.T) {
	m, _, _, _ := newTestManager()

	first := mustCreate(t, m, "Asha", "Field 7", "Locust")
	mustCreate(t, m, "Binta", "Field 2", "Aphid")
	second := mustCreate(t, m, "Asha", "Field 9", "Armyworm")

	reports, err := m.ListForReporter(context.Background(), "Asha")
	if err != nil {
		t.Fatalf("ListForReporter failed: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("len = %d, want 2", len(reports))
	}
	for _, r := range reports {
		if r.FarmerName != "Asha" {
			t.Errorf("foreign report %s leaked into listing", r.ID.Hex())
		}
	}
	if reports[0].ID != second.ID || reports[1].ID != first.ID {
		t.Error("reports not in descending creation order")
	}
}

func TestListAllIsIdempotent(t *testing.T) {
	m, _, _, _ := newTestManager()
	mustCreate(t, m, "Asha", "Field 7", "Locust")
	mustCreate(t, m, "Binta", "Field 2", "Aphid")

	first, err := m.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	second, err := m.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two reads with no writes returned different sequences")
	}
}

func TestPendingCount(t *testing.T) {
	m, _, _, _ := newTestManager()

	a := mustCreate(t, m, "Asha", "Field 7", "Locust")
	mustCreate(t, m, "Binta", "Field 2", "Aphid")

	if _, err := m.Reject(context.Background(), a.ID.Hex()); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	n, err := m.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}
