package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"pest-alert-system/services/api/models"
)

func insertAt(t *testing.T, s *MemoryStore, farmer string, created time.Time) models.Report {
	t.Helper()
	report := models.Report{
		FarmerName:  farmer,
		Location:    "Field 7",
		PestType:    "Locust",
		Description: "swarm seen",
		ImageURL:    "img1.jpg",
		Status:      models.StatusPending,
		CreatedAt:   created,
	}
	if err := s.Insert(context.Background(), &report); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return report
}

func TestMemoryStoreOrdering(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	old := insertAt(t, s, "Asha", base)
	newest := insertAt(t, s, "Asha", base.Add(2*time.Hour))
	middle := insertAt(t, s, "Asha", base.Add(time.Hour))

	reports, err := s.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}

	want := []string{newest.ID.Hex(), middle.ID.Hex(), old.ID.Hex()}
	if len(reports) != 3 {
		t.Fatalf("len = %d, want 3", len(reports))
	}
	for i, id := range want {
		if reports[i].ID.Hex() != id {
			t.Errorf("position %d = %s, want %s", i, reports[i].ID.Hex(), id)
		}
	}
}

func TestMemoryStoreInvalidID(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.FindByID(context.Background(), "not-hex"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("FindByID err = %v, want ErrInvalidID", err)
	}
	if _, err := s.UpdateStatus(context.Background(), "not-hex", models.StatusRejected); !errors.Is(err, ErrInvalidID) {
		t.Errorf("UpdateStatus err = %v, want ErrInvalidID", err)
	}
}

func TestMemoryStoreUpdateStatusIsVisible(t *testing.T) {
	s := NewMemoryStore()
	report := insertAt(t, s, "Asha", time.Now())

	updated, err := s.UpdateStatus(context.Background(), report.ID.Hex(), models.StatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusResolved {
		t.Errorf("returned status = %q, want Resolved", updated.Status)
	}

	got, err := s.FindByID(context.Background(), report.ID.Hex())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != models.StatusResolved {
		t.Errorf("persisted status = %q, want Resolved", got.Status)
	}

	n, _ := s.CountByStatus(context.Background(), models.StatusPending)
	if n != 0 {
		t.Errorf("pending count = %d, want 0", n)
	}
}
