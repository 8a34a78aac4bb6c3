package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pest-alert-system/services/api/models"
)

// MemoryStore is an in-memory ReportStore used by tests and local
// experiments. It mirrors the Mongo adapter's semantics, including
// newest-first ordering and the ErrNotFound/ErrInvalidID contract.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []models.Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	s.reports = append(s.reports, *report)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Report, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.reports {
		if s.reports[i].ID.Hex() == id {
			report := s.reports[i]
			return &report, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindAll(_ context.Context) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(models.Report) bool { return true }), nil
}

func (s *MemoryStore) FindByFarmer(_ context.Context, farmerName string) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(r models.Report) bool { return r.FarmerName == farmerName }), nil
}

// newestFirst copies matching reports in descending creation-time order,
// breaking timestamp ties by most recent insertion. Callers hold the lock.
func (s *MemoryStore) newestFirst(match func(models.Report) bool) []models.Report {
	out := []models.Report{}
	for i := len(s.reports) - 1; i >= 0; i-- {
		if match(s.reports[i]) {
			out = append(out, s.reports[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status string) (*models.Report, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reports {
		if s.reports[i].ID.Hex() == id {
			s.reports[i].Status = status
			s.reports[i].UpdatedAt = time.Now()
			report := s.reports[i]
			return &report, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CountByStatus(_ context.Context, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.reports {
		if s.reports[i].Status == status {
			n++
		}
	}
	return n, nil
}
