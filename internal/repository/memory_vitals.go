package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
)

// MemoryVitalsRepo: in-memory history store used when the DB is not
// reachable at startup (the service keeps ingesting and serving instead of
// crashing) and as the test double. Same ordering and clamp contract as
// the Postgres implementation.
type MemoryVitalsRepo struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.VitalRecord
}

func NewMemoryVitalsRepo() *MemoryVitalsRepo {
	return &MemoryVitalsRepo{nextID: 1}
}

var _ VitalsRepository = (*MemoryVitalsRepo)(nil)

func (r *MemoryVitalsRepo) Append(_ context.Context, v *domain.VitalSigns) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.records = append(r.records, domain.VitalRecord{ID: id, VitalSigns: *v})
	return id, nil
}

func (r *MemoryVitalsRepo) QueryByPatient(_ context.Context, patientID string, limit int) ([]domain.VitalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.VitalRecord, 0)
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			matched = append(matched, rec)
		}
	}

	// Newest first, insertion order breaks received_at ties
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].ReceivedAt.Equal(matched[j].ReceivedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})

	if n := ClampLimit(limit); len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}

// Count reports the number of stored records for a patient (test helper).
func (r *MemoryVitalsRepo) Count(patientID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			n++
		}
	}
	return n
}
