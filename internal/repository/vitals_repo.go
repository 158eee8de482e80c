package repository

import (
	"context"

	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
)

const (
	// MaxHistoryLimit is the hard ceiling for one history query
	MaxHistoryLimit = 500
	// DefaultHistoryLimit applies when the caller passes no usable limit
	DefaultHistoryLimit = 100
)

// ClampLimit normalizes a requested history page size: non-positive
// values fall back to the default, anything above the ceiling is cut to it.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// VitalsRepository is the append-only history store for accepted vitals
// messages. Records are immutable once written; QueryByPatient returns
// them newest-first (received_at descending, insertion order breaking ties).
type VitalsRepository interface {
	Append(ctx context.Context, v *domain.VitalSigns) (int64, error)
	QueryByPatient(ctx context.Context, patientID string, limit int) ([]domain.VitalRecord, error)
}
