package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
)

func TestMemoryRepo_AppendAndQueryNewestFirst(t *testing.T) {
	repo := NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		hr := float64(70 + i)
		_, err := repo.Append(ctx, &domain.VitalSigns{
			PatientID:  "p1",
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			HeartRate:  &hr,
		})
		require.NoError(t, err)
	}

	records, err := repo.QueryByPatient(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 72.0, *records[0].HeartRate)
	assert.Equal(t, 71.0, *records[1].HeartRate)
	assert.Equal(t, 70.0, *records[2].HeartRate)
}

func TestMemoryRepo_TiesBreakByInsertionOrder(t *testing.T) {
	repo := NewMemoryVitalsRepo()
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first, err := repo.Append(ctx, &domain.VitalSigns{PatientID: "p1", ReceivedAt: ts})
	require.NoError(t, err)
	second, err := repo.Append(ctx, &domain.VitalSigns{PatientID: "p1", ReceivedAt: ts})
	require.NoError(t, err)

	records, err := repo.QueryByPatient(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Same received_at: the later insert comes first
	assert.Equal(t, second, records[0].ID)
	assert.Equal(t, first, records[1].ID)
}

func TestMemoryRepo_FiltersByPatient(t *testing.T) {
	repo := NewMemoryVitalsRepo()
	ctx := context.Background()

	_, err := repo.Append(ctx, &domain.VitalSigns{PatientID: "p1", ReceivedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Append(ctx, &domain.VitalSigns{PatientID: "p2", ReceivedAt: time.Now()})
	require.NoError(t, err)

	records, err := repo.QueryByPatient(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].PatientID)

	records, err = repo.QueryByPatient(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryRepo_LimitClamp(t *testing.T) {
	repo := NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxHistoryLimit+50; i++ {
		_, err := repo.Append(ctx, &domain.VitalSigns{
			PatientID:  "p1",
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	records, err := repo.QueryByPatient(ctx, "p1", 1000)
	require.NoError(t, err)
	assert.Len(t, records, MaxHistoryLimit)

	records, err = repo.QueryByPatient(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultHistoryLimit)
}

func TestMemoryRepo_ConcurrentAppends(t *testing.T) {
	repo := NewMemoryVitalsRepo()
	ctx := context.Background()

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				_, _ = repo.Append(ctx, &domain.VitalSigns{
					PatientID:  fmt.Sprintf("p%d", g),
					ReceivedAt: time.Now(),
				})
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	for g := 0; g < 4; g++ {
		assert.Equal(t, 100, repo.Count(fmt.Sprintf("p%d", g)))
	}
}
