package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
)

// PostgresVitalsRepository 持久化 vitals 历史（append-only）
type PostgresVitalsRepository struct {
	db *sql.DB
}

// NewPostgresVitalsRepository 创建 vitals 历史 Repository
func NewPostgresVitalsRepository(db *sql.DB) *PostgresVitalsRepository {
	return &PostgresVitalsRepository{db: db}
}

var _ VitalsRepository = (*PostgresVitalsRepository)(nil)

// EnsureSchema creates the history table and its indexes on startup.
// patient_id and received_at are indexed for the descending range scan
// the history endpoint performs.
func (r *PostgresVitalsRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vital_records (
			id             BIGSERIAL PRIMARY KEY,
			patient_id     TEXT NOT NULL,
			received_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			alert_level    TEXT,
			critical       BOOLEAN NOT NULL DEFAULT FALSE,
			heart_rate     DOUBLE PRECISION,
			spo2           DOUBLE PRECISION,
			temperature    DOUBLE PRECISION,
			ecg_heart_rate DOUBLE PRECISION,
			battery        DOUBLE PRECISION,
			rssi           DOUBLE PRECISION,
			fall_detected  BOOLEAN,
			lead_off       BOOLEAN,
			ecg_quality    TEXT,
			mqtt_topic     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vital_records_patient_id ON vital_records (patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vital_records_received_at ON vital_records (received_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure vital_records schema: %w", err)
		}
	}
	return nil
}

// Append inserts one history row and returns the assigned id.
func (r *PostgresVitalsRepository) Append(ctx context.Context, v *domain.VitalSigns) (int64, error) {
	query := `
		INSERT INTO vital_records (
			patient_id, received_at, alert_level, critical,
			heart_rate, spo2, temperature, ecg_heart_rate, battery, rssi,
			fall_detected, lead_off, ecg_quality, mqtt_topic
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		v.PatientID, v.ReceivedAt, v.AlertLevel, v.Critical,
		v.HeartRate, v.SpO2, v.Temperature, v.ECGHeartRate, v.Battery, v.RSSI,
		v.FallDetected, v.LeadOff, v.ECGQuality, v.SourceTopic,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append vital record: %w", err)
	}
	return id, nil
}

// QueryByPatient returns up to ClampLimit(limit) records, newest first.
// Ties on received_at resolve by insertion order (id descending).
func (r *PostgresVitalsRepository) QueryByPatient(ctx context.Context, patientID string, limit int) ([]domain.VitalRecord, error) {
	query := `
		SELECT id, patient_id, received_at, alert_level, critical,
		       heart_rate, spo2, temperature, ecg_heart_rate, battery, rssi,
		       fall_detected, lead_off, ecg_quality, mqtt_topic
		FROM vital_records
		WHERE patient_id = $1
		ORDER BY received_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, patientID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query vital records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.VitalRecord, 0)
	for rows.Next() {
		var rec domain.VitalRecord
		var alertLevel, ecgQuality sql.NullString
		var heartRate, spo2, temperature, ecgHeartRate, battery, rssi sql.NullFloat64
		var fallDetected, leadOff sql.NullBool

		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.ReceivedAt, &alertLevel, &rec.Critical,
			&heartRate, &spo2, &temperature, &ecgHeartRate, &battery, &rssi,
			&fallDetected, &leadOff, &ecgQuality, &rec.SourceTopic,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vital record: %w", err)
		}

		rec.AlertLevel = nullableString(alertLevel)
		rec.ECGQuality = nullableString(ecgQuality)
		rec.HeartRate = nullableFloat(heartRate)
		rec.SpO2 = nullableFloat(spo2)
		rec.Temperature = nullableFloat(temperature)
		rec.ECGHeartRate = nullableFloat(ecgHeartRate)
		rec.Battery = nullableFloat(battery)
		rec.RSSI = nullableFloat(rssi)
		rec.FallDetected = nullableBool(fallDetected)
		rec.LeadOff = nullableBool(leadOff)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vital records: %w", err)
	}
	return records, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullableBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
