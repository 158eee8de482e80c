package domain

import "time"

// VitalSigns is the flat, normalized form of one telemetry message.
// Devices publish nested payloads (vitals/activity/system groups); the
// normalizer hoists the known groups into this shape. Optional fields are
// pointers so a value absent from the payload stays null downstream.
type VitalSigns struct {
	PatientID  string    `json:"patient_id"`
	ReceivedAt time.Time `json:"received_at"`

	AlertLevel *string `json:"alert_level"`
	Critical   bool    `json:"critical"`

	HeartRate    *float64 `json:"heart_rate"`
	SpO2         *float64 `json:"spo2"`
	Temperature  *float64 `json:"temperature"`
	ECGHeartRate *float64 `json:"ecg_heart_rate"`
	Battery      *float64 `json:"battery"`
	RSSI         *float64 `json:"rssi"`

	FallDetected *bool   `json:"fall_detected"`
	LeadOff      *bool   `json:"lead_off"`
	ECGQuality   *string `json:"ecg_quality"`

	SourceTopic string `json:"mqtt_topic"`
}

// VitalRecord is one persisted history row. Rows are append-only: the ID
// is assigned by the store on insert and the record is never updated.
type VitalRecord struct {
	ID int64 `json:"-"`
	VitalSigns
}
