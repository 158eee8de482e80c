package normalizer

import (
	"time"

	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
)

// Known payload groups hoisted into the flat shape. Devices nest vital
// readings under "vitals", motion events under "activity" and radio/power
// diagnostics under "system".
const (
	groupVitals   = "vitals"
	groupActivity = "activity"
	groupSystem   = "system"
)

// SentinelPatientID is stored when a payload carries no patient identifier
const SentinelPatientID = "unknown"

// Normalize flattens a decoded telemetry document into a VitalSigns.
// Missing or ill-typed fields come out nil rather than failing the
// message; only the raw JSON decode (done by the caller) can reject a
// payload.
func Normalize(doc map[string]interface{}, topic string, now time.Time) *domain.VitalSigns {
	v := &domain.VitalSigns{
		PatientID:   patientID(doc),
		ReceivedAt:  receivedAt(doc, now),
		Critical:    boolValue(doc, "critical"),
		SourceTopic: topic,
	}

	v.AlertLevel = stringField(doc, "", "alert_level")

	v.HeartRate = numberField(doc, groupVitals, "heart_rate")
	v.SpO2 = numberField(doc, groupVitals, "spo2")
	v.Temperature = numberField(doc, groupVitals, "temperature")
	v.ECGHeartRate = numberField(doc, groupVitals, "ecg_heart_rate")
	v.Battery = numberField(doc, groupVitals, "battery")
	v.ECGQuality = stringField(doc, groupVitals, "ecg_quality")
	v.LeadOff = boolField(doc, groupVitals, "lead_off")

	v.FallDetected = boolField(doc, groupActivity, "fall_detected")

	v.RSSI = numberField(doc, groupSystem, "rssi")

	return v
}

// EnrichECG is the minimal normalization applied to ECG stream payloads:
// the document is stored as-is with only patient_id, received_at and
// mqtt_topic defaulted. Returns the patient identifier used as cache key.
func EnrichECG(doc map[string]interface{}, topic string, now time.Time) (map[string]interface{}, string) {
	pid := patientID(doc)
	doc["patient_id"] = pid
	if _, ok := doc["received_at"]; !ok {
		doc["received_at"] = now.UTC().Format(time.RFC3339Nano)
	}
	if _, ok := doc["mqtt_topic"]; !ok {
		doc["mqtt_topic"] = topic
	}
	return doc, pid
}

func patientID(doc map[string]interface{}) string {
	if s, ok := doc["patient_id"].(string); ok && s != "" {
		return s
	}
	// Legacy firmware publishes the key in upper case
	if s, ok := doc["PATIENT_ID"].(string); ok && s != "" {
		return s
	}
	return SentinelPatientID
}

func receivedAt(doc map[string]interface{}, now time.Time) time.Time {
	if s, ok := doc["received_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
	}
	return now.UTC()
}

// lookup finds key in the named group sub-document, falling back to the
// top level so already-flat payloads still normalize.
func lookup(doc map[string]interface{}, group, key string) (interface{}, bool) {
	if group != "" {
		if sub, ok := doc[group].(map[string]interface{}); ok {
			if v, ok := sub[key]; ok {
				return v, true
			}
		}
	}
	v, ok := doc[key]
	return v, ok
}

func numberField(doc map[string]interface{}, group, key string) *float64 {
	v, ok := lookup(doc, group, key)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func stringField(doc map[string]interface{}, group, key string) *string {
	v, ok := lookup(doc, group, key)
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func boolField(doc map[string]interface{}, group, key string) *bool {
	v, ok := lookup(doc, group, key)
	if !ok {
		return nil
	}
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func boolValue(doc map[string]interface{}, key string) bool {
	b, _ := doc[key].(bool)
	return b
}
