package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.MQTT.Port != 8883 {
		t.Errorf("Expected MQTT_PORT default 8883, got %d", cfg.MQTT.Port)
	}

	if !cfg.MQTT.TLS {
		t.Errorf("Expected MQTT_TLS default true")
	}

	if len(cfg.MQTT.Topics) != 1 || cfg.MQTT.Topics[0] != "patient/vitals" {
		t.Errorf("Expected default topics [patient/vitals], got %v", cfg.MQTT.Topics)
	}

	if cfg.MQTT.VitalsTopic != "patient/vitals" {
		t.Errorf("Expected VITALS_TOPIC default 'patient/vitals', got '%s'", cfg.MQTT.VitalsTopic)
	}

	if cfg.MQTT.ECGTopic != "patient/ecg_stream" {
		t.Errorf("Expected ECG_TOPIC default 'patient/ecg_stream', got '%s'", cfg.MQTT.ECGTopic)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if !cfg.DBEnabled {
		t.Errorf("Expected DB_ENABLED default true")
	}

	if cfg.RedisEnabled {
		t.Errorf("Expected REDIS_ENABLED default false")
	}

	if cfg.HTTP.Addr != ":8000" {
		t.Errorf("Expected HTTP_ADDR default ':8000', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_TopicsList(t *testing.T) {
	os.Clearenv()
	os.Setenv("MQTT_TOPICS", "patient/vitals, patient/ecg_stream ,")
	defer os.Unsetenv("MQTT_TOPICS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(cfg.MQTT.Topics) != 2 {
		t.Fatalf("Expected 2 topics, got %v", cfg.MQTT.Topics)
	}

	if cfg.MQTT.Topics[0] != "patient/vitals" || cfg.MQTT.Topics[1] != "patient/ecg_stream" {
		t.Errorf("Unexpected topics: %v", cfg.MQTT.Topics)
	}
}

func TestLoad_LegacySingleTopic(t *testing.T) {
	os.Clearenv()
	os.Setenv("MQTT_TOPIC", "legacy/topic")
	defer os.Unsetenv("MQTT_TOPIC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(cfg.MQTT.Topics) != 1 || cfg.MQTT.Topics[0] != "legacy/topic" {
		t.Errorf("Expected topics [legacy/topic], got %v", cfg.MQTT.Topics)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("MQTT_HOST", "broker.example.com")
	os.Setenv("MQTT_USERNAME", "device-reader")
	os.Setenv("MQTT_PASSWORD", "secret")
	os.Setenv("MQTT_TLS", "false")
	os.Setenv("MQTT_PORT", "1883")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("MQTT_HOST")
		os.Unsetenv("MQTT_USERNAME")
		os.Unsetenv("MQTT_PASSWORD")
		os.Unsetenv("MQTT_TLS")
		os.Unsetenv("MQTT_PORT")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.MQTT.Host != "broker.example.com" {
		t.Errorf("Expected MQTT_HOST 'broker.example.com', got '%s'", cfg.MQTT.Host)
	}

	if !cfg.MQTT.HasCredentials() {
		t.Errorf("Expected HasCredentials true with host/username/password set")
	}

	if cfg.MQTT.BrokerURL() != "tcp://broker.example.com:1883" {
		t.Errorf("Unexpected broker URL: %s", cfg.MQTT.BrokerURL())
	}

	if cfg.Database.Database != "test-db" {
		t.Errorf("Expected DB_NAME 'test-db', got '%s'", cfg.Database.Database)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestBrokerURL_TLS(t *testing.T) {
	cfg := &MQTTConfig{Host: "broker.example.com", Port: 8883, TLS: true}

	if cfg.BrokerURL() != "ssl://broker.example.com:8883" {
		t.Errorf("Unexpected broker URL: %s", cfg.BrokerURL())
	}
}

func TestHasCredentials_MissingPassword(t *testing.T) {
	cfg := &MQTTConfig{Host: "broker.example.com", Username: "user"}

	if cfg.HasCredentials() {
		t.Errorf("Expected HasCredentials false without password")
	}
}
