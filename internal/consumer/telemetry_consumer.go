package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zafarb-21/rpm-web-dashboard/internal/cache"
	"github.com/zafarb-21/rpm-web-dashboard/internal/config"
	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
	"github.com/zafarb-21/rpm-web-dashboard/internal/normalizer"
	"github.com/zafarb-21/rpm-web-dashboard/internal/repository"
	"github.com/zafarb-21/rpm-web-dashboard/internal/stream"
)

// TelemetryConsumer routes every received broker message by topic:
// vitals-class messages are normalized, cached and appended to history
// (plus optional stream fan-out); ECG-class messages are cached with
// defaults only; anything else is dropped. All per-message faults stay
// inside HandleMessage — a bad message never stops the receive loop.
type TelemetryConsumer struct {
	config      *config.MQTTConfig
	vitalsCache *cache.Latest[*domain.VitalSigns]
	ecgCache    *cache.Latest[map[string]interface{}]
	vitalsRepo  repository.VitalsRepository
	publisher   stream.Publisher
	logger      *zap.Logger
}

// NewTelemetryConsumer 创建遥测消费者。publisher 可为 nil（fan-out 关闭）。
func NewTelemetryConsumer(
	cfg *config.MQTTConfig,
	vitalsCache *cache.Latest[*domain.VitalSigns],
	ecgCache *cache.Latest[map[string]interface{}],
	vitalsRepo repository.VitalsRepository,
	publisher stream.Publisher,
	logger *zap.Logger,
) *TelemetryConsumer {
	return &TelemetryConsumer{
		config:      cfg,
		vitalsCache: vitalsCache,
		ecgCache:    ecgCache,
		vitalsRepo:  vitalsRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// HandleMessage processes one raw broker message. Satisfies
// mqtt.MessageHandler.
func (c *TelemetryConsumer) HandleMessage(topic string, payload []byte) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		c.logger.Warn("Dropping undecodable payload",
			zap.String("topic", topic),
			zap.Int("payload_size", len(payload)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to decode payload on %s: %w", topic, err)
	}

	now := time.Now().UTC()

	switch topic {
	case c.config.VitalsTopic:
		c.handleVitals(doc, topic, now)
	case c.config.ECGTopic:
		c.handleECG(doc, topic, now)
	default:
		c.logger.Debug("Received on unhandled topic", zap.String("topic", topic))
	}
	return nil
}

func (c *TelemetryConsumer) handleVitals(doc map[string]interface{}, topic string, now time.Time) {
	v := normalizer.Normalize(doc, topic, now)

	// Cache first: the latest view stays correct even when the durable
	// write below fails (eventual-consistency gap, accepted).
	c.vitalsCache.Upsert(v.PatientID, v)

	if _, err := c.vitalsRepo.Append(context.Background(), v); err != nil {
		c.logger.Error("Failed to persist vital record",
			zap.String("patient_id", v.PatientID),
			zap.Error(err),
		)
	}

	if c.publisher != nil {
		if _, err := c.publisher.PublishJSON(context.Background(), v); err != nil {
			c.logger.Warn("Failed to publish vitals to stream",
				zap.String("patient_id", v.PatientID),
				zap.Error(err),
			)
		}
	}

	c.logger.Debug("Updated latest vitals",
		zap.String("topic", topic),
		zap.String("patient_id", v.PatientID),
	)
}

func (c *TelemetryConsumer) handleECG(doc map[string]interface{}, topic string, now time.Time) {
	enriched, pid := normalizer.EnrichECG(doc, topic, now)
	c.ecgCache.Upsert(pid, enriched)

	c.logger.Debug("Updated latest ECG",
		zap.String("topic", topic),
		zap.String("patient_id", pid),
	)
}
