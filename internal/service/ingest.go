package service

import (
	"context"
	"database/sql"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/zafarb-21/rpm-web-dashboard/internal/cache"
	"github.com/zafarb-21/rpm-web-dashboard/internal/config"
	"github.com/zafarb-21/rpm-web-dashboard/internal/consumer"
	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
	"github.com/zafarb-21/rpm-web-dashboard/internal/mqtt"
	"github.com/zafarb-21/rpm-web-dashboard/internal/repository"
	"github.com/zafarb-21/rpm-web-dashboard/internal/stream"
)

// IngestService owns the ingestion side of the backend: broker
// subscription, latest-state caches and the history store. The query
// handlers read the same stores concurrently; shutdown of the subscriber
// does not affect them.
//
// Startup degrades instead of crashing: missing broker credentials skip
// the subscriber (queries still work, caches stay empty), an unreachable
// database falls back to the in-memory history store.
type IngestService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	VitalsCache *cache.Latest[*domain.VitalSigns]
	ECGCache    *cache.Latest[map[string]interface{}]
	VitalsRepo  repository.VitalsRepository
}

// NewIngestService 创建采集服务并装配全部依赖
func NewIngestService(cfg *config.Config, logger *zap.Logger) *IngestService {
	s := &IngestService{
		config:      cfg,
		logger:      logger,
		VitalsCache: cache.NewLatest[*domain.VitalSigns](),
		ECGCache:    cache.NewLatest[map[string]interface{}](),
	}

	s.VitalsRepo = s.buildRepository()

	var publisher stream.Publisher
	if cfg.RedisEnabled {
		publisher = s.buildPublisher()
	}

	telemetry := consumer.NewTelemetryConsumer(
		&cfg.MQTT, s.VitalsCache, s.ECGCache, s.VitalsRepo, publisher, logger,
	)

	if cfg.MQTT.HasCredentials() {
		s.mqttClient = mqtt.NewClient(&cfg.MQTT, telemetry.HandleMessage, logger)
	}

	return s
}

// buildRepository prefers Postgres and falls back to memory when the DB
// is disabled or unreachable.
func (s *IngestService) buildRepository() repository.VitalsRepository {
	if !s.config.DBEnabled {
		s.logger.Info("DB disabled, using in-memory history store")
		return repository.NewMemoryVitalsRepo()
	}

	db, err := repository.NewPostgresDB(&s.config.Database)
	if err != nil {
		s.logger.Warn("DB unreachable, falling back to in-memory history store", zap.Error(err))
		return repository.NewMemoryVitalsRepo()
	}

	repo := repository.NewPostgresVitalsRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		s.logger.Warn("Schema setup failed, falling back to in-memory history store", zap.Error(err))
		db.Close()
		return repository.NewMemoryVitalsRepo()
	}

	s.db = db
	s.logger.Info("Vitals history persisted to Postgres",
		zap.String("database", s.config.Database.Database),
	)
	return repo
}

func (s *IngestService) buildPublisher() stream.Publisher {
	client := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		s.logger.Warn("Redis unreachable, stream fan-out disabled", zap.Error(err))
		client.Close()
		return nil
	}

	s.redisClient = client
	s.logger.Info("Vitals fan-out to Redis Streams enabled",
		zap.String("stream", s.config.VitalsStream),
	)
	return stream.NewRedisStreamPublisher(client, s.config.VitalsStream)
}

// Start begins the broker subscription. Returns immediately; connecting
// and reconnecting happen in the background.
func (s *IngestService) Start(_ context.Context) error {
	if s.mqttClient == nil {
		// Deliberate degrade: queries keep working, caches never populate
		s.logger.Warn("MQTT credentials missing, subscriber will NOT start")
		return nil
	}

	s.mqttClient.Start()
	s.logger.Info("MQTT subscriber starting",
		zap.String("broker", s.config.MQTT.BrokerURL()),
		zap.Strings("topics", s.config.MQTT.Topics),
	)
	return nil
}

// Stop disconnects the subscriber first — after it returns no further
// messages reach the router — then releases storage connections.
func (s *IngestService) Stop(_ context.Context) error {
	if s.mqttClient != nil {
		s.mqttClient.Stop()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Error closing database", zap.Error(err))
		}
	}

	s.logger.Info("Ingest service stopped")
	return nil
}
