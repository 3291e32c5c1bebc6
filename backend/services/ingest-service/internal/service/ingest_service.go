package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
)

// ErrStore wraps persistence failures so callers can tell them from bad input.
var ErrStore = errors.New("ingest: store reading")

// Publisher announces stored readings to live consumers.
type Publisher interface {
	Publish(ctx context.Context, r readings.Reading) error
}

// IngestService validates device payloads and persists them.
type IngestService struct {
	store     readings.Store
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewIngestService returns service instance. publisher may be nil.
func NewIngestService(store readings.Store, publisher Publisher, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Ingest parses body, stamps it with the receive time and stores it.
func (s *IngestService) Ingest(ctx context.Context, body []byte) (readings.Reading, error) {
	reading, err := readings.ParsePayload(body, s.now())
	if err != nil {
		return readings.Reading{}, err
	}

	if err := s.store.Put(ctx, reading); err != nil {
		return readings.Reading{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.logger.Info("reading stored",
		zap.String("device_id", reading.DeviceID),
		zap.Int64("timestamp", reading.Timestamp),
		zap.Strings("metrics", reading.Metrics()),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, reading); err != nil {
			s.logger.Warn("failed to publish reading", zap.String("device_id", reading.DeviceID), zap.Error(err))
		}
	}
	return reading, nil
}

// IsInputError reports whether err was caused by the payload rather than the backend.
func IsInputError(err error) bool {
	return errors.Is(err, readings.ErrMalformed) ||
		errors.Is(err, readings.ErrNoSensorData) ||
		errors.Is(err, readings.ErrInvalidValue)
}
