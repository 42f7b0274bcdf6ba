package rate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Estimator quotes shipments. Implementations must be safe for concurrent use.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (Result, error)
}

// Source loads the reference data needed to quote a shipment to destination
// for userID. Implementations return a consistent snapshot: rows changed while
// the snapshot is read must not be partially visible.
type Source interface {
	Snapshot(ctx context.Context, destination, userID string) (Snapshot, error)
}

// Service is the Estimator backed by a reference-data Source.
type Service struct {
	source Source
	log    *zap.Logger
}

// NewService returns a Service reading from source. A nil logger disables
// logging.
func NewService(source Source, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, log: log}
}

// Estimate fetches a snapshot for req and resolves it. Business outcomes
// (no coverage, no tariff) are reported in Result.Outcome; errors are
// reserved for invalid input and reference data faults.
func (s *Service) Estimate(ctx context.Context, req Request) (Result, error) {
	if req.Shipment.Destination() == "" {
		return Result{}, fmt.Errorf("%w: shipment was not constructed", ErrInvalidInput)
	}
	snap, err := s.source.Snapshot(ctx, req.Shipment.Destination(), req.UserID)
	if err != nil {
		s.log.Error("load reference data",
			zap.String("destination", req.Shipment.Destination()),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("%w: %w", ErrReferenceData, err)
	}

	res := Resolve(req, snap)
	for _, w := range res.Warnings {
		s.log.Warn("reference data quality",
			zap.String("code", w.Code),
			zap.String("carrier", w.Carrier),
			zap.String("zone", w.Zone),
			zap.String("detail", w.Message),
		)
	}
	s.log.Debug("quote resolved",
		zap.String("destination", req.Shipment.Destination()),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("options", len(res.Options)),
	)
	return res, nil
}
