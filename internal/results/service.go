package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/blobstore"
)

// ErrStore marks failures of the backing collection. Callers report it
// to clients without detail.
var ErrStore = errors.New("results store unavailable")

// Receipt is returned for an accepted submission.
type Receipt struct {
	Success      bool   `json:"success"`
	TotalResults int    `json:"totalResults"`
	StudentName  string `json:"studentName"`
	Score        string `json:"score"`
}

// Service validates, enriches and appends records.
type Service struct {
	coll   *blobstore.Collection[Record]
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService appends to coll. A nil logger discards output.
func NewService(coll *blobstore.Collection[Record], logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		coll:   coll,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Submit enriches rec with a fresh id, the ingestion time and meta, then
// appends it. rec must already be validated.
func (s *Service) Submit(ctx context.Context, rec Record, meta Metadata) (Receipt, error) {
	rec.ID = s.newID()
	rec.Timestamp = s.now().UTC().Format(time.RFC3339)
	rec.Metadata = &meta

	total, err := s.coll.Append(ctx, rec)
	if err != nil {
		s.logger.Error("failed to append result",
			zap.String("id", rec.ID),
			zap.String("collection", s.coll.Key()),
			zap.Error(err))
		return Receipt{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.logger.Info("result stored",
		zap.String("id", rec.ID),
		zap.String("email", rec.Email),
		zap.String("score", rec.ScoreLabel()),
		zap.Int("total_results", total))

	return Receipt{
		Success:      true,
		TotalResults: total,
		StudentName:  rec.Name,
		Score:        rec.ScoreLabel(),
	}, nil
}

// List returns every stored record in insertion order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.coll.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return recs, nil
}

// Count returns the number of stored records.
func (s *Service) Count(ctx context.Context) (int, error) {
	recs, err := s.List(ctx)
	return len(recs), err
}
