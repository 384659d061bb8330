package urlrating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
	"riskmap/internal/services/timeline"
)

// Service rates urls against the fact and rating repositories.
type Service struct {
	facts   ports.FactRepository
	ratings ports.UrlRatingRepository
	recon   *Reconstructor
	now     ports.Clock
	logger  *zap.Logger
}

func New(facts ports.FactRepository, ratings ports.UrlRatingRepository, logger *zap.Logger, opts Options, now ports.Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		facts:   facts,
		ratings: ratings,
		recon:   NewReconstructor(logger, opts),
		now:     now,
		logger:  logger,
	}
}

var _ ports.UrlRater = (*Service)(nil)

// History rebuilds the url's snapshot sequence from facts without writing it.
func (s *Service) History(ctx context.Context, urlID int64) (Result, error) {
	f, err := s.facts.GetUrlFacts(ctx, urlID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load facts of url %d: %w", urlID, err)
	}
	if err := f.Validate(); err != nil {
		s.logger.Warn("skipping url with inconsistent lifecycle", zap.Int64("url_id", urlID), zap.Error(err))
		return Result{}, err
	}

	moments := timeline.UrlMoments(f, s.now())
	tl := timeline.Build(f, moments)
	if tl.Orphans > 0 {
		s.logger.Debug("ignored scans outside the timeline", zap.Int64("url_id", urlID), zap.Int("scans", tl.Orphans))
	}
	return s.recon.Reconstruct(tl), nil
}

// RateUrl rebuilds the url's snapshots. Full history replaces every
// snapshot in one transaction; today-only appends a snapshot for now when
// the rating differs from the latest stored one.
func (s *Service) RateUrl(ctx context.Context, urlID int64, mode ports.Mode) error {
	res, err := s.History(ctx, urlID)
	if err != nil {
		return err
	}

	switch mode {
	case ports.FullHistory:
		if err := s.ratings.ReplaceUrlRatings(ctx, urlID, res.Ratings); err != nil {
			return domain.WriteError("replace url ratings", urlID, err)
		}
		s.logger.Debug("url rebuilt", zap.Int64("url_id", urlID), zap.Int("snapshots", len(res.Ratings)))
		return nil
	case ports.TodayOnly:
		return s.rateToday(ctx, urlID, res)
	}
	return fmt.Errorf("unsupported mode %q", mode)
}

func (s *Service) rateToday(ctx context.Context, urlID int64, res Result) error {
	if len(res.Ratings) == 0 {
		return nil
	}
	current := res.Ratings[len(res.Ratings)-1]
	now := s.now().UTC()
	if !res.Final.Terminated && !res.Final.Dormant {
		current.Moment = now
	}

	latest, found, err := s.ratings.LatestUrlRating(ctx, urlID, now)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to load latest rating of url %d: %w", urlID, err)
	}
	if found && domain.SameUrlCalculation(latest.Calculation, current.Calculation) {
		return nil
	}
	if err := s.ratings.AppendUrlRating(ctx, current); err != nil {
		return domain.WriteError("append url rating", urlID, err)
	}
	s.logger.Debug("url rating changed", zap.Int64("url_id", urlID), zap.Time("moment", current.Moment))
	return nil
}
