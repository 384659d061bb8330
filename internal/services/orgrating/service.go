package orgrating

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
	"riskmap/internal/services/timeline"
)

type Service struct {
	facts      ports.FactRepository
	urlRatings ports.UrlRatingRepository
	ratings    ports.OrganizationRatingRepository
	agg        Aggregator
	now        ports.Clock
	logger     *zap.Logger
}

func New(facts ports.FactRepository, urlRatings ports.UrlRatingRepository, ratings ports.OrganizationRatingRepository, logger *zap.Logger, now ports.Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		facts:      facts,
		urlRatings: urlRatings,
		ratings:    ratings,
		agg:        NewAggregator(urlRatings),
		now:        now,
		logger:     logger,
	}
}

var _ ports.OrganizationRater = (*Service)(nil)

func (s *Service) load(ctx context.Context, organizationID int64) (domain.Organization, []domain.Url, error) {
	org, err := s.facts.GetOrganization(ctx, organizationID)
	if err != nil {
		return domain.Organization{}, nil, fmt.Errorf("failed to load organization %d: %w", organizationID, err)
	}
	urls, err := s.facts.ListOrganizationUrls(ctx, organizationID)
	if err != nil {
		return domain.Organization{}, nil, fmt.Errorf("failed to load urls of organization %d: %w", organizationID, err)
	}
	return org, urls, nil
}

// History rebuilds the organization's snapshot sequence, sentinel first,
// from the stored url snapshots.
func (s *Service) History(ctx context.Context, organizationID int64) ([]domain.OrganizationRating, error) {
	org, urls, err := s.load(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return s.history(ctx, org, urls)
}

func (s *Service) history(ctx context.Context, org domain.Organization, urls []domain.Url) ([]domain.OrganizationRating, error) {
	var member []domain.UrlRating
	for _, u := range urls {
		rs, err := s.urlRatings.ListUrlRatings(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list ratings of url %d: %w", u.ID, err)
		}
		member = append(member, rs...)
	}

	moments := timeline.OrganizationMoments(urls, member, s.now())
	var first time.Time
	if len(moments) > 0 {
		first = moments[0]
	}
	out := []domain.OrganizationRating{Sentinel(org, SentinelMoment(first))}
	prev := out[0].Calculation
	for _, m := range moments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		calc, err := s.agg.At(ctx, org, urls, m)
		if err != nil {
			return nil, err
		}
		if domain.SameOrganizationCalculation(prev, calc) {
			continue
		}
		out = append(out, snapshot(org, m, calc))
		prev = calc
	}
	return out, nil
}

// RateOrganization rebuilds the organization's snapshots. Url snapshots
// must be up to date before this runs.
func (s *Service) RateOrganization(ctx context.Context, organizationID int64, mode ports.Mode) error {
	org, urls, err := s.load(ctx, organizationID)
	if err != nil {
		return err
	}

	switch mode {
	case ports.FullHistory:
		ratings, err := s.history(ctx, org, urls)
		if err != nil {
			return err
		}
		if err := s.ratings.ReplaceOrganizationRatings(ctx, org.ID, ratings); err != nil {
			return domain.WriteError("replace organization ratings", org.ID, err)
		}
		s.logger.Debug("organization rebuilt", zap.Int64("organization_id", org.ID), zap.Int("snapshots", len(ratings)))
		return nil
	case ports.TodayOnly:
		return s.rateToday(ctx, org, urls)
	}
	return fmt.Errorf("unsupported mode %q", mode)
}

func (s *Service) rateToday(ctx context.Context, org domain.Organization, urls []domain.Url) error {
	now := s.now().UTC()
	prev, found, err := s.ratings.LatestOrganizationRating(ctx, org.ID, now)
	if err != nil {
		return fmt.Errorf("failed to load latest rating of organization %d: %w", org.ID, err)
	}
	if !found {
		prev = Sentinel(org, SentinelMoment(now))
		if err := s.ratings.AppendOrganizationRating(ctx, prev); err != nil {
			return domain.WriteError("append organization sentinel", org.ID, err)
		}
	}

	calc, err := s.agg.At(ctx, org, urls, now)
	if err != nil {
		return err
	}
	if domain.SameOrganizationCalculation(prev.Calculation, calc) {
		return nil
	}
	if err := s.ratings.AppendOrganizationRating(ctx, snapshot(org, now, calc)); err != nil {
		return domain.WriteError("append organization rating", org.ID, err)
	}
	s.logger.Debug("organization rating changed", zap.Int64("organization_id", org.ID), zap.Int("rating", calc.Total()))
	return nil
}
