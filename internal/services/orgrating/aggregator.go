// Package orgrating rolls url snapshots up into organization snapshots.
package orgrating

import (
	"context"
	"fmt"
	"time"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

// Aggregator computes an organization calculation at a moment from the
// stored url snapshots.
type Aggregator struct {
	ratings ports.UrlRatingRepository
}

func NewAggregator(ratings ports.UrlRatingRepository) Aggregator {
	return Aggregator{ratings: ratings}
}

// At rates org at moment: every member url alive at moment contributes its
// latest snapshot at or before moment.
func (a Aggregator) At(ctx context.Context, org domain.Organization, urls []domain.Url, moment time.Time) (domain.OrganizationCalculation, error) {
	ids := relevantAt(urls, moment)
	if len(ids) == 0 {
		return Rollup(org, nil), nil
	}
	latest, err := a.ratings.LatestUrlRatings(ctx, ids, moment)
	if err != nil {
		return domain.OrganizationCalculation{}, fmt.Errorf("failed to load url ratings of organization %d: %w", org.ID, err)
	}
	return Rollup(org, latest), nil
}

// Rollup sums url snapshots, at most one per url, into an organization
// calculation with the urls sorted worst-first.
func Rollup(org domain.Organization, latest []domain.UrlRating) domain.OrganizationCalculation {
	calc := domain.OrganizationCalculation{
		Organization: org.Name,
		Urls:         make([]domain.UrlCalculation, 0, len(latest)),
	}
	for _, r := range latest {
		calc.Severity = calc.Severity.Add(r.Calculation.Severity)
		calc.Explained = calc.Explained.Add(r.Calculation.Explained)
		calc.Urls = append(calc.Urls, r.Calculation)
	}
	calc.TotalUrls = len(calc.Urls)
	domain.SortUrls(calc.Urls)
	return calc
}

func relevantAt(urls []domain.Url, moment time.Time) []int64 {
	var ids []int64
	for _, u := range urls {
		if u.AliveAt(moment) {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Sentinel is the "unrated" snapshot every organization starts with.
func Sentinel(org domain.Organization, at time.Time) domain.OrganizationRating {
	return domain.OrganizationRating{
		OrganizationID: org.ID,
		Moment:         at,
		Rating:         domain.UnratedRating,
		Calculation:    Rollup(org, nil),
	}
}

// SentinelMoment places the sentinel before the first moment of the
// history: at the epoch, or the instant before the first day when the
// history predates the epoch.
func SentinelMoment(first time.Time) time.Time {
	if first.IsZero() || !first.Before(domain.Epoch) {
		return domain.Epoch
	}
	return domain.StartOfDay(first).Add(-time.Microsecond)
}

func snapshot(org domain.Organization, moment time.Time, calc domain.OrganizationCalculation) domain.OrganizationRating {
	return domain.OrganizationRating{
		OrganizationID: org.ID,
		Moment:         moment,
		Rating:         calc.Total(),
		High:           calc.High,
		Medium:         calc.Medium,
		Low:            calc.Low,
		Calculation:    calc,
	}
}
