package ports

import (
	"context"
	"slices"
	"time"

	"riskmap/internal/domain"
)

// UrlFilter selects urls. An empty filter selects every url.
type UrlFilter struct {
	IDs             []int64
	OrganizationIDs []int64
	// Domains matches urls whose registrable domain (eTLD+1) is listed.
	Domains []string
}

func (f UrlFilter) Empty() bool {
	return len(f.IDs) == 0 && len(f.OrganizationIDs) == 0 && len(f.Domains) == 0
}

// Matches reports whether u is selected by any of the filter's criteria.
func (f UrlFilter) Matches(u domain.Url) bool {
	if f.Empty() || slices.Contains(f.IDs, u.ID) {
		return true
	}
	for _, org := range u.OrganizationIDs {
		if slices.Contains(f.OrganizationIDs, org) {
			return true
		}
	}
	return u.MatchesDomain(f.Domains)
}

// FactRepository reads the scanner-owned facts.
type FactRepository interface {
	GetUrlFacts(ctx context.Context, urlID int64) (domain.UrlFacts, error)
	ListUrls(ctx context.Context, filter UrlFilter) ([]domain.Url, error)
	GetOrganization(ctx context.Context, organizationID int64) (domain.Organization, error)
	ListOrganizationUrls(ctx context.Context, organizationID int64) ([]domain.Url, error)
	// OrganizationsForUrls returns the distinct organizations owning any of the urls.
	OrganizationsForUrls(ctx context.Context, urlIDs []int64) ([]int64, error)
}

// FactWriter stores facts. Only fixtures and tests write facts; scanners
// own them in production.
type FactWriter interface {
	SaveFacts(ctx context.Context, facts Facts) error
}

// Facts is a bulk set of facts as loaded from a fixture.
type Facts struct {
	Organizations []domain.Organization
	Urls          []domain.Url
	Endpoints     []domain.Endpoint
	Scans         []domain.ScanEvent
}

// UrlRatingRepository stores url snapshots.
type UrlRatingRepository interface {
	// ReplaceUrlRatings deletes every snapshot of the url and inserts ratings
	// in one transaction.
	ReplaceUrlRatings(ctx context.Context, urlID int64, ratings []domain.UrlRating) error
	AppendUrlRating(ctx context.Context, rating domain.UrlRating) error
	// LatestUrlRating is the newest snapshot with moment <= at.
	LatestUrlRating(ctx context.Context, urlID int64, at time.Time) (domain.UrlRating, bool, error)
	// LatestUrlRatings is the group-wise maximum of LatestUrlRating over urlIDs.
	LatestUrlRatings(ctx context.Context, urlIDs []int64, at time.Time) ([]domain.UrlRating, error)
	ListUrlRatings(ctx context.Context, urlID int64) ([]domain.UrlRating, error)
}

// OrganizationRatingRepository stores organization snapshots.
type OrganizationRatingRepository interface {
	ReplaceOrganizationRatings(ctx context.Context, organizationID int64, ratings []domain.OrganizationRating) error
	AppendOrganizationRating(ctx context.Context, rating domain.OrganizationRating) error
	LatestOrganizationRating(ctx context.Context, organizationID int64, at time.Time) (domain.OrganizationRating, bool, error)
	ListOrganizationRatings(ctx context.Context, organizationID int64) ([]domain.OrganizationRating, error)
}

// Store is everything a storage adapter provides.
type Store interface {
	FactRepository
	FactWriter
	UrlRatingRepository
	OrganizationRatingRepository
	JobRepository
	Close()
}
