// Package memory is an in-process store. It backs tests and fixture runs.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

type job struct {
	ports.RatingJob
	status string
	reason string
}

// Store keeps facts and ratings in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	organizations map[int64]domain.Organization
	urls          map[int64]domain.Url
	endpoints     map[int64]domain.Endpoint
	scans         []domain.ScanEvent

	urlRatings map[int64][]domain.UrlRating
	orgRatings map[int64][]domain.OrganizationRating
	nextRating int64

	jobs    []*job
	nextJob int64
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		organizations: map[int64]domain.Organization{},
		urls:          map[int64]domain.Url{},
		endpoints:     map[int64]domain.Endpoint{},
		urlRatings:    map[int64][]domain.UrlRating{},
		orgRatings:    map[int64][]domain.OrganizationRating{},
	}
}

func (s *Store) Close() {}

// SaveFacts upserts facts by id.
func (s *Store) SaveFacts(_ context.Context, f ports.Facts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range f.Organizations {
		s.organizations[o.ID] = o
	}
	for _, u := range f.Urls {
		u.OrganizationIDs = slices.Clone(u.OrganizationIDs)
		s.urls[u.ID] = u
	}
	for _, ep := range f.Endpoints {
		s.endpoints[ep.ID] = ep
	}
	for _, ev := range f.Scans {
		i := slices.IndexFunc(s.scans, func(x domain.ScanEvent) bool { return x.ID == ev.ID && x.Kind == ev.Kind })
		if i >= 0 {
			s.scans[i] = ev
			continue
		}
		s.scans = append(s.scans, ev)
	}
	return nil
}

func (s *Store) GetUrlFacts(_ context.Context, urlID int64) (domain.UrlFacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.urls[urlID]
	if !ok {
		return domain.UrlFacts{}, domain.ErrNotFound
	}
	f := domain.UrlFacts{Url: u}
	owned := map[int64]bool{}
	for _, ep := range s.endpoints {
		if ep.UrlID == urlID {
			f.Endpoints = append(f.Endpoints, ep)
			owned[ep.ID] = true
		}
	}
	slices.SortFunc(f.Endpoints, func(a, b domain.Endpoint) int { return cmp.Compare(a.ID, b.ID) })
	for _, ev := range s.scans {
		switch {
		case ev.Kind == domain.KindUrlScan && ev.EntityID == urlID:
			f.UrlScans = append(f.UrlScans, ev)
		case ev.Kind != domain.KindUrlScan && owned[ev.EntityID]:
			f.EndpointScans = append(f.EndpointScans, ev)
		}
	}
	return f, nil
}

func (s *Store) ListUrls(_ context.Context, filter ports.UrlFilter) ([]domain.Url, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Url
	for _, u := range s.urls {
		if filter.Matches(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.Url) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetOrganization(_ context.Context, organizationID int64) (domain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.organizations[organizationID]
	if !ok {
		return domain.Organization{}, domain.ErrNotFound
	}
	return o, nil
}

func (s *Store) ListOrganizationUrls(ctx context.Context, organizationID int64) ([]domain.Url, error) {
	return s.ListUrls(ctx, ports.UrlFilter{OrganizationIDs: []int64{organizationID}})
}

func (s *Store) OrganizationsForUrls(_ context.Context, urlIDs []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for _, id := range urlIDs {
		for _, org := range s.urls[id].OrganizationIDs {
			if !slices.Contains(out, org) {
				out = append(out, org)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// Url ratings

func (s *Store) ReplaceUrlRatings(_ context.Context, urlID int64, ratings []domain.UrlRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UrlRating, 0, len(ratings))
	for _, r := range ratings {
		s.nextRating++
		r.ID = s.nextRating
		r.UrlID = urlID
		out = append(out, r)
	}
	sortByMoment(out, func(r domain.UrlRating) (time.Time, int64) { return r.Moment, r.ID })
	s.urlRatings[urlID] = out
	return nil
}

func (s *Store) AppendUrlRating(_ context.Context, r domain.UrlRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRating++
	r.ID = s.nextRating
	list := append(s.urlRatings[r.UrlID], r)
	sortByMoment(list, func(r domain.UrlRating) (time.Time, int64) { return r.Moment, r.ID })
	s.urlRatings[r.UrlID] = list
	return nil
}

func (s *Store) LatestUrlRating(_ context.Context, urlID int64, at time.Time) (domain.UrlRating, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := latest(s.urlRatings[urlID], at, func(r domain.UrlRating) time.Time { return r.Moment })
	return r, ok, nil
}

func (s *Store) LatestUrlRatings(_ context.Context, urlIDs []int64, at time.Time) ([]domain.UrlRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UrlRating
	for _, id := range urlIDs {
		if r, ok := latest(s.urlRatings[id], at, func(r domain.UrlRating) time.Time { return r.Moment }); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListUrlRatings(_ context.Context, urlID int64) ([]domain.UrlRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.urlRatings[urlID]), nil
}

// Organization ratings

func (s *Store) ReplaceOrganizationRatings(_ context.Context, organizationID int64, ratings []domain.OrganizationRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrganizationRating, 0, len(ratings))
	for _, r := range ratings {
		s.nextRating++
		r.ID = s.nextRating
		r.OrganizationID = organizationID
		out = append(out, r)
	}
	sortByMoment(out, func(r domain.OrganizationRating) (time.Time, int64) { return r.Moment, r.ID })
	s.orgRatings[organizationID] = out
	return nil
}

func (s *Store) AppendOrganizationRating(_ context.Context, r domain.OrganizationRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRating++
	r.ID = s.nextRating
	list := append(s.orgRatings[r.OrganizationID], r)
	sortByMoment(list, func(r domain.OrganizationRating) (time.Time, int64) { return r.Moment, r.ID })
	s.orgRatings[r.OrganizationID] = list
	return nil
}

func (s *Store) LatestOrganizationRating(_ context.Context, organizationID int64, at time.Time) (domain.OrganizationRating, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := latest(s.orgRatings[organizationID], at, func(r domain.OrganizationRating) time.Time { return r.Moment })
	return r, ok, nil
}

func (s *Store) ListOrganizationRatings(_ context.Context, organizationID int64) ([]domain.OrganizationRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orgRatings[organizationID]), nil
}

func sortByMoment[T any](list []T, key func(T) (time.Time, int64)) {
	slices.SortStableFunc(list, func(a, b T) int {
		am, aid := key(a)
		bm, bid := key(b)
		if c := am.Compare(bm); c != 0 {
			return c
		}
		return cmp.Compare(aid, bid)
	})
}

// latest expects list sorted by moment ascending.
func latest[T any](list []T, at time.Time, moment func(T) time.Time) (T, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if !moment(list[i]).After(at) {
			return list[i], true
		}
	}
	var zero T
	return zero, false
}
