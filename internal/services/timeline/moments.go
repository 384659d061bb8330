// Package timeline turns facts into the days on which a rating may change.
package timeline

import (
	"slices"
	"time"

	"riskmap/internal/domain"
)

// Moments snaps every candidate to the end of its day, removes duplicates
// and sorts them. Days after now are dropped and today's moment is now
// itself, so a rating computed today is visible before midnight.
func Moments(candidates []time.Time, now time.Time) []time.Time {
	now = now.UTC()
	today := domain.StartOfDay(now)

	seen := make(map[time.Time]struct{}, len(candidates))
	out := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if c.IsZero() {
			continue
		}
		key := domain.StartOfDay(c)
		if key.After(today) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.EndOfDay(c))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })

	if n := len(out); n > 0 && domain.SameDay(out[n-1], now) {
		out[n-1] = now
	}
	return out
}

// UrlMoments lists the days on which anything that affects the url's
// rating happened. No facts means no moments: the url was never rated.
func UrlMoments(f domain.UrlFacts, now time.Time) []time.Time {
	var c []time.Time
	for _, scans := range [][]domain.ScanEvent{f.EndpointScans, f.UrlScans} {
		for _, ev := range scans {
			c = append(c, ev.DeterminedOn, ev.LastConfirmedOn)
			if ev.Explained.IsExplained && ev.Explained.ValidUntil != nil {
				c = append(c, *ev.Explained.ValidUntil)
			}
		}
	}
	for _, ep := range f.Endpoints {
		if ep.IsDead && ep.DeadSince != nil {
			c = append(c, *ep.DeadSince)
		}
	}
	c = append(c, urlLifecycle(f.Url)...)
	return Moments(c, now)
}

// OrganizationMoments lists the days on which any member url was rated or
// changed its lifecycle.
func OrganizationMoments(urls []domain.Url, ratings []domain.UrlRating, now time.Time) []time.Time {
	var c []time.Time
	for _, r := range ratings {
		c = append(c, r.Moment)
	}
	for _, u := range urls {
		c = append(c, urlLifecycle(u)...)
	}
	return Moments(c, now)
}

func urlLifecycle(u domain.Url) []time.Time {
	var c []time.Time
	if u.IsDead && u.DeadSince != nil {
		c = append(c, *u.DeadSince)
	}
	if u.NotResolvableSince != nil {
		c = append(c, *u.NotResolvableSince)
	}
	if u.ResolvableSince != nil {
		c = append(c, *u.ResolvableSince)
	}
	return c
}
