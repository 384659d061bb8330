package timeline

import (
	"cmp"
	"slices"
	"time"

	"riskmap/internal/domain"
)

// Day is everything that happened to a url on one calendar day.
type Day struct {
	Moment time.Time
	Key    time.Time

	EndpointScans []domain.ScanEvent
	UrlScans      []domain.ScanEvent
	// Died lists endpoints whose dead_since falls on this day.
	Died []int64
	// Alive is the set of endpoints that exist on this day.
	Alive map[int64]bool

	UrlDied         bool
	UrlUnresolvable bool
	UrlRevived      bool
}

// Terminal reports whether the url stops being rateable on this day.
func (d Day) Terminal() bool { return d.UrlDied || d.UrlUnresolvable }

type Timeline struct {
	Url       domain.Url
	Endpoints map[int64]domain.Endpoint
	Days      []Day
	// Orphans counts scans that could not be placed: unknown endpoint or a
	// day outside the moments.
	Orphans int
}

// Build buckets the url's facts into the given moments.
func Build(f domain.UrlFacts, moments []time.Time) Timeline {
	tl := Timeline{
		Url:       f.Url,
		Endpoints: make(map[int64]domain.Endpoint, len(f.Endpoints)),
		Days:      make([]Day, len(moments)),
	}
	index := make(map[time.Time]int, len(moments))
	for i, m := range moments {
		key := domain.StartOfDay(m)
		tl.Days[i] = Day{Moment: m, Key: key, Alive: map[int64]bool{}}
		index[key] = i
	}
	for _, ep := range f.Endpoints {
		tl.Endpoints[ep.ID] = ep
	}

	// existence starts at the earliest evidence of the endpoint
	firstSeen := make(map[int64]time.Time, len(f.Endpoints))
	for _, ep := range f.Endpoints {
		firstSeen[ep.ID] = domain.StartOfDay(ep.DiscoveredOn)
	}

	for _, ev := range sortedScans(f.EndpointScans) {
		i, ok := index[domain.StartOfDay(ev.DeterminedOn)]
		if _, known := tl.Endpoints[ev.EntityID]; !ok || !known {
			tl.Orphans++
			continue
		}
		tl.Days[i].EndpointScans = append(tl.Days[i].EndpointScans, ev)
		if d := domain.StartOfDay(ev.DeterminedOn); d.Before(firstSeen[ev.EntityID]) {
			firstSeen[ev.EntityID] = d
		}
	}
	for _, ev := range sortedScans(f.UrlScans) {
		i, ok := index[domain.StartOfDay(ev.DeterminedOn)]
		if !ok || ev.EntityID != f.Url.ID {
			tl.Orphans++
			continue
		}
		tl.Days[i].UrlScans = append(tl.Days[i].UrlScans, ev)
	}

	for _, ep := range sortedEndpoints(f.Endpoints) {
		if ep.IsDead && ep.DeadSince != nil {
			if i, ok := index[domain.StartOfDay(*ep.DeadSince)]; ok {
				tl.Days[i].Died = append(tl.Days[i].Died, ep.ID)
			}
		}
		for i := range tl.Days {
			if existsOn(ep, firstSeen[ep.ID], tl.Days[i].Key) {
				tl.Days[i].Alive[ep.ID] = true
			}
		}
	}

	u := f.Url
	window := unresolvableWindow(u)
	for i := range tl.Days {
		d := &tl.Days[i]
		d.UrlDied = u.IsDead && u.DeadSince != nil && domain.SameDay(*u.DeadSince, d.Key)
		d.UrlUnresolvable = window && domain.SameDay(*u.NotResolvableSince, d.Key)
		d.UrlRevived = window && !u.NotResolvable && domain.SameDay(*u.ResolvableSince, d.Key)
	}
	return tl
}

// unresolvableWindow reports whether the url was unresolvable at the end of
// at least one day, matching Url.AliveAt. A window opened and closed on the
// same day, or one without a revival date, never makes the url dormant.
func unresolvableWindow(u domain.Url) bool {
	if u.NotResolvableSince == nil {
		return false
	}
	if u.NotResolvable {
		return true
	}
	return u.ResolvableSince != nil && !domain.SameDay(*u.ResolvableSince, *u.NotResolvableSince)
}

func existsOn(ep domain.Endpoint, from, day time.Time) bool {
	if day.Before(from) {
		return false
	}
	if ep.IsDead && ep.DeadSince != nil && !domain.StartOfDay(*ep.DeadSince).After(day) {
		return false
	}
	return true
}

// sortedScans orders scans by determination time, then id, so that the
// last scan of a type on a day wins deterministically.
func sortedScans(in []domain.ScanEvent) []domain.ScanEvent {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b domain.ScanEvent) int {
		if c := a.DeterminedOn.Compare(b.DeterminedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func sortedEndpoints(in []domain.Endpoint) []domain.Endpoint {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b domain.Endpoint) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
