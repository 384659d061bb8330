package timeline

import (
	"testing"
	"time"

	"riskmap/internal/domain"
)

func at(d, h int) time.Time { return time.Date(2020, time.January, d, h, 0, 0, 0, time.UTC) }

func ptr(t time.Time) *time.Time { return &t }

func TestMomentsSnapDedupeSort(t *testing.T) {
	now := time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC)
	got := Moments([]time.Time{at(3, 10), at(1, 5), at(3, 22), {}, at(2, 0)}, now)
	want := []time.Time{
		domain.EndOfDay(at(1, 0)),
		domain.EndOfDay(at(2, 0)),
		domain.EndOfDay(at(3, 0)),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("moment %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if got[0].Nanosecond() != 999999000 || got[0].Hour() != 23 {
		t.Fatalf("expected end of day, got %s", got[0])
	}
}

func TestMomentsTodayIsNow(t *testing.T) {
	now := at(5, 9)
	got := Moments([]time.Time{at(1, 0), at(5, 3), at(9, 0)}, now)
	if len(got) != 2 {
		t.Fatalf("expected future day dropped, got %v", got)
	}
	if !got[1].Equal(now) {
		t.Fatalf("expected today's moment to be now, got %s", got[1])
	}
}

func TestMomentsEmpty(t *testing.T) {
	if got := UrlMoments(domain.UrlFacts{Url: domain.Url{ID: 1, CreatedOn: at(1, 0)}}, at(10, 0)); len(got) != 0 {
		t.Fatalf("expected no moments without facts, got %v", got)
	}
}

func TestUrlMomentsSources(t *testing.T) {
	until := at(8, 0)
	f := domain.UrlFacts{
		Url: domain.Url{ID: 1, CreatedOn: at(1, 0), NotResolvableSince: ptr(at(12, 0)), ResolvableSince: ptr(at(14, 0))},
		Endpoints: []domain.Endpoint{
			{ID: 10, UrlID: 1, DiscoveredOn: at(1, 0), IsDead: true, DeadSince: ptr(at(10, 0))},
		},
		EndpointScans: []domain.ScanEvent{
			{ID: 1, EntityID: 10, Type: domain.ScanHSTS, Rating: "False", DeterminedOn: at(2, 0), LastConfirmedOn: at(4, 0),
				Explained: domain.Explanation{IsExplained: true, ValidUntil: &until}},
		},
		UrlScans: []domain.ScanEvent{
			{ID: 2, Kind: domain.KindUrlScan, EntityID: 1, Type: domain.ScanDNSSEC, Rating: "ERROR", DeterminedOn: at(6, 0), LastConfirmedOn: at(6, 0)},
		},
	}
	got := UrlMoments(f, at(20, 0))
	days := []int{2, 4, 6, 8, 10, 12, 14}
	if len(got) != len(days) {
		t.Fatalf("got %d moments %v, want days %v", len(got), got, days)
	}
	for i, d := range days {
		if got[i].Day() != d {
			t.Fatalf("moment %d: got day %d, want %d", i, got[i].Day(), d)
		}
	}
}

func TestBuild(t *testing.T) {
	f := domain.UrlFacts{
		Url: domain.Url{ID: 1, CreatedOn: at(1, 0), IsDead: true, DeadSince: ptr(at(9, 0))},
		Endpoints: []domain.Endpoint{
			{ID: 10, UrlID: 1, DiscoveredOn: at(3, 0), IsDead: true, DeadSince: ptr(at(5, 0))},
			{ID: 11, UrlID: 1, DiscoveredOn: at(4, 0)},
		},
		EndpointScans: []domain.ScanEvent{
			{ID: 2, EntityID: 10, Type: domain.ScanHSTS, Rating: "True", DeterminedOn: at(1, 18)},
			{ID: 1, EntityID: 10, Type: domain.ScanHSTS, Rating: "False", DeterminedOn: at(1, 8)},
			{ID: 3, EntityID: 11, Type: domain.ScanHSTS, Rating: "False", DeterminedOn: at(4, 8)},
			{ID: 4, EntityID: 99, Type: domain.ScanHSTS, Rating: "False", DeterminedOn: at(4, 8)},
		},
	}
	moments := UrlMoments(f, at(20, 0))
	tl := Build(f, moments)

	if tl.Orphans != 1 {
		t.Fatalf("expected one orphan scan, got %d", tl.Orphans)
	}
	if len(tl.Days) != 4 { // 1, 4, 5, 9
		t.Fatalf("expected 4 days, got %d", len(tl.Days))
	}

	d1 := tl.Days[0]
	if len(d1.EndpointScans) != 2 || d1.EndpointScans[0].ID != 1 || d1.EndpointScans[1].ID != 2 {
		t.Fatalf("day 1 scans out of order: %+v", d1.EndpointScans)
	}
	// first scan predates discovery, so the endpoint exists from day 1
	if !d1.Alive[10] || d1.Alive[11] {
		t.Fatalf("day 1 alive set wrong: %v", d1.Alive)
	}

	d5 := tl.Days[2]
	if len(d5.Died) != 1 || d5.Died[0] != 10 {
		t.Fatalf("expected endpoint 10 to die on day 5, got %v", d5.Died)
	}
	if d5.Alive[10] || !d5.Alive[11] {
		t.Fatalf("day 5 alive set wrong: %v", d5.Alive)
	}

	last := tl.Days[3]
	if !last.UrlDied || !last.Terminal() {
		t.Fatal("expected url death flag on day 9")
	}
}

func TestBuildUnresolvableFlags(t *testing.T) {
	tests := []struct {
		name       string
		url        domain.Url
		unresolved bool
		revived    bool
	}{
		{"still unresolvable", domain.Url{NotResolvable: true, NotResolvableSince: ptr(at(5, 8))}, true, false},
		{"revived later", domain.Url{NotResolvableSince: ptr(at(5, 8)), ResolvableSince: ptr(at(6, 8))}, true, false},
		{"revived the same day", domain.Url{NotResolvableSince: ptr(at(5, 8)), ResolvableSince: ptr(at(5, 18))}, false, false},
		{"no revival date", domain.Url{NotResolvableSince: ptr(at(5, 8))}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.url.ID, tc.url.CreatedOn = 1, at(1, 0)
			tl := Build(domain.UrlFacts{Url: tc.url}, []time.Time{at(5, 0)})
			d := tl.Days[0]
			if d.UrlUnresolvable != tc.unresolved || d.UrlRevived != tc.revived {
				t.Fatalf("unresolvable=%v revived=%v", d.UrlUnresolvable, d.UrlRevived)
			}
		})
	}
}
