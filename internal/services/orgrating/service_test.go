package orgrating

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"riskmap/internal/adapters/memory"
	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

func day(n int) time.Time { return time.Date(2020, time.January, n, 9, 0, 0, 0, time.UTC) }

var now = time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC)

func urlRating(urlID int64, url string, on time.Time, s domain.Severity) domain.UrlRating {
	return domain.UrlRating{
		UrlID: urlID, Moment: domain.EndOfDay(on),
		High: s.High, Medium: s.Medium, Low: s.Low,
		Calculation: domain.UrlCalculation{Url: url, Severity: s},
	}
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	dead := day(8)
	store := memory.New()
	err := store.SaveFacts(ctx, ports.Facts{
		Organizations: []domain.Organization{{ID: 1, Name: "Gemeente A"}, {ID: 2, Name: "Empty"}},
		Urls: []domain.Url{
			{ID: 1, Url: "a.example", OrganizationIDs: []int64{1}, CreatedOn: day(1), IsDead: true, DeadSince: &dead},
			{ID: 2, Url: "b.example", OrganizationIDs: []int64{1}, CreatedOn: day(1)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []domain.UrlRating{
		urlRating(1, "a.example", day(1), domain.Severity{High: 1}),
		urlRating(2, "b.example", day(5), domain.Severity{Medium: 1}),
		urlRating(1, "a.example", day(8), domain.Severity{}),
	} {
		if err := store.AppendUrlRating(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func newService(t *testing.T, store *memory.Store) *Service {
	return New(store, store, store, zaptest.NewLogger(t), func() time.Time { return now })
}

type row struct {
	day                        int
	rating, high, medium, urls int
}

func rows(ratings []domain.OrganizationRating) []row {
	out := make([]row, len(ratings))
	for i, r := range ratings {
		out[i] = row{r.Moment.Day(), r.Rating, r.High, r.Medium, r.Calculation.TotalUrls}
	}
	return out
}

func TestFullHistory(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newService(t, store)

	if err := svc.RateOrganization(ctx, 1, ports.FullHistory); err != nil {
		t.Fatal(err)
	}
	got, _ := store.ListOrganizationRatings(ctx, 1)
	want := []row{
		{1, domain.UnratedRating, 0, 0, 0},
		{1, 1, 1, 0, 1},
		{5, 2, 1, 1, 2},
		// a.example died
		{8, 1, 0, 1, 1},
	}
	if diff := cmp.Diff(want, rows(got), cmp.AllowUnexported(row{})); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if !got[0].IsDefault() || !got[0].Moment.Equal(domain.Epoch) {
		t.Fatalf("first snapshot must be the sentinel: %+v", got[0])
	}
	if got[2].Calculation.Urls[0].Url != "a.example" {
		t.Fatalf("worst url must come first: %+v", got[2].Calculation.Urls)
	}
}

func TestRollupConsistency(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newService(t, store)
	history, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	urls, _ := store.ListOrganizationUrls(ctx, 1)
	for _, r := range history[1:] {
		var ids []int64
		for _, u := range urls {
			if u.AliveAt(r.Moment) {
				ids = append(ids, u.ID)
			}
		}
		latest, _ := store.LatestUrlRatings(ctx, ids, r.Moment)
		var sum domain.Severity
		for _, l := range latest {
			sum = sum.Add(domain.Severity{High: l.High, Medium: l.Medium, Low: l.Low})
		}
		if sum != r.Calculation.Severity || sum.Total() != r.Rating {
			t.Fatalf("snapshot at %s: got %+v rating %d, url sum %+v", r.Moment, r.Calculation.Severity, r.Rating, sum)
		}
	}
}

func TestEmptyOrganizationOnlyHasSentinel(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	if err := newService(t, store).RateOrganization(ctx, 2, ports.FullHistory); err != nil {
		t.Fatal(err)
	}
	got, _ := store.ListOrganizationRatings(ctx, 2)
	if len(got) != 1 || !got[0].IsDefault() {
		t.Fatalf("expected only the sentinel, got %+v", got)
	}
}

func TestTodayOnly(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newService(t, store)

	if err := svc.RateOrganization(ctx, 1, ports.TodayOnly); err != nil {
		t.Fatal(err)
	}
	got, _ := store.ListOrganizationRatings(ctx, 1)
	want := []row{
		{1, domain.UnratedRating, 0, 0, 0},
		{1, 1, 0, 1, 1},
	}
	if diff := cmp.Diff(want, rows(got), cmp.AllowUnexported(row{})); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if !got[1].Moment.Equal(now) {
		t.Fatalf("expected snapshot at now, got %s", got[1].Moment)
	}

	if err := svc.RateOrganization(ctx, 1, ports.TodayOnly); err != nil {
		t.Fatal(err)
	}
	again, _ := store.ListOrganizationRatings(ctx, 1)
	if len(again) != 2 {
		t.Fatalf("unchanged organization must not be appended, got %d", len(again))
	}
}

func TestUnknownOrganization(t *testing.T) {
	err := newService(t, memory.New()).RateOrganization(context.Background(), 9, ports.FullHistory)
	if err == nil {
		t.Fatal("expected error for unknown organization")
	}
}

func TestHistoryBeforeEpoch(t *testing.T) {
	ctx := context.Background()
	rated := time.Date(2015, time.June, 1, 9, 0, 0, 0, time.UTC)
	store := memory.New()
	err := store.SaveFacts(ctx, ports.Facts{
		Organizations: []domain.Organization{{ID: 1, Name: "Gemeente A"}},
		Urls:          []domain.Url{{ID: 1, Url: "a.example", OrganizationIDs: []int64{1}, CreatedOn: rated}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AppendUrlRating(ctx, urlRating(1, "a.example", rated, domain.Severity{High: 1})); err != nil {
		t.Fatal(err)
	}
	if err := newService(t, store).RateOrganization(ctx, 1, ports.FullHistory); err != nil {
		t.Fatal(err)
	}

	got, _ := store.ListOrganizationRatings(ctx, 1)
	if len(got) != 2 || !got[0].IsDefault() || !got[0].Moment.Before(domain.StartOfDay(rated)) {
		t.Fatalf("sentinel must precede the first rating: %+v", got)
	}
	latest, found, err := store.LatestOrganizationRating(ctx, 1, time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || !found || latest.Rating != 1 {
		t.Fatalf("expected rating 1 after the 2015 scan, got %+v found=%v err=%v", latest, found, err)
	}
}

func TestSentinelMoment(t *testing.T) {
	tests := []struct {
		first time.Time
		want  time.Time
	}{
		{time.Time{}, domain.Epoch},
		{day(1), domain.Epoch},
		{domain.Epoch, domain.Epoch},
		{time.Date(2015, time.June, 1, 23, 59, 0, 0, time.UTC), time.Date(2015, time.May, 31, 23, 59, 59, 999999000, time.UTC)},
	}
	for _, tc := range tests {
		if got := SentinelMoment(tc.first); !got.Equal(tc.want) {
			t.Errorf("SentinelMoment(%s) = %s, want %s", tc.first, got, tc.want)
		}
	}
}
