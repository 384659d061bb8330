package postgres

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"
	"time"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

// connect returns a migrated, empty database or skips the test.
func connect(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("RISKMAP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RISKMAP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx, "up", io.Discard); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, err = db.Pool.Exec(ctx, `TRUNCATE rating_jobs, url_ratings, organization_ratings, url_scans, endpoint_scans, endpoints, organization_urls, urls, organizations`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func day(n int) time.Time { return time.Date(2020, time.January, n, 9, 0, 0, 0, time.UTC) }

func seed(t *testing.T, db *DB) {
	t.Helper()
	err := db.SaveFacts(context.Background(), ports.Facts{
		Organizations: []domain.Organization{{ID: 1, Name: "A"}},
		Urls:          []domain.Url{{ID: 1, Url: "a.example", OrganizationIDs: []int64{1}, CreatedOn: day(1)}, {ID: 2, Url: "b.example", CreatedOn: day(1)}},
		Endpoints:     []domain.Endpoint{{ID: 10, UrlID: 1, IP: "192.0.2.1", IPVersion: 4, Port: 443, Protocol: "https", DiscoveredOn: day(1)}},
		Scans: []domain.ScanEvent{
			{ID: 1, Kind: domain.KindTLSScan, EntityID: 10, Type: domain.ScanTLSQualys, Rating: "F", DeterminedOn: day(1), LastConfirmedOn: day(1)},
			{ID: 1, Kind: domain.KindUrlScan, EntityID: 1, Type: domain.ScanDNSSEC, Rating: "INSECURE", DeterminedOn: day(2), LastConfirmedOn: day(2)},
		},
	})
	if err != nil {
		t.Fatalf("save facts: %v", err)
	}
}

func TestFactsRoundTrip(t *testing.T) {
	db := connect(t)
	seed(t, db)
	ctx := context.Background()

	f, err := db.GetUrlFacts(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Endpoints) != 1 || len(f.EndpointScans) != 1 || len(f.UrlScans) != 1 {
		t.Fatalf("unexpected facts: %+v", f)
	}
	if f.EndpointScans[0].Kind != domain.KindTLSScan || f.UrlScans[0].Kind != domain.KindUrlScan {
		t.Fatalf("scan kinds lost: %+v %+v", f.EndpointScans[0], f.UrlScans[0])
	}
	if len(f.Url.OrganizationIDs) != 1 || f.Url.OrganizationIDs[0] != 1 {
		t.Fatalf("organization link lost: %+v", f.Url)
	}

	if _, err := db.GetUrlFacts(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	urls, err := db.ListOrganizationUrls(ctx, 1)
	if err != nil || len(urls) != 1 {
		t.Fatalf("expected one organization url, got %v %v", urls, err)
	}
	all, _ := db.ListUrls(ctx, ports.UrlFilter{})
	if len(all) != 2 {
		t.Fatalf("expected every url, got %d", len(all))
	}
}

func TestRatingsLatestPerUrl(t *testing.T) {
	db := connect(t)
	seed(t, db)
	ctx := context.Background()

	rating := func(urlID int64, d int, high int) domain.UrlRating {
		return domain.UrlRating{UrlID: urlID, Moment: domain.EndOfDay(day(d)), High: high,
			Calculation: domain.UrlCalculation{Url: "x", Severity: domain.Severity{High: high}}}
	}
	if err := db.ReplaceUrlRatings(ctx, 1, []domain.UrlRating{rating(1, 1, 1), rating(1, 5, 2)}); err != nil {
		t.Fatal(err)
	}
	if err := db.AppendUrlRating(ctx, rating(2, 3, 7)); err != nil {
		t.Fatal(err)
	}

	latest, err := db.LatestUrlRatings(ctx, []int64{1, 2}, domain.EndOfDay(day(4)))
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 2 || latest[0].High != 1 || latest[1].High != 7 {
		t.Fatalf("unexpected group-wise maximum: %+v", latest)
	}
	if latest[0].Calculation.High != 1 {
		t.Fatalf("calculation not decoded: %+v", latest[0].Calculation)
	}

	// replacing drops the old history
	if err := db.ReplaceUrlRatings(ctx, 1, []domain.UrlRating{rating(1, 9, 3)}); err != nil {
		t.Fatal(err)
	}
	all, _ := db.ListUrlRatings(ctx, 1)
	if len(all) != 1 || all[0].High != 3 {
		t.Fatalf("expected replaced history, got %+v", all)
	}
	if _, found, _ := db.LatestUrlRating(ctx, 1, domain.EndOfDay(day(8))); found {
		t.Fatal("no snapshot should exist before day 9")
	}
}

func TestJobLedger(t *testing.T) {
	db := connect(t)
	ctx := context.Background()

	if err := db.EnqueueJobs(ctx, "b", ports.JobUrl, []int64{3, 1, 2}); err != nil {
		t.Fatal(err)
	}
	job, found, err := db.ClaimNext(ctx, "b", ports.JobUrl)
	if err != nil || !found || job.EntityID != 3 || job.Attempts != 1 {
		t.Fatalf("expected first enqueued job, got %+v %v %v", job, found, err)
	}
	if err := db.MarkFailed(ctx, job.ID, "boom"); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.ResetJobs(ctx, "b", true); n != 1 {
		t.Fatalf("expected one reset job, got %d", n)
	}
	if n, _ := db.CountJobs(ctx, "b", ports.JobUrl, ports.JobQueued); n != 3 {
		t.Fatalf("expected 3 queued jobs, got %d", n)
	}
	// enqueueing again does not duplicate
	if err := db.EnqueueJobs(ctx, "b", ports.JobUrl, []int64{1}); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.CountJobs(ctx, "b", ports.JobUrl, ""); n != 3 {
		t.Fatalf("expected 3 jobs, got %d", n)
	}
}

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		url      string
		maxConns int32
		want     int32
	}{
		{"postgres://riskmap@localhost/riskmap?pool_max_conns=20", 4, 20},
		{"postgres://riskmap@localhost/riskmap?pool_max_conns=2", 6, 6},
		{"postgres://riskmap@localhost/riskmap", 50, 50},
	}
	for _, tc := range tests {
		cfg, err := poolConfig(tc.url, tc.maxConns)
		if err != nil {
			t.Fatalf("%s: %v", tc.url, err)
		}
		if cfg.MaxConns != tc.want {
			t.Errorf("%s with %d: max conns %d, want %d", tc.url, tc.maxConns, cfg.MaxConns, tc.want)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, ".")
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected embedded migrations, got %d (%v)", len(entries), err)
	}
}
