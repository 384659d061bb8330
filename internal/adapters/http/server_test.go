package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"riskmap/internal/adapters/memory"
	api "riskmap/internal/api"
	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

func day(n int) time.Time { return time.Date(2020, time.January, n, 9, 0, 0, 0, time.UTC) }

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	_ = store.SaveFacts(ctx, ports.Facts{
		Organizations: []domain.Organization{{ID: 1, Name: "A"}},
		Urls:          []domain.Url{{ID: 1, Url: "a.example", OrganizationIDs: []int64{1}, CreatedOn: day(1)}},
	})
	for _, r := range []domain.UrlRating{
		{UrlID: 1, Moment: domain.EndOfDay(day(1)), High: 1, Calculation: domain.UrlCalculation{Url: "a.example", Severity: domain.Severity{High: 1}}},
		{UrlID: 1, Moment: domain.EndOfDay(day(10)), High: 1, Medium: 1, Calculation: domain.UrlCalculation{Url: "a.example", Severity: domain.Severity{High: 1, Medium: 1}}},
	} {
		_ = store.AppendUrlRating(ctx, r)
	}
	_ = store.AppendOrganizationRating(ctx, domain.OrganizationRating{OrganizationID: 1, Moment: domain.Epoch, Rating: domain.UnratedRating})
	return store
}

func clock() time.Time { return time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC) }

func newServer(t *testing.T) http.Handler {
	store := seeded(t)
	return New(store, store, store, zaptest.NewLogger(t), clock).Routes()
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
	}
	return rec.Code
}

func TestUrlRatingAt(t *testing.T) {
	h := newServer(t)
	tests := []struct {
		path   string
		code   int
		medium int
	}{
		{"/urls/1/rating", http.StatusOK, 1},
		{"/urls/1/rating?at=2020-01-05", http.StatusOK, 0},
		{"/urls/1/rating?at=2020-01-10T23:59:59.999999Z", http.StatusOK, 1},
		{"/urls/1/rating?at=2019-12-31", http.StatusNotFound, 0},
		{"/urls/1/rating?at=yesterday", http.StatusBadRequest, 0},
		{"/urls/x/rating", http.StatusBadRequest, 0},
		{"/urls/2/rating", http.StatusNotFound, 0},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			var body api.UrlRating
			code := get(t, h, tc.path, &body)
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if code == http.StatusOK && body.Medium != tc.medium {
				t.Fatalf("expected medium=%d, got %+v", tc.medium, body)
			}
		})
	}
}

func TestListsAndHealth(t *testing.T) {
	h := newServer(t)
	var health map[string]string
	if code := get(t, h, "/healthz", &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("unexpected health: %d %v", code, health)
	}

	var urls []api.UrlRating
	if code := get(t, h, "/urls/1/ratings", &urls); code != http.StatusOK || len(urls) != 2 {
		t.Fatalf("unexpected url history: %d %+v", code, urls)
	}

	var org api.OrganizationRating
	if code := get(t, h, "/organizations/1/rating", &org); code != http.StatusOK || org.Rating != domain.UnratedRating {
		t.Fatalf("expected the sentinel, got %d %+v", code, org)
	}
	if code := get(t, h, "/organizations/7/rating", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown organization, got %d", code)
	}
}

// failingRatings breaks every url snapshot read.
type failingRatings struct{ *memory.Store }

func (failingRatings) LatestUrlRating(context.Context, int64, time.Time) (domain.UrlRating, bool, error) {
	return domain.UrlRating{}, false, errors.New("connection reset")
}

func TestErrorBodies(t *testing.T) {
	store := seeded(t)
	h := New(store, failingRatings{store}, store, zaptest.NewLogger(t), clock).Routes()
	tests := []struct {
		path string
		code int
		want string
	}{
		{"/urls/x/rating", http.StatusBadRequest, "parameter id"},
		{"/organizations/1/rating?at=soon", http.StatusBadRequest, "RFC 3339"},
		{"/organizations/9/rating", http.StatusNotFound, "not found"},
		{"/urls/1/rating", http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected a JSON error, got %q", ct)
			}
			var body api.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !strings.Contains(body.Error, tc.want) {
				t.Fatalf("expected %q in the error, got %q (%v)", tc.want, body.Error, err)
			}
		})
	}
}
