package domain

import (
	"errors"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2020, time.January, n, 12, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestEndOfDay(t *testing.T) {
	in := time.Date(2021, time.March, 4, 1, 2, 3, 0, time.FixedZone("CET", 3600))
	got := EndOfDay(in)
	want := time.Date(2021, time.March, 4, 23, 59, 59, 999999000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("EndOfDay = %s, want %s", got, want)
	}
	// 00:30 CET is still the previous day in UTC
	early := time.Date(2021, time.March, 4, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := StartOfDay(early); !got.Equal(time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOfDay = %s", got)
	}
}

func TestSameUrlCalculationIgnoresOrder(t *testing.T) {
	f1 := Finding{Type: ScanHSTS, Severity: Severity{Medium: 1}}
	f2 := Finding{Type: ScanTLSQualys, Severity: Severity{High: 1}}
	a := UrlCalculation{Url: "a.example", Endpoints: []EndpointCalculation{
		{ID: 1, Port: 443, Findings: []Finding{f1, f2}},
		{ID: 2, Port: 80},
	}}
	b := UrlCalculation{Url: "a.example", Endpoints: []EndpointCalculation{
		{ID: 2, Port: 80, Findings: []Finding{}},
		{ID: 1, Port: 443, Findings: []Finding{f2, f1}},
	}}
	if !SameUrlCalculation(a, b) {
		t.Fatal("expected calculations to be equal regardless of order")
	}
	b.Endpoints[1].Findings[0].High = 2
	if SameUrlCalculation(a, b) {
		t.Fatal("expected calculations to differ")
	}
}

func TestSortFindingsWorstFirst(t *testing.T) {
	f := []Finding{
		{Type: ScanXXSSProtection, Severity: Severity{Low: 1}},
		{Type: ScanHSTS, Severity: Severity{Medium: 1}},
		{Type: ScanTLSQualys, Severity: Severity{High: 1}},
		{Type: ScanFTP},
	}
	SortFindings(f)
	want := []ScanType{ScanTLSQualys, ScanHSTS, ScanXXSSProtection, ScanFTP}
	for i, typ := range want {
		if f[i].Type != typ {
			t.Fatalf("position %d: got %s, want %s", i, f[i].Type, typ)
		}
	}
}

func TestValidate(t *testing.T) {
	base := Url{ID: 1, Url: "a.example", CreatedOn: day(1)}
	tests := []struct {
		name    string
		facts   UrlFacts
		wantErr bool
	}{
		{name: "clean", facts: UrlFacts{Url: base}},
		{name: "dead without date", facts: UrlFacts{Url: Url{ID: 1, CreatedOn: day(1), IsDead: true}}, wantErr: true},
		{name: "dead before created", facts: UrlFacts{Url: Url{ID: 1, CreatedOn: day(5), IsDead: true, DeadSince: ptr(day(2))}}, wantErr: true},
		{name: "unresolvable without date", facts: UrlFacts{Url: Url{ID: 1, CreatedOn: day(1), NotResolvable: true}}, wantErr: true},
		{name: "revived before window", facts: UrlFacts{Url: Url{ID: 1, CreatedOn: day(1),
			NotResolvableSince: ptr(day(5)), ResolvableSince: ptr(day(3))}}, wantErr: true},
		{name: "unresolvable after death", facts: UrlFacts{Url: Url{ID: 1, CreatedOn: day(1),
			IsDead: true, DeadSince: ptr(day(3)), NotResolvable: true, NotResolvableSince: ptr(day(6))}}, wantErr: true},
		{name: "endpoint dead before discovery", facts: UrlFacts{Url: base, Endpoints: []Endpoint{
			{ID: 7, UrlID: 1, DiscoveredOn: day(5), IsDead: true, DeadSince: ptr(day(4))},
		}}, wantErr: true},
		{name: "endpoint of another url", facts: UrlFacts{Url: base, Endpoints: []Endpoint{{ID: 7, UrlID: 2}}}, wantErr: true},
		{name: "endpoint died later", facts: UrlFacts{Url: base, Endpoints: []Endpoint{
			{ID: 7, UrlID: 1, DiscoveredOn: day(1), IsDead: true, DeadSince: ptr(day(4))},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.facts.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInconsistentLifecycle) {
					t.Fatalf("expected ErrInconsistentLifecycle, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUrlAliveAt(t *testing.T) {
	revived := Url{CreatedOn: day(1), NotResolvableSince: ptr(day(5)), ResolvableSince: ptr(day(8))}
	if !revived.AliveAt(day(4)) || revived.AliveAt(day(6)) || !revived.AliveAt(day(9)) {
		t.Fatal("revived url should be alive outside its unresolvable window only")
	}
	dead := Url{CreatedOn: day(1), IsDead: true, DeadSince: ptr(day(3))}
	if dead.AliveAt(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)) || !dead.AliveAt(day(2)) || dead.AliveAt(day(3)) {
		t.Fatal("dead url alive window is [created, dead_since)")
	}
}

func TestStorageWriteErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := WriteError("replace url ratings", 4, inner)
	var swe *StorageWriteError
	if !errors.As(err, &swe) || swe.EntityID != 4 {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected wrapped error to match")
	}
	if WriteError("noop", 1, nil) != nil {
		t.Fatal("nil error must stay nil")
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2020-01-05")
	if err != nil || !got.Equal(EndOfDay(day(5))) {
		t.Fatalf("date: got %s, %v", got, err)
	}
	got, err = ParseInstant("2020-01-05T10:00:00+02:00")
	if err != nil || !got.Equal(time.Date(2020, time.January, 5, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339: got %s, %v", got, err)
	}
	if _, err := ParseInstant("tomorrow"); err == nil {
		t.Fatal("expected an error")
	}
}
