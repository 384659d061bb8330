package fixture

import (
	"os"
	"strings"
	"testing"
	"time"

	"riskmap/internal/domain"
)

func TestParseScenario(t *testing.T) {
	fh, err := os.Open("testdata/scenario.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()

	facts, err := Parse(fh)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(facts.Organizations) != 1 || len(facts.Urls) != 2 || len(facts.Endpoints) != 2 || len(facts.Scans) != 4 {
		t.Fatalf("unexpected counts: %+v", facts)
	}

	gone := facts.Urls[1]
	if !gone.NotResolvable || gone.NotResolvableSince == nil {
		t.Fatalf("expected url 2 to be unresolvable: %+v", gone)
	}

	ep := facts.Endpoints[0]
	if !ep.IsDead || !ep.DeadSince.Equal(time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected endpoint 10 dead since 2020-01-20: %+v", ep)
	}

	tls := facts.Scans[0]
	if tls.Kind != domain.KindTLSScan || tls.EntityID != 10 || tls.LastConfirmedOn.Day() != 8 {
		t.Fatalf("unexpected tls scan: %+v", tls)
	}
	hsts := facts.Scans[1]
	if !hsts.Explained.IsExplained || hsts.Explained.ValidUntil == nil || !hsts.LastConfirmedOn.Equal(hsts.DeterminedOn) {
		t.Fatalf("unexpected hsts scan: %+v", hsts)
	}
	if dns := facts.Scans[3]; dns.Kind != domain.KindUrlScan || dns.EntityID != 2 {
		t.Fatalf("unexpected dnssec scan: %+v", dns)
	}
}

func TestParseRejectsAmbiguousScan(t *testing.T) {
	_, err := Parse(strings.NewReader(`
scans:
  - {id: 1, endpoint: 10, url: 1, type: DNSSEC, rating: ERROR, determined_on: 2020-01-01}
`))
	if err == nil || !strings.Contains(err.Error(), "either endpoint or url") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestParseUnknownField(t *testing.T) {
	if _, err := Parse(strings.NewReader("urls:\n  - {id: 1, url: a.example, colour: red}\n")); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseRevival(t *testing.T) {
	facts, err := Parse(strings.NewReader(`
urls:
  - {id: 1, url: back.example, created_on: 2020-01-01, not_resolvable_since: 2020-02-01, resolvable_since: 2020-03-01}
`))
	if err != nil {
		t.Fatal(err)
	}
	if u := facts.Urls[0]; u.NotResolvable || u.ResolvableSince == nil {
		t.Fatalf("revived url must be resolvable: %+v", u)
	}
}
