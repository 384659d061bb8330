// Package fixture reads fact sets written in YAML.
//
//	organizations:
//	  - {id: 1, name: Gemeente A, type: municipality, country: NL}
//	urls:
//	  - {id: 1, url: a.example, organizations: [1], created_on: 2020-01-01}
//	endpoints:
//	  - {id: 10, url: 1, ip: 192.0.2.1, ip_version: 4, port: 443, protocol: https, discovered_on: 2020-01-01}
//	scans:
//	  - {id: 1, endpoint: 10, type: tls_qualys, rating: F, determined_on: 2020-01-01}
//
// Dates are YAML timestamps. Scans point at either an endpoint or a url.
package fixture

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

type document struct {
	Organizations []organization `yaml:"organizations"`
	Urls          []url          `yaml:"urls"`
	Endpoints     []endpoint     `yaml:"endpoints"`
	Scans         []scan         `yaml:"scans"`
}

type organization struct {
	ID      int64  `yaml:"id"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Country string `yaml:"country"`
}

type url struct {
	ID                 int64      `yaml:"id"`
	Url                string     `yaml:"url"`
	Organizations      []int64    `yaml:"organizations"`
	CreatedOn          time.Time  `yaml:"created_on"`
	IsDead             *bool      `yaml:"is_dead"`
	DeadSince          *time.Time `yaml:"dead_since"`
	DeadReason         string     `yaml:"dead_reason"`
	NotResolvable      *bool      `yaml:"not_resolvable"`
	NotResolvableSince *time.Time `yaml:"not_resolvable_since"`
	ResolvableSince    *time.Time `yaml:"resolvable_since"`
}

type endpoint struct {
	ID           int64      `yaml:"id"`
	Url          int64      `yaml:"url"`
	IP           string     `yaml:"ip"`
	IPVersion    int        `yaml:"ip_version"`
	Port         int        `yaml:"port"`
	Protocol     string     `yaml:"protocol"`
	DiscoveredOn time.Time  `yaml:"discovered_on"`
	IsDead       *bool      `yaml:"is_dead"`
	DeadSince    *time.Time `yaml:"dead_since"`
	DeadReason   string     `yaml:"dead_reason"`
}

type scan struct {
	ID              int64      `yaml:"id"`
	Endpoint        int64      `yaml:"endpoint"`
	Url             int64      `yaml:"url"`
	Type            string     `yaml:"type"`
	Rating          string     `yaml:"rating"`
	RatingNoTrust   string     `yaml:"rating_no_trust"`
	Explanation     string     `yaml:"explanation"`
	DeterminedOn    time.Time  `yaml:"determined_on"`
	LastConfirmedOn *time.Time `yaml:"last_confirmed_on"`
	Explained       *explained `yaml:"explained"`
}

type explained struct {
	Explanation string     `yaml:"explanation"`
	ValidUntil  *time.Time `yaml:"valid_until"`
}

// Parse decodes a fixture. Flags default to the presence of their date:
// a dead_since without is_dead marks the entity dead.
func Parse(r io.Reader) (ports.Facts, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return ports.Facts{}, nil
		}
		return ports.Facts{}, fmt.Errorf("parsing fixture: %w", err)
	}

	var out ports.Facts
	for _, o := range doc.Organizations {
		out.Organizations = append(out.Organizations, domain.Organization(o))
	}
	for _, u := range doc.Urls {
		if u.Url == "" {
			return ports.Facts{}, fmt.Errorf("url %d: url is required", u.ID)
		}
		out.Urls = append(out.Urls, domain.Url{
			ID:                 u.ID,
			Url:                u.Url,
			OrganizationIDs:    u.Organizations,
			CreatedOn:          u.CreatedOn.UTC(),
			IsDead:             flag(u.IsDead, u.DeadSince),
			DeadSince:          utc(u.DeadSince),
			DeadReason:         u.DeadReason,
			NotResolvable:      notResolvable(u),
			NotResolvableSince: utc(u.NotResolvableSince),
			ResolvableSince:    utc(u.ResolvableSince),
		})
	}
	for _, ep := range doc.Endpoints {
		version := ep.IPVersion
		if version == 0 {
			version = 4
		}
		out.Endpoints = append(out.Endpoints, domain.Endpoint{
			ID:           ep.ID,
			UrlID:        ep.Url,
			IP:           ep.IP,
			IPVersion:    version,
			Port:         ep.Port,
			Protocol:     ep.Protocol,
			DiscoveredOn: ep.DiscoveredOn.UTC(),
			IsDead:       flag(ep.IsDead, ep.DeadSince),
			DeadSince:    utc(ep.DeadSince),
			DeadReason:   ep.DeadReason,
		})
	}
	for _, sc := range doc.Scans {
		ev, err := sc.event()
		if err != nil {
			return ports.Facts{}, err
		}
		out.Scans = append(out.Scans, ev)
	}
	return out, nil
}

func (sc scan) event() (domain.ScanEvent, error) {
	ev := domain.ScanEvent{
		ID:              sc.ID,
		Type:            domain.ScanType(sc.Type),
		Rating:          sc.Rating,
		RatingNoTrust:   sc.RatingNoTrust,
		Explanation:     sc.Explanation,
		DeterminedOn:    sc.DeterminedOn.UTC(),
		LastConfirmedOn: sc.DeterminedOn.UTC(),
	}
	if sc.LastConfirmedOn != nil {
		ev.LastConfirmedOn = sc.LastConfirmedOn.UTC()
	}
	switch {
	case sc.Url != 0 && sc.Endpoint != 0:
		return ev, fmt.Errorf("scan %d: set either endpoint or url, not both", sc.ID)
	case sc.Url != 0:
		ev.Kind, ev.EntityID = domain.KindUrlScan, sc.Url
	case sc.Endpoint != 0:
		ev.Kind, ev.EntityID = domain.KindEndpointScan, sc.Endpoint
		if ev.Type == domain.ScanTLSQualys {
			ev.Kind = domain.KindTLSScan
		}
	default:
		return ev, fmt.Errorf("scan %d: endpoint or url is required", sc.ID)
	}
	if sc.Explained != nil {
		ev.Explained = domain.Explanation{
			IsExplained: true,
			Explanation: sc.Explained.Explanation,
			ValidUntil:  utc(sc.Explained.ValidUntil),
		}
	}
	return ev, nil
}

// notResolvable treats a revival date as the end of the unresolvable window
// unless the flag is given explicitly.
func notResolvable(u url) bool {
	if u.NotResolvable == nil && u.ResolvableSince != nil {
		return false
	}
	return flag(u.NotResolvable, u.NotResolvableSince)
}

func flag(explicit *bool, since *time.Time) bool {
	if explicit != nil {
		return *explicit
	}
	return since != nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
