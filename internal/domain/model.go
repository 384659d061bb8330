package domain

import "time"

// Core facts consumed by the rating engine. Scanners own these rows; the
// engine only reads them.

type Organization struct {
	ID      int64
	Name    string
	Type    string
	Country string
}

type Url struct {
	ID              int64
	Url             string
	OrganizationIDs []int64
	CreatedOn       time.Time

	IsDead     bool
	DeadSince  *time.Time
	DeadReason string

	NotResolvable      bool
	NotResolvableSince *time.Time
	// ResolvableSince is set when a url came back after an unresolvable window.
	ResolvableSince *time.Time
}

// AliveAt reports whether the url's own lifecycle window contains t.
func (u Url) AliveAt(t time.Time) bool {
	if u.CreatedOn.After(t) {
		return false
	}
	if u.IsDead && u.DeadSince != nil && !u.DeadSince.After(t) {
		return false
	}
	if u.NotResolvableSince != nil && !u.NotResolvableSince.After(t) {
		if u.NotResolvable {
			return false
		}
		// revived: only the window itself is excluded
		if u.ResolvableSince != nil && u.ResolvableSince.After(t) {
			return false
		}
	}
	return true
}

type Endpoint struct {
	ID           int64
	UrlID        int64
	IP           string
	IPVersion    int // 4 or 6
	Port         int
	Protocol     string
	DiscoveredOn time.Time
	IsDead       bool
	DeadSince    *time.Time
	DeadReason   string
}

// Label identifies the logical service an endpoint exposes. Endpoints that
// only differ by address share a label.
type Label struct {
	IPVersion int
	Port      int
}

func (e Endpoint) Label() Label { return Label{IPVersion: e.IPVersion, Port: e.Port} }

// EventKind tells which entity a scan event is attached to.
type EventKind string

const (
	KindEndpointScan EventKind = "endpoint"
	KindUrlScan      EventKind = "url"
	KindTLSScan      EventKind = "tls"
)

// Explanation is a comply-or-explain annotation on a finding.
type Explanation struct {
	IsExplained bool
	Explanation string
	ValidUntil  *time.Time
}

// ScanEvent is an immutable observation. A changed rating is a new event;
// a reconfirmation only moves LastConfirmedOn.
type ScanEvent struct {
	ID       int64
	Kind     EventKind
	EntityID int64 // endpoint id for endpoint/tls scans, url id for url scans
	Type     ScanType
	Rating   string
	// RatingNoTrust is the grade ignoring certificate trust (tls scans only).
	RatingNoTrust   string
	Explanation     string
	DeterminedOn    time.Time
	LastConfirmedOn time.Time
	Explained       Explanation
}

// UrlFacts is everything the engine needs to rebuild the history of one url.
type UrlFacts struct {
	Url           Url
	Endpoints     []Endpoint
	EndpointScans []ScanEvent
	UrlScans      []ScanEvent
}

// UrlRating is a point-in-time snapshot of a url.
type UrlRating struct {
	ID          int64
	UrlID       int64
	Moment      time.Time
	High        int
	Medium      int
	Low         int
	Calculation UrlCalculation
}

// OrganizationRating is a point-in-time rollup of an organization's urls.
// Rating is -1 for the default "unrated" snapshot and the total number of
// issues otherwise.
type OrganizationRating struct {
	ID             int64
	OrganizationID int64
	Moment         time.Time
	Rating         int
	High           int
	Medium         int
	Low            int
	Calculation    OrganizationCalculation
}

// IsDefault reports whether r is the sentinel "unrated" snapshot.
func (r OrganizationRating) IsDefault() bool { return r.Rating == UnratedRating }

const UnratedRating = -1
