package domain

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"time"
)

// Severity counts issues per tier.
type Severity struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func (s Severity) Add(o Severity) Severity {
	return Severity{High: s.High + o.High, Medium: s.Medium + o.Medium, Low: s.Low + o.Low}
}

func (s Severity) IsZero() bool { return s == Severity{} }

func (s Severity) Total() int { return s.High + s.Medium + s.Low }

// Compare orders by high, then medium, then low.
func (s Severity) Compare(o Severity) int {
	if c := cmp.Compare(s.High, o.High); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Medium, o.Medium); c != 0 {
		return c
	}
	return cmp.Compare(s.Low, o.Low)
}

// Finding is one classified scan event as it appears in a calculation.
type Finding struct {
	Type        ScanType `json:"type"`
	Explanation string   `json:"explanation"`
	Severity
	Since    time.Time `json:"since"`
	LastScan time.Time `json:"last_scan"`

	IsExplained         bool       `json:"is_explained"`
	ExplanationText     string     `json:"comply_or_explain_explanation,omitempty"`
	ExplainedValidUntil *time.Time `json:"comply_or_explain_valid_until,omitempty"`
	ValidAtTimeOfReport bool       `json:"comply_or_explain_valid_at_time_of_report"`
}

type EndpointCalculation struct {
	ID        int64  `json:"id"`
	IP        string `json:"ip"`
	IPVersion int    `json:"ip_version"`
	Port      int    `json:"port"`
	Protocol  string `json:"protocol"`
	Severity
	Explained Severity  `json:"explained"`
	Findings  []Finding `json:"ratings"`
}

type UrlCalculation struct {
	Url string `json:"url"`
	Severity
	Explained Severity              `json:"explained"`
	Endpoints []EndpointCalculation `json:"endpoints"`
	Findings  []Finding             `json:"ratings"`
}

type OrganizationCalculation struct {
	Organization string `json:"organization"`
	Severity
	Explained Severity         `json:"explained"`
	TotalUrls int              `json:"total_urls"`
	Urls      []UrlCalculation `json:"urls"`
}

func worstFirst(a, b Severity) int { return b.Compare(a) }

// SortFindings orders findings worst-first; ties are broken by type.
func SortFindings(f []Finding) {
	slices.SortStableFunc(f, func(a, b Finding) int {
		if c := worstFirst(a.Severity, b.Severity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return a.Since.Compare(b.Since)
	})
}

// SortEndpoints orders endpoints worst-first; ties are broken by address.
func SortEndpoints(e []EndpointCalculation) {
	slices.SortStableFunc(e, func(a, b EndpointCalculation) int {
		if c := worstFirst(a.Severity, b.Severity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Protocol, b.Protocol); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Port, b.Port); c != 0 {
			return c
		}
		if c := cmp.Compare(a.IPVersion, b.IPVersion); c != 0 {
			return c
		}
		if c := cmp.Compare(a.IP, b.IP); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortUrls orders url calculations worst-first; ties are broken by url.
func SortUrls(u []UrlCalculation) {
	slices.SortStableFunc(u, func(a, b UrlCalculation) int {
		if c := worstFirst(a.Severity, b.Severity); c != 0 {
			return c
		}
		return cmp.Compare(a.Url, b.Url)
	})
}

// Canonical returns a deep copy with every nested list in canonical order.
func (c UrlCalculation) Canonical() UrlCalculation {
	out := c
	out.Findings = canonicalFindings(c.Findings)
	out.Endpoints = make([]EndpointCalculation, len(c.Endpoints))
	for i, ep := range c.Endpoints {
		ep.Findings = canonicalFindings(ep.Findings)
		out.Endpoints[i] = ep
	}
	SortEndpoints(out.Endpoints)
	return out
}

func (c OrganizationCalculation) Canonical() OrganizationCalculation {
	out := c
	out.Urls = make([]UrlCalculation, len(c.Urls))
	for i, u := range c.Urls {
		out.Urls[i] = u.Canonical()
	}
	SortUrls(out.Urls)
	return out
}

func canonicalFindings(f []Finding) []Finding {
	out := make([]Finding, len(f))
	copy(out, f)
	SortFindings(out)
	return out
}

// SameUrlCalculation compares two calculations structurally, ignoring the
// order of nested lists.
func SameUrlCalculation(a, b UrlCalculation) bool {
	return sameJSON(a.Canonical(), b.Canonical())
}

func SameOrganizationCalculation(a, b OrganizationCalculation) bool {
	return sameJSON(a.Canonical(), b.Canonical())
}

func sameJSON(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
