package ports

import (
	"context"
	"time"
)

// Mode selects how much history a rating job recomputes.
type Mode string

const (
	// FullHistory deletes and rebuilds every snapshot of the entity.
	FullHistory Mode = "full-history"
	// TodayOnly appends a snapshot for now when the rating changed.
	TodayOnly Mode = "today-only"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case FullHistory, TodayOnly:
		return Mode(s), true
	}
	return "", false
}

// UrlRater rebuilds the snapshots of one url.
type UrlRater interface {
	RateUrl(ctx context.Context, urlID int64, mode Mode) error
}

// OrganizationRater rebuilds the snapshots of one organization.
type OrganizationRater interface {
	RateOrganization(ctx context.Context, organizationID int64, mode Mode) error
}

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time
