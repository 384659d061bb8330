package domain

import "fmt"

// Validate rejects facts that contradict each other. A url with an
// inconsistent lifecycle is never rated.
func (f UrlFacts) Validate() error {
	u := f.Url
	if u.IsDead {
		if u.DeadSince == nil {
			return fmt.Errorf("%w: url %d is dead without dead_since", ErrInconsistentLifecycle, u.ID)
		}
		if u.DeadSince.Before(u.CreatedOn) {
			return fmt.Errorf("%w: url %d died %s before it was created %s", ErrInconsistentLifecycle, u.ID,
				u.DeadSince.Format("2006-01-02"), u.CreatedOn.Format("2006-01-02"))
		}
	}
	if u.NotResolvable && u.NotResolvableSince == nil {
		return fmt.Errorf("%w: url %d is not resolvable without not_resolvable_since", ErrInconsistentLifecycle, u.ID)
	}
	if u.ResolvableSince != nil && u.NotResolvableSince != nil && u.NotResolvable &&
		u.ResolvableSince.After(*u.NotResolvableSince) {
		return fmt.Errorf("%w: url %d revived after it became unresolvable but is still unresolvable", ErrInconsistentLifecycle, u.ID)
	}
	if u.ResolvableSince != nil && u.NotResolvableSince != nil && !u.NotResolvable &&
		u.ResolvableSince.Before(*u.NotResolvableSince) {
		return fmt.Errorf("%w: url %d revived before it became unresolvable", ErrInconsistentLifecycle, u.ID)
	}
	if u.IsDead && u.NotResolvable && u.NotResolvableSince.After(*u.DeadSince) {
		return fmt.Errorf("%w: url %d became unresolvable after it died", ErrInconsistentLifecycle, u.ID)
	}

	for _, ep := range f.Endpoints {
		if ep.UrlID != u.ID {
			return fmt.Errorf("%w: endpoint %d belongs to url %d, not %d", ErrInconsistentLifecycle, ep.ID, ep.UrlID, u.ID)
		}
		if !ep.IsDead {
			continue
		}
		if ep.DeadSince == nil {
			return fmt.Errorf("%w: endpoint %d is dead without dead_since", ErrInconsistentLifecycle, ep.ID)
		}
		if ep.DeadSince.Before(ep.DiscoveredOn) {
			return fmt.Errorf("%w: endpoint %d died %s before it was discovered %s", ErrInconsistentLifecycle, ep.ID,
				ep.DeadSince.Format("2006-01-02"), ep.DiscoveredOn.Format("2006-01-02"))
		}
	}
	return nil
}
