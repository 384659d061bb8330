package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

const urlColumns = `
    u.id, u.url, u.created_on, u.is_dead, u.dead_since, u.dead_reason,
    u.not_resolvable, u.not_resolvable_since, u.resolvable_since,
    (SELECT json_group_array(organization_id) FROM
        (SELECT organization_id FROM organization_urls WHERE url_id = u.id ORDER BY organization_id))`

type scanner interface {
	Scan(dest ...any) error
}

func scanUrl(row scanner) (domain.Url, error) {
	var (
		u       domain.Url
		created int64
		orgs    string

		deadSince, notResolvableSince, revived sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Url, &created, &u.IsDead, &deadSince, &u.DeadReason,
		&u.NotResolvable, &notResolvableSince, &revived, &orgs)
	if err != nil {
		return u, err
	}
	u.CreatedOn = fromMicros(created)
	u.DeadSince = fromNullMicros(deadSince)
	u.NotResolvableSince = fromNullMicros(notResolvableSince)
	u.ResolvableSince = fromNullMicros(revived)
	if err := json.Unmarshal([]byte(orgs), &u.OrganizationIDs); err != nil {
		return u, fmt.Errorf("url %d organizations: %w", u.ID, err)
	}
	if len(u.OrganizationIDs) == 0 {
		u.OrganizationIDs = nil
	}
	return u, nil
}

func scanEvent(row scanner) (domain.ScanEvent, error) {
	var (
		ev                    domain.ScanEvent
		determined, confirmed int64
		validUntil            sql.NullInt64
	)
	err := row.Scan(&ev.Kind, &ev.ID, &ev.EntityID, &ev.Type, &ev.Rating, &ev.RatingNoTrust, &ev.Explanation,
		&determined, &confirmed, &ev.Explained.IsExplained, &ev.Explained.Explanation, &validUntil)
	ev.DeterminedOn = fromMicros(determined)
	ev.LastConfirmedOn = fromMicros(confirmed)
	ev.Explained.ValidUntil = fromNullMicros(validUntil)
	return ev, err
}

// collect drains rows through fn.
func collect[T any](rows *sql.Rows, fn func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) GetUrlFacts(ctx context.Context, urlID int64) (domain.UrlFacts, error) {
	u, err := scanUrl(db.db.QueryRowContext(ctx, `SELECT `+urlColumns+` FROM urls u WHERE u.id = ?`, urlID))
	if err != nil {
		return domain.UrlFacts{}, notFound(err)
	}
	f := domain.UrlFacts{Url: u}

	rows, err := db.db.QueryContext(ctx, `
        SELECT id, url_id, ip, ip_version, port, protocol, discovered_on, is_dead, dead_since, dead_reason
        FROM endpoints WHERE url_id = ? ORDER BY id
    `, urlID)
	if err != nil {
		return f, err
	}
	f.Endpoints, err = collect(rows, func(row scanner) (domain.Endpoint, error) {
		var (
			ep         domain.Endpoint
			discovered int64
			deadSince  sql.NullInt64
		)
		err := row.Scan(&ep.ID, &ep.UrlID, &ep.IP, &ep.IPVersion, &ep.Port, &ep.Protocol,
			&discovered, &ep.IsDead, &deadSince, &ep.DeadReason)
		ep.DiscoveredOn = fromMicros(discovered)
		ep.DeadSince = fromNullMicros(deadSince)
		return ep, err
	})
	if err != nil {
		return f, err
	}

	rows, err = db.db.QueryContext(ctx, `
        SELECT s.kind, s.id, s.endpoint_id, s.type, s.rating, s.rating_no_trust, s.explanation,
               s.determined_on, s.last_confirmed_on, s.is_explained, s.explained_explanation, s.explained_valid_until
        FROM endpoint_scans s JOIN endpoints e ON e.id = s.endpoint_id
        WHERE e.url_id = ? ORDER BY s.determined_on, s.id
    `, urlID)
	if err != nil {
		return f, err
	}
	if f.EndpointScans, err = collect(rows, scanEvent); err != nil {
		return f, err
	}

	rows, err = db.db.QueryContext(ctx, `
        SELECT 'url', id, url_id, type, rating, '', explanation,
               determined_on, last_confirmed_on, is_explained, explained_explanation, explained_valid_until
        FROM url_scans WHERE url_id = ? ORDER BY determined_on, id
    `, urlID)
	if err != nil {
		return f, err
	}
	if f.UrlScans, err = collect(rows, scanEvent); err != nil {
		return f, err
	}
	return f, nil
}

// ListUrls filters in Go; a sqlite store holds few enough urls for that.
func (db *DB) ListUrls(ctx context.Context, filter ports.UrlFilter) ([]domain.Url, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT `+urlColumns+` FROM urls u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	urls, err := collect(rows, scanUrl)
	if err != nil {
		return nil, err
	}
	out := urls[:0]
	for _, u := range urls {
		if filter.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (db *DB) GetOrganization(ctx context.Context, organizationID int64) (domain.Organization, error) {
	var o domain.Organization
	err := db.db.QueryRowContext(ctx, `SELECT id, name, type, country FROM organizations WHERE id = ?`, organizationID).
		Scan(&o.ID, &o.Name, &o.Type, &o.Country)
	return o, notFound(err)
}

func (db *DB) ListOrganizationUrls(ctx context.Context, organizationID int64) ([]domain.Url, error) {
	return db.ListUrls(ctx, ports.UrlFilter{OrganizationIDs: []int64{organizationID}})
}

func (db *DB) OrganizationsForUrls(ctx context.Context, urlIDs []int64) ([]int64, error) {
	ids, err := json.Marshal(nonNil(urlIDs))
	if err != nil {
		return nil, err
	}
	rows, err := db.db.QueryContext(ctx, `
        SELECT DISTINCT organization_id FROM organization_urls
        WHERE url_id IN (SELECT value FROM json_each(?)) ORDER BY organization_id
    `, string(ids))
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (int64, error) {
		var id int64
		return id, row.Scan(&id)
	})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (db *DB) SaveFacts(ctx context.Context, f ports.Facts) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, o := range f.Organizations {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO organizations (id, name, type, country) VALUES (?, ?, ?, ?)
                ON CONFLICT (id) DO UPDATE SET name = excluded.name, type = excluded.type, country = excluded.country
            `, o.ID, o.Name, o.Type, o.Country); err != nil {
				return fmt.Errorf("saving organization %d: %w", o.ID, err)
			}
		}
		for _, u := range f.Urls {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO urls (id, url, created_on, is_dead, dead_since, dead_reason,
                                  not_resolvable, not_resolvable_since, resolvable_since)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT (id) DO UPDATE SET
                    url = excluded.url, created_on = excluded.created_on,
                    is_dead = excluded.is_dead, dead_since = excluded.dead_since, dead_reason = excluded.dead_reason,
                    not_resolvable = excluded.not_resolvable, not_resolvable_since = excluded.not_resolvable_since,
                    resolvable_since = excluded.resolvable_since
            `, u.ID, u.Url, micros(u.CreatedOn), u.IsDead, nullMicros(u.DeadSince), u.DeadReason,
				u.NotResolvable, nullMicros(u.NotResolvableSince), nullMicros(u.ResolvableSince)); err != nil {
				return fmt.Errorf("saving url %d: %w", u.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM organization_urls WHERE url_id = ?`, u.ID); err != nil {
				return err
			}
			for _, org := range u.OrganizationIDs {
				if _, err := tx.ExecContext(ctx, `INSERT INTO organization_urls (organization_id, url_id) VALUES (?, ?)`, org, u.ID); err != nil {
					return fmt.Errorf("linking url %d to organization %d: %w", u.ID, org, err)
				}
			}
		}
		for _, ep := range f.Endpoints {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO endpoints (id, url_id, ip, ip_version, port, protocol, discovered_on, is_dead, dead_since, dead_reason)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT (id) DO UPDATE SET
                    url_id = excluded.url_id, ip = excluded.ip, ip_version = excluded.ip_version,
                    port = excluded.port, protocol = excluded.protocol, discovered_on = excluded.discovered_on,
                    is_dead = excluded.is_dead, dead_since = excluded.dead_since, dead_reason = excluded.dead_reason
            `, ep.ID, ep.UrlID, ep.IP, ep.IPVersion, ep.Port, ep.Protocol, micros(ep.DiscoveredOn),
				ep.IsDead, nullMicros(ep.DeadSince), ep.DeadReason); err != nil {
				return fmt.Errorf("saving endpoint %d: %w", ep.ID, err)
			}
		}
		for _, ev := range f.Scans {
			if err := saveScan(ctx, tx, ev); err != nil {
				return fmt.Errorf("saving %s scan %d: %w", ev.Kind, ev.ID, err)
			}
		}
		return nil
	})
}

func saveScan(ctx context.Context, tx *sql.Tx, ev domain.ScanEvent) error {
	x := ev.Explained
	if ev.Kind == domain.KindUrlScan {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO url_scans (id, url_id, type, rating, explanation, determined_on, last_confirmed_on,
                                   is_explained, explained_explanation, explained_valid_until)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET
                last_confirmed_on = excluded.last_confirmed_on, is_explained = excluded.is_explained,
                explained_explanation = excluded.explained_explanation,
                explained_valid_until = excluded.explained_valid_until
        `, ev.ID, ev.EntityID, string(ev.Type), ev.Rating, ev.Explanation, micros(ev.DeterminedOn), micros(ev.LastConfirmedOn),
			x.IsExplained, x.Explanation, nullMicros(x.ValidUntil))
		return err
	}
	_, err := tx.ExecContext(ctx, `
        INSERT INTO endpoint_scans (kind, id, endpoint_id, type, rating, rating_no_trust, explanation,
                                    determined_on, last_confirmed_on, is_explained, explained_explanation, explained_valid_until)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (kind, id) DO UPDATE SET
            last_confirmed_on = excluded.last_confirmed_on, is_explained = excluded.is_explained,
            explained_explanation = excluded.explained_explanation,
            explained_valid_until = excluded.explained_valid_until
    `, string(ev.Kind), ev.ID, ev.EntityID, string(ev.Type), ev.Rating, ev.RatingNoTrust, ev.Explanation,
		micros(ev.DeterminedOn), micros(ev.LastConfirmedOn), x.IsExplained, x.Explanation, nullMicros(x.ValidUntil))
	return err
}
