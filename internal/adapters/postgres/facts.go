package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

const urlColumns = `
    u.id, u.url, u.created_on, u.is_dead, u.dead_since, u.dead_reason,
    u.not_resolvable, u.not_resolvable_since, u.resolvable_since,
    COALESCE((SELECT array_agg(ou.organization_id ORDER BY ou.organization_id)
              FROM organization_urls ou WHERE ou.url_id = u.id), '{}')`

func scanUrl(row pgx.Row) (domain.Url, error) {
	var u domain.Url
	err := row.Scan(&u.ID, &u.Url, &u.CreatedOn, &u.IsDead, &u.DeadSince, &u.DeadReason,
		&u.NotResolvable, &u.NotResolvableSince, &u.ResolvableSince, &u.OrganizationIDs)
	return u, err
}

func (db *DB) GetUrlFacts(ctx context.Context, urlID int64) (domain.UrlFacts, error) {
	u, err := scanUrl(db.Pool.QueryRow(ctx, `SELECT `+urlColumns+` FROM urls u WHERE u.id = $1`, urlID))
	if err != nil {
		return domain.UrlFacts{}, notFound(err)
	}
	f := domain.UrlFacts{Url: u}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, url_id, ip, ip_version, port, protocol, discovered_on, is_dead, dead_since, dead_reason
        FROM endpoints WHERE url_id = $1 ORDER BY id
    `, urlID)
	if err != nil {
		return f, err
	}
	f.Endpoints, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Endpoint, error) {
		var ep domain.Endpoint
		err := row.Scan(&ep.ID, &ep.UrlID, &ep.IP, &ep.IPVersion, &ep.Port, &ep.Protocol,
			&ep.DiscoveredOn, &ep.IsDead, &ep.DeadSince, &ep.DeadReason)
		return ep, err
	})
	if err != nil {
		return f, err
	}

	rows, err = db.Pool.Query(ctx, `
        SELECT s.kind, s.id, s.endpoint_id, s.type, s.rating, s.rating_no_trust, s.explanation,
               s.determined_on, s.last_confirmed_on, s.is_explained, s.explained_explanation, s.explained_valid_until
        FROM endpoint_scans s JOIN endpoints e ON e.id = s.endpoint_id
        WHERE e.url_id = $1 ORDER BY s.determined_on, s.id
    `, urlID)
	if err != nil {
		return f, err
	}
	if f.EndpointScans, err = pgx.CollectRows(rows, scanEvent); err != nil {
		return f, err
	}

	rows, err = db.Pool.Query(ctx, `
        SELECT 'url', id, url_id, type, rating, '', explanation,
               determined_on, last_confirmed_on, is_explained, explained_explanation, explained_valid_until
        FROM url_scans WHERE url_id = $1 ORDER BY determined_on, id
    `, urlID)
	if err != nil {
		return f, err
	}
	if f.UrlScans, err = pgx.CollectRows(rows, scanEvent); err != nil {
		return f, err
	}
	return f, nil
}

func scanEvent(row pgx.CollectableRow) (domain.ScanEvent, error) {
	var ev domain.ScanEvent
	err := row.Scan(&ev.Kind, &ev.ID, &ev.EntityID, &ev.Type, &ev.Rating, &ev.RatingNoTrust, &ev.Explanation,
		&ev.DeterminedOn, &ev.LastConfirmedOn, &ev.Explained.IsExplained, &ev.Explained.Explanation, &ev.Explained.ValidUntil)
	return ev, err
}

// ListUrls pushes id and organization filters into SQL. Domain filters need
// the public suffix list and are applied after loading.
func (db *DB) ListUrls(ctx context.Context, filter ports.UrlFilter) ([]domain.Url, error) {
	query := `SELECT ` + urlColumns + ` FROM urls u`
	var args []any
	if !filter.Empty() && len(filter.Domains) == 0 {
		query += `
        WHERE u.id = ANY($1)
           OR EXISTS (SELECT 1 FROM organization_urls ou WHERE ou.url_id = u.id AND ou.organization_id = ANY($2))`
		args = append(args, nonNil(filter.IDs), nonNil(filter.OrganizationIDs))
	}
	query += ` ORDER BY u.id`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	urls, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Url, error) { return scanUrl(row) })
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

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (db *DB) GetOrganization(ctx context.Context, organizationID int64) (domain.Organization, error) {
	var o domain.Organization
	err := db.Pool.QueryRow(ctx, `SELECT id, name, type, country FROM organizations WHERE id = $1`, organizationID).
		Scan(&o.ID, &o.Name, &o.Type, &o.Country)
	return o, notFound(err)
}

func (db *DB) ListOrganizationUrls(ctx context.Context, organizationID int64) ([]domain.Url, error) {
	return db.ListUrls(ctx, ports.UrlFilter{OrganizationIDs: []int64{organizationID}})
}

func (db *DB) OrganizationsForUrls(ctx context.Context, urlIDs []int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT DISTINCT organization_id FROM organization_urls
        WHERE url_id = ANY($1) ORDER BY organization_id
    `, nonNil(urlIDs))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// SaveFacts upserts facts by id in one transaction.
func (db *DB) SaveFacts(ctx context.Context, f ports.Facts) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, o := range f.Organizations {
			b.Queue(`
                INSERT INTO organizations (id, name, type, country) VALUES ($1, $2, $3, $4)
                ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, country = EXCLUDED.country
            `, o.ID, o.Name, o.Type, o.Country)
		}
		for _, u := range f.Urls {
			b.Queue(`
                INSERT INTO urls (id, url, created_on, is_dead, dead_since, dead_reason,
                                  not_resolvable, not_resolvable_since, resolvable_since)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                ON CONFLICT (id) DO UPDATE SET
                    url = EXCLUDED.url, created_on = EXCLUDED.created_on,
                    is_dead = EXCLUDED.is_dead, dead_since = EXCLUDED.dead_since, dead_reason = EXCLUDED.dead_reason,
                    not_resolvable = EXCLUDED.not_resolvable, not_resolvable_since = EXCLUDED.not_resolvable_since,
                    resolvable_since = EXCLUDED.resolvable_since
            `, u.ID, u.Url, u.CreatedOn, u.IsDead, u.DeadSince, u.DeadReason,
				u.NotResolvable, u.NotResolvableSince, u.ResolvableSince)
			b.Queue(`DELETE FROM organization_urls WHERE url_id = $1`, u.ID)
			for _, org := range u.OrganizationIDs {
				b.Queue(`INSERT INTO organization_urls (organization_id, url_id) VALUES ($1, $2)`, org, u.ID)
			}
		}
		for _, ep := range f.Endpoints {
			b.Queue(`
                INSERT INTO endpoints (id, url_id, ip, ip_version, port, protocol, discovered_on, is_dead, dead_since, dead_reason)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                ON CONFLICT (id) DO UPDATE SET
                    url_id = EXCLUDED.url_id, ip = EXCLUDED.ip, ip_version = EXCLUDED.ip_version,
                    port = EXCLUDED.port, protocol = EXCLUDED.protocol, discovered_on = EXCLUDED.discovered_on,
                    is_dead = EXCLUDED.is_dead, dead_since = EXCLUDED.dead_since, dead_reason = EXCLUDED.dead_reason
            `, ep.ID, ep.UrlID, ep.IP, ep.IPVersion, ep.Port, ep.Protocol, ep.DiscoveredOn, ep.IsDead, ep.DeadSince, ep.DeadReason)
		}
		for _, ev := range f.Scans {
			x := ev.Explained
			if ev.Kind == domain.KindUrlScan {
				b.Queue(`
                    INSERT INTO url_scans (id, url_id, type, rating, explanation, determined_on, last_confirmed_on,
                                           is_explained, explained_explanation, explained_valid_until)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                    ON CONFLICT (id) DO UPDATE SET
                        last_confirmed_on = EXCLUDED.last_confirmed_on, is_explained = EXCLUDED.is_explained,
                        explained_explanation = EXCLUDED.explained_explanation,
                        explained_valid_until = EXCLUDED.explained_valid_until
                `, ev.ID, ev.EntityID, ev.Type, ev.Rating, ev.Explanation, ev.DeterminedOn, ev.LastConfirmedOn,
					x.IsExplained, x.Explanation, x.ValidUntil)
				continue
			}
			b.Queue(`
                INSERT INTO endpoint_scans (kind, id, endpoint_id, type, rating, rating_no_trust, explanation,
                                            determined_on, last_confirmed_on, is_explained, explained_explanation, explained_valid_until)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
                ON CONFLICT (kind, id) DO UPDATE SET
                    last_confirmed_on = EXCLUDED.last_confirmed_on, is_explained = EXCLUDED.is_explained,
                    explained_explanation = EXCLUDED.explained_explanation,
                    explained_valid_until = EXCLUDED.explained_valid_until
            `, ev.Kind, ev.ID, ev.EntityID, ev.Type, ev.Rating, ev.RatingNoTrust, ev.Explanation,
				ev.DeterminedOn, ev.LastConfirmedOn, x.IsExplained, x.Explanation, x.ValidUntil)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("saving facts: %w", err)
		}
		return nil
	})
}
