package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"riskmap/internal/domain"
)

const (
	urlRatingColumns = `id, url_id, moment, high, medium, low, calculation`
	orgRatingColumns = `id, organization_id, moment, rating, high, medium, low, calculation`
)

func scanUrlRating(row scanner) (domain.UrlRating, error) {
	var (
		r      domain.UrlRating
		moment int64
		raw    string
	)
	if err := row.Scan(&r.ID, &r.UrlID, &moment, &r.High, &r.Medium, &r.Low, &raw); err != nil {
		return r, err
	}
	r.Moment = fromMicros(moment)
	return r, json.Unmarshal([]byte(raw), &r.Calculation)
}

func scanOrgRating(row scanner) (domain.OrganizationRating, error) {
	var (
		r      domain.OrganizationRating
		moment int64
		raw    string
	)
	if err := row.Scan(&r.ID, &r.OrganizationID, &moment, &r.Rating, &r.High, &r.Medium, &r.Low, &raw); err != nil {
		return r, err
	}
	r.Moment = fromMicros(moment)
	return r, json.Unmarshal([]byte(raw), &r.Calculation)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUrlRating(ctx context.Context, ex execer, urlID int64, r domain.UrlRating) error {
	calc, err := json.Marshal(r.Calculation)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO url_ratings (url_id, moment, high, medium, low, calculation) VALUES (?, ?, ?, ?, ?, ?)`,
		urlID, micros(r.Moment), r.High, r.Medium, r.Low, string(calc))
	return err
}

func insertOrgRating(ctx context.Context, ex execer, organizationID int64, r domain.OrganizationRating) error {
	calc, err := json.Marshal(r.Calculation)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO organization_ratings (organization_id, moment, rating, high, medium, low, calculation) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		organizationID, micros(r.Moment), r.Rating, r.High, r.Medium, r.Low, string(calc))
	return err
}

func (db *DB) ReplaceUrlRatings(ctx context.Context, urlID int64, ratings []domain.UrlRating) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM url_ratings WHERE url_id = ?`, urlID); err != nil {
			return err
		}
		for _, r := range ratings {
			if err := insertUrlRating(ctx, tx, urlID, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) AppendUrlRating(ctx context.Context, r domain.UrlRating) error {
	return insertUrlRating(ctx, db.db, r.UrlID, r)
}

func (db *DB) LatestUrlRating(ctx context.Context, urlID int64, at time.Time) (domain.UrlRating, bool, error) {
	r, err := scanUrlRating(db.db.QueryRowContext(ctx, `
        SELECT `+urlRatingColumns+` FROM url_ratings
        WHERE url_id = ? AND moment <= ?
        ORDER BY moment DESC, id DESC LIMIT 1
    `, urlID, micros(at)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UrlRating{}, false, nil
	}
	return r, err == nil, err
}

// LatestUrlRatings ranks each url's snapshots newest first and keeps the top one.
func (db *DB) LatestUrlRatings(ctx context.Context, urlIDs []int64, at time.Time) ([]domain.UrlRating, error) {
	ids, err := json.Marshal(nonNil(urlIDs))
	if err != nil {
		return nil, err
	}
	rows, err := db.db.QueryContext(ctx, `
        SELECT `+urlRatingColumns+` FROM (
            SELECT `+urlRatingColumns+`,
                   row_number() OVER (PARTITION BY url_id ORDER BY moment DESC, id DESC) AS rn
            FROM url_ratings
            WHERE url_id IN (SELECT value FROM json_each(?)) AND moment <= ?
        ) WHERE rn = 1 ORDER BY url_id
    `, string(ids), micros(at))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUrlRating)
}

func (db *DB) ListUrlRatings(ctx context.Context, urlID int64) ([]domain.UrlRating, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT `+urlRatingColumns+` FROM url_ratings WHERE url_id = ? ORDER BY moment, id`, urlID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUrlRating)
}

func (db *DB) ReplaceOrganizationRatings(ctx context.Context, organizationID int64, ratings []domain.OrganizationRating) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM organization_ratings WHERE organization_id = ?`, organizationID); err != nil {
			return err
		}
		for _, r := range ratings {
			if err := insertOrgRating(ctx, tx, organizationID, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) AppendOrganizationRating(ctx context.Context, r domain.OrganizationRating) error {
	return insertOrgRating(ctx, db.db, r.OrganizationID, r)
}

func (db *DB) LatestOrganizationRating(ctx context.Context, organizationID int64, at time.Time) (domain.OrganizationRating, bool, error) {
	r, err := scanOrgRating(db.db.QueryRowContext(ctx, `
        SELECT `+orgRatingColumns+` FROM organization_ratings
        WHERE organization_id = ? AND moment <= ?
        ORDER BY moment DESC, id DESC LIMIT 1
    `, organizationID, micros(at)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OrganizationRating{}, false, nil
	}
	return r, err == nil, err
}

func (db *DB) ListOrganizationRatings(ctx context.Context, organizationID int64) ([]domain.OrganizationRating, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT `+orgRatingColumns+` FROM organization_ratings
        WHERE organization_id = ? ORDER BY moment, id
    `, organizationID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrgRating)
}
