package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"riskmap/internal/domain"
)

const (
	urlRatingColumns = `id, url_id, moment, high, medium, low, calculation`
	orgRatingColumns = `id, organization_id, moment, rating, high, medium, low, calculation`
)

func scanUrlRating(row pgx.CollectableRow) (domain.UrlRating, error) {
	var (
		r   domain.UrlRating
		raw []byte
	)
	if err := row.Scan(&r.ID, &r.UrlID, &r.Moment, &r.High, &r.Medium, &r.Low, &raw); err != nil {
		return r, err
	}
	r.Moment = r.Moment.UTC()
	return r, json.Unmarshal(raw, &r.Calculation)
}

func scanOrgRating(row pgx.CollectableRow) (domain.OrganizationRating, error) {
	var (
		r   domain.OrganizationRating
		raw []byte
	)
	if err := row.Scan(&r.ID, &r.OrganizationID, &r.Moment, &r.Rating, &r.High, &r.Medium, &r.Low, &raw); err != nil {
		return r, err
	}
	r.Moment = r.Moment.UTC()
	return r, json.Unmarshal(raw, &r.Calculation)
}

func queueUrlRating(b *pgx.Batch, urlID int64, r domain.UrlRating) error {
	calc, err := json.Marshal(r.Calculation)
	if err != nil {
		return err
	}
	b.Queue(`INSERT INTO url_ratings (url_id, moment, high, medium, low, calculation) VALUES ($1, $2, $3, $4, $5, $6)`,
		urlID, r.Moment, r.High, r.Medium, r.Low, calc)
	return nil
}

func queueOrgRating(b *pgx.Batch, organizationID int64, r domain.OrganizationRating) error {
	calc, err := json.Marshal(r.Calculation)
	if err != nil {
		return err
	}
	b.Queue(`INSERT INTO organization_ratings (organization_id, moment, rating, high, medium, low, calculation) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		organizationID, r.Moment, r.Rating, r.High, r.Medium, r.Low, calc)
	return nil
}

// ReplaceUrlRatings swaps the url's snapshots in one transaction, so readers
// see either the old or the new history.
func (db *DB) ReplaceUrlRatings(ctx context.Context, urlID int64, ratings []domain.UrlRating) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		b.Queue(`DELETE FROM url_ratings WHERE url_id = $1`, urlID)
		for _, r := range ratings {
			if err := queueUrlRating(b, urlID, r); err != nil {
				return err
			}
		}
		return tx.SendBatch(ctx, b).Close()
	})
}

func (db *DB) AppendUrlRating(ctx context.Context, r domain.UrlRating) error {
	b := &pgx.Batch{}
	if err := queueUrlRating(b, r.UrlID, r); err != nil {
		return err
	}
	return db.Pool.SendBatch(ctx, b).Close()
}

func (db *DB) LatestUrlRating(ctx context.Context, urlID int64, at time.Time) (domain.UrlRating, bool, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+urlRatingColumns+` FROM url_ratings
        WHERE url_id = $1 AND moment <= $2
        ORDER BY moment DESC, id DESC LIMIT 1
    `, urlID, at)
	if err != nil {
		return domain.UrlRating{}, false, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanUrlRating)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, false, nil
	}
	return r, err == nil, err
}

// LatestUrlRatings walks the (url_id, moment DESC) index once per url.
func (db *DB) LatestUrlRatings(ctx context.Context, urlIDs []int64, at time.Time) ([]domain.UrlRating, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT DISTINCT ON (url_id) `+urlRatingColumns+` FROM url_ratings
        WHERE url_id = ANY($1) AND moment <= $2
        ORDER BY url_id, moment DESC, id DESC
    `, nonNil(urlIDs), at)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanUrlRating)
}

func (db *DB) ListUrlRatings(ctx context.Context, urlID int64) ([]domain.UrlRating, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+urlRatingColumns+` FROM url_ratings WHERE url_id = $1 ORDER BY moment, id`, urlID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanUrlRating)
}

func (db *DB) ReplaceOrganizationRatings(ctx context.Context, organizationID int64, ratings []domain.OrganizationRating) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		b.Queue(`DELETE FROM organization_ratings WHERE organization_id = $1`, organizationID)
		for _, r := range ratings {
			if err := queueOrgRating(b, organizationID, r); err != nil {
				return err
			}
		}
		return tx.SendBatch(ctx, b).Close()
	})
}

func (db *DB) AppendOrganizationRating(ctx context.Context, r domain.OrganizationRating) error {
	b := &pgx.Batch{}
	if err := queueOrgRating(b, r.OrganizationID, r); err != nil {
		return err
	}
	return db.Pool.SendBatch(ctx, b).Close()
}

func (db *DB) LatestOrganizationRating(ctx context.Context, organizationID int64, at time.Time) (domain.OrganizationRating, bool, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+orgRatingColumns+` FROM organization_ratings
        WHERE organization_id = $1 AND moment <= $2
        ORDER BY moment DESC, id DESC LIMIT 1
    `, organizationID, at)
	if err != nil {
		return domain.OrganizationRating{}, false, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanOrgRating)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, false, nil
	}
	return r, err == nil, err
}

func (db *DB) ListOrganizationRatings(ctx context.Context, organizationID int64) ([]domain.OrganizationRating, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+orgRatingColumns+` FROM organization_ratings
        WHERE organization_id = $1 ORDER BY moment, id
    `, organizationID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanOrgRating)
}
