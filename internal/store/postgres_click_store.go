package store

import (
	"context"
	"fmt"
	"time"

	"github.com/devrev/bizdir/internal/model"
)

// InsertClick records an analytics click
func (s *PostgresStore) InsertClick(ctx context.Context, c *model.BusinessClick) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO business_clicks (id, business_id, click_type, visitor_hash, referrer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.BusinessID, string(c.ClickType), c.VisitorHash, c.Referrer, c.CreatedAt)
	return mapError(err)
}

// LatestClick returns the most recent click by a visitor on a listing for a click type
func (s *PostgresStore) LatestClick(ctx context.Context, businessID string, clickType model.ClickType, visitorHash string) (*model.BusinessClick, error) {
	var c model.BusinessClick
	var ct string
	err := s.pool.QueryRow(ctx, `
		SELECT id, business_id, click_type, visitor_hash, referrer, created_at
		FROM business_clicks
		WHERE business_id = $1 AND click_type = $2 AND visitor_hash = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, businessID, string(clickType), visitorHash).Scan(&c.ID, &c.BusinessID, &ct, &c.VisitorHash, &c.Referrer, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	c.ClickType = model.ClickType(ct)
	return &c, nil
}

// CountClicksSince counts clicks on all listings since a point in time
func (s *PostgresStore) CountClicksSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM business_clicks WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// ClickSummary aggregates clicks on a listing by UTC day and click type
func (s *PostgresStore) ClickSummary(ctx context.Context, businessID string, from, to time.Time) ([]model.ClickCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, click_type, COUNT(*)
		FROM business_clicks
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day, click_type
		ORDER BY day, click_type
	`, businessID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize clicks: %w", err)
	}
	defer rows.Close()

	counts := make([]model.ClickCount, 0)
	for rows.Next() {
		var cc model.ClickCount
		var ct string
		if err := rows.Scan(&cc.Day, &ct, &cc.Count); err != nil {
			return nil, err
		}
		cc.ClickType = model.ClickType(ct)
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}
