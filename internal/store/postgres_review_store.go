package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/devrev/bizdir/internal/model"
	"github.com/jackc/pgx/v5"
)

func scanReview(row pgx.Row) (*model.Review, error) {
	var r model.Review
	var status string
	err := row.Scan(&r.ID, &r.BusinessID, &r.UserID, &r.Rating, &r.Comment, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.ReviewStatus(status)
	return &r, nil
}

// CreateReview inserts a review
func (s *PostgresStore) CreateReview(ctx context.Context, r *model.Review) error {
	query := `
		INSERT INTO reviews (id, business_id, user_id, rating, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		r.ID, r.BusinessID, r.UserID, r.Rating, r.Comment, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	return mapError(err)
}

// GetReview retrieves a review by id
func (s *PostgresStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	query := `
		SELECT id, business_id, user_id, rating, comment, status, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`
	r, err := scanReview(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// ListReviews returns reviews newest first
func (s *PostgresStore) ListReviews(ctx context.Context, filter model.ReviewFilter) ([]*model.Review, error) {
	clauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if filter.BusinessID != "" {
		args = append(args, filter.BusinessID)
		clauses = append(clauses, fmt.Sprintf("business_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT id, business_id, user_id, rating, comment, status, created_at, updated_at FROM reviews`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// UpdateReviewStatus moves a review between moderation states
func (s *PostgresStore) UpdateReviewStatus(ctx context.Context, id string, from, to model.ReviewStatus) error {
	query := `UPDATE reviews SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	return expectRow(s.pool.Exec(ctx, query, id, string(from), string(to)))
}

// DeleteReview removes a review
func (s *PostgresStore) DeleteReview(ctx context.Context, id string) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id))
}

// CountReviews counts reviews in a status
func (s *PostgresStore) CountReviews(ctx context.Context, status model.ReviewStatus) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// RatingSummary aggregates approved reviews of a business
func (s *PostgresStore) RatingSummary(ctx context.Context, businessID string) (model.RatingSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE business_id = $1 AND status = 'approved'
	`
	var summary model.RatingSummary
	if err := s.pool.QueryRow(ctx, query, businessID).Scan(&summary.Average, &summary.Count); err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to summarize ratings: %w", err)
	}
	return summary, nil
}
