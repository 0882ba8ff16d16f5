package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"github.com/jackc/pgx/v5"
)

const businessColumns = `
	id, owner_id, category_id, subcategory_id, name, slug, description, address, city,
	phone, email, website, working_hours, status, is_verified, is_promoted,
	promotion_start, promotion_end, created_at, updated_at`

func scanBusiness(row pgx.Row) (*model.Business, error) {
	var b model.Business
	var status string
	var hours []byte
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.CategoryID, &b.SubcategoryID, &b.Name, &b.Slug, &b.Description,
		&b.Address, &b.City, &b.Phone, &b.Email, &b.Website, &hours, &status,
		&b.IsVerified, &b.IsPromoted, &b.PromotionStart, &b.PromotionEnd, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.BusinessStatus(status)
	if len(hours) > 0 {
		b.WorkingHours = hours
	}
	return &b, nil
}

// businessWhere builds the WHERE clause shared by list and count queries
func businessWhere(filter model.BusinessFilter) (string, []interface{}) {
	clauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.OwnerID != "" {
		add("owner_id = $%d", filter.OwnerID)
	}
	if filter.CategoryID != "" {
		add("category_id = $%d", filter.CategoryID)
	}
	if filter.SubcategoryID != "" {
		add("subcategory_id = $%d", filter.SubcategoryID)
	}
	if filter.City != "" {
		add("LOWER(city) = LOWER($%d)", filter.City)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if filter.PromotedOnly {
		clauses = append(clauses, "is_promoted")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListBusinesses returns listings, promoted first then newest
func (s *PostgresStore) ListBusinesses(ctx context.Context, filter model.BusinessFilter) ([]*model.Business, error) {
	where, args := businessWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM businesses %s ORDER BY is_promoted DESC, created_at DESC`, businessColumns, where)

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
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]*model.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

// CountBusinesses counts listings matching the filter
func (s *PostgresStore) CountBusinesses(ctx context.Context, filter model.BusinessFilter) (int64, error) {
	where, args := businessWhere(filter)
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM businesses "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return count, nil
}

// GetBusiness retrieves a listing by id
func (s *PostgresStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	query := fmt.Sprintf(`SELECT %s FROM businesses WHERE id = $1`, businessColumns)
	b, err := scanBusiness(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

// GetBusinessBySlug retrieves a listing by slug
func (s *PostgresStore) GetBusinessBySlug(ctx context.Context, slug string) (*model.Business, error) {
	query := fmt.Sprintf(`SELECT %s FROM businesses WHERE slug = $1`, businessColumns)
	b, err := scanBusiness(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

// SlugExists reports whether any listing uses the slug
func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM businesses WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// CreateBusiness inserts a new listing
func (s *PostgresStore) CreateBusiness(ctx context.Context, b *model.Business) error {
	query := `
		INSERT INTO businesses (
			id, owner_id, category_id, subcategory_id, name, slug, description, address, city,
			phone, email, website, working_hours, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.pool.Exec(ctx, query,
		b.ID, b.OwnerID, b.CategoryID, b.SubcategoryID, b.Name, b.Slug, b.Description, b.Address, b.City,
		b.Phone, b.Email, b.Website, nullableJSON(b.WorkingHours), string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	return mapError(err)
}

// UpdateBusiness updates the owner-editable fields of a listing
func (s *PostgresStore) UpdateBusiness(ctx context.Context, b *model.Business) error {
	query := `
		UPDATE businesses
		SET category_id = $2, subcategory_id = $3, name = $4, description = $5, address = $6, city = $7,
		    phone = $8, email = $9, website = $10, working_hours = $11, updated_at = $12
		WHERE id = $1
	`
	return expectRow(s.pool.Exec(ctx, query,
		b.ID, b.CategoryID, b.SubcategoryID, b.Name, b.Description, b.Address, b.City,
		b.Phone, b.Email, b.Website, nullableJSON(b.WorkingHours), b.UpdatedAt,
	))
}

// UpdateBusinessStatus moves a listing between moderation states.
// Returns ErrNotFound if the listing is missing or not in the from state.
func (s *PostgresStore) UpdateBusinessStatus(ctx context.Context, id string, from, to model.BusinessStatus) error {
	query := `UPDATE businesses SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	return expectRow(s.pool.Exec(ctx, query, id, string(from), string(to)))
}

// DeleteBusiness removes a listing
func (s *PostgresStore) DeleteBusiness(ctx context.Context, id string) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id))
}

// SetPromotion stores the promotion window and flags the listing if the window is current
func (s *PostgresStore) SetPromotion(ctx context.Context, id string, start, end time.Time) error {
	query := `
		UPDATE businesses
		SET promotion_start = $2, promotion_end = $3,
		    is_promoted = (NOW() >= $2 AND NOW() < $3), updated_at = NOW()
		WHERE id = $1
	`
	return expectRow(s.pool.Exec(ctx, query, id, start, end))
}

// RefreshPromotions recomputes is_promoted from promotion windows and expires
// finished promotions. Only rows whose flag changes are written.
func (s *PostgresStore) RefreshPromotions(ctx context.Context, now time.Time) (*model.RefreshResult, error) {
	result := &model.RefreshResult{RanAt: now}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE businesses SET is_promoted = TRUE, updated_at = $1
			WHERE NOT is_promoted
			  AND promotion_start IS NOT NULL AND promotion_end IS NOT NULL
			  AND promotion_start <= $1 AND promotion_end > $1
		`, now)
		if err != nil {
			return fmt.Errorf("failed to promote businesses: %w", err)
		}
		result.Promoted = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			UPDATE businesses SET is_promoted = FALSE, updated_at = $1
			WHERE is_promoted
			  AND (promotion_start IS NULL OR promotion_end IS NULL
			       OR promotion_start > $1 OR promotion_end <= $1)
		`, now)
		if err != nil {
			return fmt.Errorf("failed to demote businesses: %w", err)
		}
		result.Demoted = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			UPDATE promotions SET status = 'expired', updated_at = $1
			WHERE status = 'active' AND ends_at IS NOT NULL AND ends_at <= $1
		`, now)
		if err != nil {
			return fmt.Errorf("failed to expire promotions: %w", err)
		}
		result.Expired = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
