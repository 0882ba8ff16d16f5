package store

import (
	"context"
	"fmt"

	"github.com/devrev/bizdir/internal/model"
)

// ListCategories returns all categories with their subcategories
func (s *PostgresStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, slug, description, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*model.Category, 0)
	byID := make(map[string]*model.Category)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := s.ListSubcategories(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if c, ok := byID[sub.CategoryID]; ok {
			c.Subcategories = append(c.Subcategories, sub)
		}
	}
	return categories, nil
}

// GetCategory retrieves a category by id
func (s *PostgresStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, created_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// CreateCategory inserts a category
func (s *PostgresStore) CreateCategory(ctx context.Context, c *model.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, name, slug, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Slug, c.Description, c.CreatedAt)
	return mapError(err)
}

// UpdateCategory updates a category
func (s *PostgresStore) UpdateCategory(ctx context.Context, c *model.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories SET name = $2, slug = $3, description = $4
		WHERE id = $1
	`, c.ID, c.Name, c.Slug, c.Description)
	return expectRow(tag, err)
}

// DeleteCategory removes a category
func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	return expectDeleted(s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id))
}

// ListSubcategories returns subcategories of a category, or all when categoryID is empty
func (s *PostgresStore) ListSubcategories(ctx context.Context, categoryID string) ([]*model.Subcategory, error) {
	query := `SELECT id, category_id, name, slug, created_at FROM subcategories`
	args := []interface{}{}
	if categoryID != "" {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer rows.Close()

	subs := make([]*model.Subcategory, 0)
	for rows.Next() {
		var sub model.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Slug, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// CreateSubcategory inserts a subcategory
func (s *PostgresStore) CreateSubcategory(ctx context.Context, sub *model.Subcategory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subcategories (id, category_id, name, slug, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sub.ID, sub.CategoryID, sub.Name, sub.Slug, sub.CreatedAt)
	return mapError(err)
}

// DeleteSubcategory removes a subcategory
func (s *PostgresStore) DeleteSubcategory(ctx context.Context, id string) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id))
}

// CreateCategoryRequest inserts a category request
func (s *PostgresStore) CreateCategoryRequest(ctx context.Context, r *model.CategoryRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO category_requests (id, requester_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.RequesterID, r.Name, r.Description, string(r.Status), r.CreatedAt, r.UpdatedAt)
	return mapError(err)
}

// GetCategoryRequest retrieves a category request by id
func (s *PostgresStore) GetCategoryRequest(ctx context.Context, id string) (*model.CategoryRequest, error) {
	var r model.CategoryRequest
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT id, requester_id, name, description, status, created_at, updated_at
		FROM category_requests
		WHERE id = $1
	`, id).Scan(&r.ID, &r.RequesterID, &r.Name, &r.Description, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	r.Status = model.RequestStatus(status)
	return &r, nil
}

// ListCategoryRequests returns requests in a status, oldest first
func (s *PostgresStore) ListCategoryRequests(ctx context.Context, status model.RequestStatus) ([]*model.CategoryRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, requester_id, name, description, status, created_at, updated_at
		FROM category_requests
		WHERE status = $1
		ORDER BY created_at
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list category requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*model.CategoryRequest, 0)
	for rows.Next() {
		var r model.CategoryRequest
		var st string
		if err := rows.Scan(&r.ID, &r.RequesterID, &r.Name, &r.Description, &st, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Status = model.RequestStatus(st)
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}

// UpdateCategoryRequestStatus moves a request between states
func (s *PostgresStore) UpdateCategoryRequestStatus(ctx context.Context, id string, from, to model.RequestStatus) error {
	query := `UPDATE category_requests SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	return expectRow(s.pool.Exec(ctx, query, id, string(from), string(to)))
}

// CountCategoryRequests counts requests in a status
func (s *PostgresStore) CountCategoryRequests(ctx context.Context, status model.RequestStatus) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM category_requests WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category requests: %w", err)
	}
	return count, nil
}
