package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/devrev/bizdir/internal/model"
	"go.uber.org/zap"
)

// GetProfile retrieves a profile by user id
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	query := `
		SELECT id, email, full_name, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p model.Profile
	var role string
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Email, &p.FullName, &role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	p.Role = model.Role(role)
	return &p, nil
}

// EnsureProfile returns the profile for id, creating a user-role profile on first sight.
// An email already held by another profile fails with ErrConflict.
func (s *PostgresStore) EnsureProfile(ctx context.Context, id, email string) (*model.Profile, error) {
	p, err := s.GetProfile(ctx, id)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}

	query := `
		INSERT INTO profiles (id, email, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, id, email, string(model.RoleUser)); err != nil {
		return nil, mapError(err)
	}
	s.logger.Info("created profile", zap.String("user_id", id))
	return s.GetProfile(ctx, id)
}

// CreateProfile inserts a profile with an explicit role
func (s *PostgresStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query, p.ID, p.Email, p.FullName, string(p.Role), p.CreatedAt, p.UpdatedAt)
	return mapError(err)
}

// ListProfiles returns profiles ordered by creation time
func (s *PostgresStore) ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	query := `
		SELECT id, email, full_name, role, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*model.Profile, 0)
	for rows.Next() {
		var p model.Profile
		var role string
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Role = model.Role(role)
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// UpdateProfileRole changes the role of a profile
func (s *PostgresStore) UpdateProfileRole(ctx context.Context, id string, role model.Role) error {
	query := `UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1`
	return expectRow(s.pool.Exec(ctx, query, id, string(role)))
}

// CountProfiles counts all profiles
func (s *PostgresStore) CountProfiles(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}
