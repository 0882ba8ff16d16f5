package store

import (
	"context"
	"fmt"

	"github.com/devrev/bizdir/internal/model"
	"github.com/jackc/pgx/v5"
)

const verificationColumns = `
	id, business_id, requester_id, status, notes, admin_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanVerification(row pgx.Row) (*model.VerificationRequest, error) {
	var v model.VerificationRequest
	var status string
	err := row.Scan(
		&v.ID, &v.BusinessID, &v.RequesterID, &status, &v.Notes, &v.AdminNotes,
		&v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = model.RequestStatus(status)
	return &v, nil
}

// CreateVerificationRequest inserts a verification request.
// A second pending request for the same business fails with ErrConflict.
func (s *PostgresStore) CreateVerificationRequest(ctx context.Context, v *model.VerificationRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO business_verification_requests (id, business_id, requester_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.BusinessID, v.RequesterID, string(v.Status), v.Notes, v.CreatedAt, v.UpdatedAt)
	return mapError(err)
}

// GetVerificationRequest retrieves a request by id
func (s *PostgresStore) GetVerificationRequest(ctx context.Context, id string) (*model.VerificationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM business_verification_requests WHERE id = $1`, verificationColumns)
	v, err := scanVerification(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// GetPendingVerification returns the pending request of a business, if any
func (s *PostgresStore) GetPendingVerification(ctx context.Context, businessID string) (*model.VerificationRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM business_verification_requests
		WHERE business_id = $1 AND status = 'pending'
		LIMIT 1`, verificationColumns)
	v, err := scanVerification(s.pool.QueryRow(ctx, query, businessID))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// ListVerificationRequests returns requests in a status, oldest first
func (s *PostgresStore) ListVerificationRequests(ctx context.Context, status model.RequestStatus) ([]*model.VerificationRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM business_verification_requests
		WHERE status = $1
		ORDER BY created_at`, verificationColumns)
	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*model.VerificationRequest, 0)
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, v)
	}
	return requests, rows.Err()
}

// ApproveVerification approves a pending request and marks its business verified
func (s *PostgresStore) ApproveVerification(ctx context.Context, id, reviewerID, adminNotes string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var businessID string
		err := tx.QueryRow(ctx, `
			UPDATE business_verification_requests
			SET status = 'approved', reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING business_id
		`, id, reviewerID, adminNotes).Scan(&businessID)
		if err != nil {
			return mapError(err)
		}

		tag, err := tx.Exec(ctx, `UPDATE businesses SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, businessID)
		return expectRow(tag, err)
	})
}

// RejectVerification rejects a pending request
func (s *PostgresStore) RejectVerification(ctx context.Context, id, reviewerID, adminNotes string) error {
	return expectRow(s.pool.Exec(ctx, `
		UPDATE business_verification_requests
		SET status = 'rejected', reviewed_by = $2, reviewed_at = NOW(), admin_notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID, adminNotes))
}

// CountVerificationRequests counts requests in a status
func (s *PostgresStore) CountVerificationRequests(ctx context.Context, status model.RequestStatus) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM business_verification_requests WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verification requests: %w", err)
	}
	return count, nil
}
