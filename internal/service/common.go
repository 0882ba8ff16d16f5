// Package service implements the directory's business logic over the store.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/store"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page bounds a listing query
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default and maximum page size
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ownerNotifier resolves a profile's email and sends it one notification.
// Notification failures are logged, never returned: the guarded write has already committed.
type ownerNotifier struct {
	profiles store.ProfileStore
	notifier notify.Notifier
	logger   *zap.Logger
}

func (o ownerNotifier) notify(ctx context.Context, userID string, build func(to string) notify.Email) {
	profile, err := o.profiles.GetProfile(ctx, userID)
	if err != nil {
		o.logger.Warn("Failed to load profile for notification",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	if profile.Email == "" {
		o.logger.Warn("Profile has no email, skipping notification", zap.String("user_id", userID))
		return
	}

	email := build(profile.Email)
	if err := o.notifier.Notify(ctx, email); err != nil {
		o.logger.Error("Failed to send notification",
			zap.String("user_id", userID),
			zap.String("kind", string(email.Kind)),
			zap.Error(err))
	}
}

// transitionErr maps a guarded status update that matched no row to a conflict.
func transitionErr(err error, conflict error) error {
	if errors.Is(err, store.ErrNotFound) {
		return conflict
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}
