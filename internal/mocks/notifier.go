package mocks

import (
	"context"

	"github.com/devrev/bizdir/internal/notify"
	"github.com/stretchr/testify/mock"
)

var _ notify.Notifier = (*MockNotifier)(nil)

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, email notify.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
