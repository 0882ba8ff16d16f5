package service

import (
	"context"
	"testing"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/mocks"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVerificationService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
		st.On("GetPendingVerification", ctx, "b1").Return(nil, store.ErrNotFound)
		st.On("CreateVerificationRequest", ctx, mock.MatchedBy(func(r *model.VerificationRequest) bool {
			return r.BusinessID == "b1" && r.RequesterID == "owner-1" && r.Status == model.RequestPending && r.ID != ""
		})).Return(nil)

		req, err := svc.Request(ctx, "owner-1", "b1", " license attached ")
		require.NoError(t, err)
		assert.Equal(t, "license attached", req.Notes)
		st.AssertExpectations(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-2"}, nil)

		_, err := svc.Request(ctx, "owner-1", "b1", "")
		assert.Equal(t, apierrors.ErrorCodeForbidden, apierrors.CodeOf(err))
	})

	t.Run("already verified", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1", IsVerified: true}, nil)

		_, err := svc.Request(ctx, "owner-1", "b1", "")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
	})

	t.Run("one pending request per business", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
		st.On("GetPendingVerification", ctx, "b1").Return(&model.VerificationRequest{ID: "v0"}, nil)

		_, err := svc.Request(ctx, "owner-1", "b1", "")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
		st.AssertNotCalled(t, "CreateVerificationRequest", mock.Anything, mock.Anything)
	})

	t.Run("concurrent request hits the unique index", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
		st.On("GetPendingVerification", ctx, "b1").Return(nil, store.ErrNotFound)
		st.On("CreateVerificationRequest", ctx, mock.Anything).Return(store.ErrConflict)

		_, err := svc.Request(ctx, "owner-1", "b1", "")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
	})
}

func TestVerificationService_Approve_VerifiesAndNotifiesOnce(t *testing.T) {
	st := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	svc := NewVerificationService(st, n, zap.NewNop())
	ctx := context.Background()

	st.On("GetVerificationRequest", ctx, "v1").Return(&model.VerificationRequest{ID: "v1", BusinessID: "b1", Status: model.RequestPending}, nil)
	st.On("ApproveVerification", ctx, "v1", "admin-1", "looks good").Return(nil).Once()
	st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1", Name: "Acme", IsVerified: true}, nil)
	st.On("GetProfile", ctx, "owner-1").Return(ownerProfile("owner-1"), nil)
	n.On("Notify", ctx, emailOfKind(notify.KindVerificationApproved)).Return(nil).Once()

	req, err := svc.Approve(ctx, "v1", "admin-1", " looks good ")
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, req.Status)
	require.NotNil(t, req.ReviewedBy)
	assert.Equal(t, "admin-1", *req.ReviewedBy)
	n.AssertNumberOfCalls(t, "Notify", 1)
	st.AssertNumberOfCalls(t, "ApproveVerification", 1)
	st.AssertNotCalled(t, "RejectVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationService_Reject(t *testing.T) {
	st := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	svc := NewVerificationService(st, n, zap.NewNop())
	ctx := context.Background()

	st.On("GetVerificationRequest", ctx, "v1").Return(&model.VerificationRequest{ID: "v1", BusinessID: "b1", Status: model.RequestPending}, nil)
	st.On("RejectVerification", ctx, "v1", "admin-1", "blurry scan").Return(nil)
	st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
	st.On("GetProfile", ctx, "owner-1").Return(ownerProfile("owner-1"), nil)
	n.On("Notify", ctx, mock.MatchedBy(func(e notify.Email) bool {
		return e.Kind == notify.KindVerificationRejected && e.To == "owner-1@example.com"
	})).Return(nil).Once()

	req, err := svc.Reject(ctx, "v1", "admin-1", "blurry scan")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, req.Status)
	n.AssertExpectations(t)
}

func TestVerificationService_Approve_NotPending(t *testing.T) {
	ctx := context.Background()

	t.Run("already decided", func(t *testing.T) {
		st := new(mocks.MockStore)
		n := new(mocks.MockNotifier)
		svc := NewVerificationService(st, n, zap.NewNop())
		st.On("GetVerificationRequest", ctx, "v1").Return(&model.VerificationRequest{ID: "v1", Status: model.RequestApproved}, nil)

		_, err := svc.Approve(ctx, "v1", "admin-1", "")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("decided concurrently", func(t *testing.T) {
		st := new(mocks.MockStore)
		n := new(mocks.MockNotifier)
		svc := NewVerificationService(st, n, zap.NewNop())
		st.On("GetVerificationRequest", ctx, "v1").Return(&model.VerificationRequest{ID: "v1", Status: model.RequestPending}, nil)
		st.On("ApproveVerification", ctx, "v1", "admin-1", "").Return(store.ErrNotFound)

		_, err := svc.Approve(ctx, "v1", "admin-1", "")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("unknown request", func(t *testing.T) {
		st := new(mocks.MockStore)
		svc := NewVerificationService(st, new(mocks.MockNotifier), zap.NewNop())
		st.On("GetVerificationRequest", ctx, "nope").Return(nil, store.ErrNotFound)

		_, err := svc.Approve(ctx, "nope", "admin-1", "")
		assert.Equal(t, apierrors.ErrorCodeNotFound, apierrors.CodeOf(err))
	})
}
