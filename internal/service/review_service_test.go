package service

import (
	"context"
	"strings"
	"testing"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/mocks"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReviewService(st *mocks.MockStore) *ReviewService {
	return NewReviewService(st, validation.NewValidator(), zap.NewNop())
}

func TestReviewService_Submit(t *testing.T) {
	st := new(mocks.MockStore)
	svc := newReviewService(st)
	ctx := context.Background()

	st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", Status: model.BusinessApproved}, nil)
	st.On("CreateReview", ctx, mock.MatchedBy(func(r *model.Review) bool {
		return r.Status == model.ReviewPending && r.Rating == 4 && r.UserID == "u1" && r.ID != ""
	})).Return(nil)

	review, err := svc.Submit(ctx, "u1", "b1", 4, " great bread ")
	require.NoError(t, err)
	assert.Equal(t, "great bread", review.Comment)
	st.AssertExpectations(t)
}

func TestReviewService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rating  int
		comment string
	}{
		{"rating too low", 0, "ok"},
		{"rating too high", 6, "ok"},
		{"comment too long", 3, strings.Repeat("a", validation.MaxCommentLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(mocks.MockStore)
			_, err := newReviewService(st).Submit(context.Background(), "u1", "b1", tt.rating, tt.comment)
			assert.Equal(t, apierrors.ErrorCodeInvalidRequest, apierrors.CodeOf(err))
			st.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
		})
	}
}

func TestReviewService_Submit_HiddenBusiness(t *testing.T) {
	st := new(mocks.MockStore)
	svc := newReviewService(st)
	st.On("GetBusiness", mock.Anything, "pending").Return(&model.Business{ID: "pending", Status: model.BusinessPending}, nil)
	st.On("GetBusiness", mock.Anything, "gone").Return(nil, store.ErrNotFound)

	_, err := svc.Submit(context.Background(), "u1", "pending", 5, "")
	assert.Equal(t, apierrors.ErrorCodeNotFound, apierrors.CodeOf(err))

	_, err = svc.Submit(context.Background(), "u1", "gone", 5, "")
	assert.Equal(t, apierrors.ErrorCodeNotFound, apierrors.CodeOf(err))
	st.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}

func TestReviewService_ListApproved(t *testing.T) {
	st := new(mocks.MockStore)
	svc := newReviewService(st)
	filter := model.ReviewFilter{BusinessID: "b1", Status: model.ReviewApproved, Limit: DefaultPageSize}
	st.On("ListReviews", mock.Anything, filter).Return([]*model.Review{{ID: "r1"}}, nil)

	reviews, err := svc.ListApproved(context.Background(), "b1", Page{})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestReviewService_Moderate(t *testing.T) {
	ctx := context.Background()

	t.Run("approve pending", func(t *testing.T) {
		st := new(mocks.MockStore)
		st.On("GetReview", ctx, "r1").Return(&model.Review{ID: "r1", Status: model.ReviewPending}, nil)
		st.On("UpdateReviewStatus", ctx, "r1", model.ReviewPending, model.ReviewApproved).Return(nil)

		review, err := newReviewService(st).Approve(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, model.ReviewApproved, review.Status)
	})

	t.Run("reject already rejected", func(t *testing.T) {
		st := new(mocks.MockStore)
		st.On("GetReview", ctx, "r1").Return(&model.Review{ID: "r1", Status: model.ReviewRejected}, nil)

		_, err := newReviewService(st).Reject(ctx, "r1")
		assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
	})

	t.Run("delete missing", func(t *testing.T) {
		st := new(mocks.MockStore)
		st.On("DeleteReview", ctx, "r9").Return(store.ErrNotFound)

		err := newReviewService(st).Delete(ctx, "r9")
		assert.Equal(t, apierrors.ErrorCodeNotFound, apierrors.CodeOf(err))
	})
}
