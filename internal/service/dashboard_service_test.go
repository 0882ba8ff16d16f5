package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	apierrors "github.com/devrev/bizdir/internal/errors"
	"github.com/devrev/bizdir/internal/mocks"
	"github.com/devrev/bizdir/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDashboardService(st *mocks.MockStore) *DashboardService {
	svc := NewDashboardService(st, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestDashboardService_Counts(t *testing.T) {
	st := new(mocks.MockStore)
	svc := newDashboardService(st)

	st.On("CountBusinesses", mock.Anything, model.BusinessFilter{Status: model.BusinessPending}).Return(int64(3), nil)
	st.On("CountBusinesses", mock.Anything, model.BusinessFilter{Status: model.BusinessApproved}).Return(int64(10), nil)
	st.On("CountBusinesses", mock.Anything, model.BusinessFilter{Status: model.BusinessApproved, PromotedOnly: true}).Return(int64(2), nil)
	st.On("CountReviews", mock.Anything, model.ReviewPending).Return(int64(4), nil)
	st.On("CountVerificationRequests", mock.Anything, model.RequestPending).Return(int64(1), nil)
	st.On("CountCategoryRequests", mock.Anything, model.RequestPending).Return(int64(5), nil)
	st.On("CountProfiles", mock.Anything).Return(int64(42), nil)
	st.On("CountClicksSince", mock.Anything, fixedNow.Add(-recentClicksWindow)).Return(int64(900), nil)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)

	want := &model.DashboardCounts{
		PendingBusinesses:       3,
		ApprovedBusinesses:      10,
		PromotedBusinesses:      2,
		PendingReviews:          4,
		PendingVerifications:    1,
		PendingCategoryRequests: 5,
		Profiles:                42,
		RecentClicks:            900,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("dashboard counts mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardService_Counts_FirstErrorWins(t *testing.T) {
	st := new(mocks.MockStore)
	svc := newDashboardService(st)

	st.On("CountBusinesses", mock.Anything, mock.Anything).Return(int64(0), nil)
	st.On("CountReviews", mock.Anything, mock.Anything).Return(int64(0), errors.New("timeout"))
	st.On("CountVerificationRequests", mock.Anything, mock.Anything).Return(int64(0), nil)
	st.On("CountCategoryRequests", mock.Anything, mock.Anything).Return(int64(0), nil)
	st.On("CountProfiles", mock.Anything).Return(int64(0), nil)
	st.On("CountClicksSince", mock.Anything, mock.Anything).Return(int64(0), nil)

	counts, err := svc.Counts(context.Background())
	assert.Nil(t, counts)
	assert.ErrorContains(t, err, "pending reviews")
}

func TestDashboardService_SetUserRole(t *testing.T) {
	ctx := context.Background()

	st := new(mocks.MockStore)
	st.On("UpdateProfileRole", ctx, "u2", model.RoleBusinessOwner).Return(nil)
	require.NoError(t, newDashboardService(st).SetUserRole(ctx, "admin-1", "u2", model.RoleBusinessOwner))

	err := newDashboardService(new(mocks.MockStore)).SetUserRole(ctx, "admin-1", "u2", "superuser")
	assert.Equal(t, apierrors.ErrorCodeInvalidRequest, apierrors.CodeOf(err))

	err = newDashboardService(new(mocks.MockStore)).SetUserRole(ctx, "admin-1", "admin-1", model.RoleUser)
	assert.Equal(t, apierrors.ErrorCodeConflict, apierrors.CodeOf(err))
}

func TestPivotClicks(t *testing.T) {
	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	rows := PivotClicks([]model.ClickCount{
		{Day: day2, ClickType: model.ClickView, Count: 7},
		{Day: day1, ClickType: model.ClickView, Count: 4},
		{Day: day1, ClickType: model.ClickPhone, Count: 1},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, day1, rows[0].Day)
	assert.Equal(t, int64(5), rows[0].Total)
	assert.Equal(t, int64(1), rows[0].Counts[model.ClickPhone])
	assert.Equal(t, int64(7), rows[1].Total)
}

func TestReportService_WriteClickReport(t *testing.T) {
	st := new(mocks.MockStore)
	analytics := newAnalyticsService(st, time.Minute)
	report := NewReportService(analytics, zap.NewNop())
	ctx := context.Background()

	from := fixedNow.AddDate(0, 0, -7)
	st.On("ClickSummary", ctx, "b1", from, fixedNow).Return([]model.ClickCount{
		{Day: from, ClickType: model.ClickWebsite, Count: 2},
	}, nil)

	var buf bytes.Buffer
	err := report.WriteClickReport(ctx, &buf, &model.Business{ID: "b1", Name: "Café Acme"}, from, fixedNow)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestReportService_WriteClickReport_NonLatinName(t *testing.T) {
	names := []string{"کافه نادری", "Пекарня Хлеб", "מאפיית השכונה", "Ελιά Ταβέρνα"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			st := new(mocks.MockStore)
			report := NewReportService(newAnalyticsService(st, time.Minute), zap.NewNop())
			ctx := context.Background()

			from := fixedNow.AddDate(0, 0, -7)
			st.On("ClickSummary", ctx, "b1", from, fixedNow).Return([]model.ClickCount{
				{Day: from, ClickType: model.ClickView, Count: 3},
			}, nil)

			var buf bytes.Buffer
			err := report.WriteClickReport(ctx, &buf, &model.Business{ID: "b1", Name: name}, from, fixedNow)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Contains(t, buf.String(), "/Encoding /Identity-H", "names are written with the embedded unicode font")
			assert.Contains(t, buf.String(), "/FontFile2")
		})
	}
}

func TestRightToLeft(t *testing.T) {
	assert.True(t, rightToLeft("کافه نادری"))
	assert.True(t, rightToLeft("מאפייה"))
	assert.True(t, rightToLeft("Cafe کافه"))
	assert.False(t, rightToLeft("Café Acme"))
	assert.False(t, rightToLeft("Пекарня"))
}
