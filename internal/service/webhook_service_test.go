package service

import (
	"context"
	"errors"
	"testing"
	"time"

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

const testWebhookSecret = "whsec_test"

func newWebhookService(st *mocks.MockStore, events *mocks.MockEventStore, n *mocks.MockNotifier) *WebhookService {
	cfg := WebhookConfig{Secret: testWebhookSecret, Tolerance: 5 * time.Minute, EventTTL: time.Hour}
	svc := NewWebhookService(cfg, events, newPromotionService(st, n), nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func signed(payload string) ([]byte, string) {
	body := []byte(payload)
	return body, SignatureFor(testWebhookSecret, fixedNow, body)
}

func TestWebhookService_Verify(t *testing.T) {
	svc := newWebhookService(new(mocks.MockStore), new(mocks.MockEventStore), new(mocks.MockNotifier))
	body := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name   string
		header string
		valid  bool
	}{
		{"valid", SignatureFor(testWebhookSecret, fixedNow, body), true},
		{"valid with extra scheme", SignatureFor(testWebhookSecret, fixedNow, body) + ",v0=deadbeef", true},
		{"missing header", "", false},
		{"wrong secret", SignatureFor("other", fixedNow, body), false},
		{"stale timestamp", SignatureFor(testWebhookSecret, fixedNow.Add(-10*time.Minute), body), false},
		{"future timestamp", SignatureFor(testWebhookSecret, fixedNow.Add(10*time.Minute), body), false},
		{"garbage", "t=abc,v1=zz", false},
		{"no signature", "t=1700000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Verify(body, tt.header)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, apierrors.ErrorCodeInvalidSignature, apierrors.CodeOf(err))
			}
		})
	}

	assert.Error(t, svc.Verify([]byte(`{"id":"evt_2"}`), SignatureFor(testWebhookSecret, fixedNow, body)), "tampered body")
}

func TestWebhookService_Handle_InvalidSignature(t *testing.T) {
	events := new(mocks.MockEventStore)
	svc := newWebhookService(new(mocks.MockStore), events, new(mocks.MockNotifier))

	err := svc.Handle(context.Background(), []byte(`{}`), "t=1,v1=00")
	assert.Equal(t, apierrors.ErrorCodeInvalidSignature, apierrors.CodeOf(err))
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_CheckoutCompleted(t *testing.T) {
	st := new(mocks.MockStore)
	events := new(mocks.MockEventStore)
	n := new(mocks.MockNotifier)
	svc := newWebhookService(st, events, n)
	ctx := context.Background()

	body, sig := signed(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","payment_intent":"pi_1","amount_total":2500,"currency":"eur","metadata":{"business_id":"b1","days":"14"}}}}`)

	events.On("MarkProcessed", ctx, "evt_1", time.Hour).Return(true, nil)
	st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
	st.On("GetPromotionBySession", ctx, "cs_1").Return(nil, store.ErrNotFound)
	st.On("CreatePromotion", ctx, mock.MatchedBy(func(p *model.Promotion) bool {
		return p.PaymentIntentID == "pi_1" && p.AmountTotal == 2500
	})).Return(nil)
	st.On("SetPromotion", ctx, "b1", fixedNow, fixedNow.AddDate(0, 0, 14)).Return(nil)
	st.On("GetProfile", ctx, "owner-1").Return(ownerProfile("owner-1"), nil)
	n.On("Notify", ctx, emailOfKind(notify.KindPromotionActivated)).Return(nil).Once()

	require.NoError(t, svc.Handle(ctx, body, sig))
	st.AssertExpectations(t)
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestWebhookService_Handle_DuplicateEvent(t *testing.T) {
	st := new(mocks.MockStore)
	events := new(mocks.MockEventStore)
	n := new(mocks.MockNotifier)
	svc := newWebhookService(st, events, n)

	body, sig := signed(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	events.On("MarkProcessed", mock.Anything, "evt_1", time.Hour).Return(false, nil)

	require.NoError(t, svc.Handle(context.Background(), body, sig))
	st.AssertNotCalled(t, "GetBusiness", mock.Anything, mock.Anything)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_FailureForgetsEvent(t *testing.T) {
	st := new(mocks.MockStore)
	events := new(mocks.MockEventStore)
	svc := newWebhookService(st, events, new(mocks.MockNotifier))
	ctx := context.Background()

	body, sig := signed(`{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_9"}}}`)
	events.On("MarkProcessed", ctx, "evt_2", time.Hour).Return(true, nil)
	events.On("Forget", ctx, "evt_2").Return(nil).Once()
	st.On("GetPromotionBySession", ctx, "cs_9").Return(nil, errors.New("db down"))

	err := svc.Handle(ctx, body, sig)
	require.Error(t, err)
	events.AssertExpectations(t)
}

func TestWebhookService_Handle_PaymentFailed(t *testing.T) {
	st := new(mocks.MockStore)
	events := new(mocks.MockEventStore)
	n := new(mocks.MockNotifier)
	svc := newWebhookService(st, events, n)
	ctx := context.Background()

	body, sig := signed(`{"id":"evt_3","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_7","metadata":{"business_id":"b1"}}}}`)
	events.On("MarkProcessed", ctx, "evt_3", time.Hour).Return(true, nil)
	st.On("GetBusiness", ctx, "b1").Return(&model.Business{ID: "b1", OwnerID: "owner-1"}, nil)
	st.On("FailPendingPromotions", ctx, "b1", "pi_7").Return(int64(1), nil)
	st.On("GetProfile", ctx, "owner-1").Return(ownerProfile("owner-1"), nil)
	n.On("Notify", ctx, emailOfKind(notify.KindPaymentFailed)).Return(nil).Once()

	require.NoError(t, svc.Handle(ctx, body, sig))
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestWebhookService_Handle_IgnoredEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown type", func(t *testing.T) {
		st := new(mocks.MockStore)
		events := new(mocks.MockEventStore)
		body, sig := signed(`{"id":"evt_4","type":"customer.created","data":{"object":{}}}`)
		events.On("MarkProcessed", ctx, "evt_4", time.Hour).Return(true, nil)

		require.NoError(t, newWebhookService(st, events, new(mocks.MockNotifier)).Handle(ctx, body, sig))
		events.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
	})

	t.Run("deleted business", func(t *testing.T) {
		st := new(mocks.MockStore)
		events := new(mocks.MockEventStore)
		body, sig := signed(`{"id":"evt_5","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","metadata":{"business_id":"gone"}}}}`)
		events.On("MarkProcessed", ctx, "evt_5", time.Hour).Return(true, nil)
		st.On("GetBusiness", ctx, "gone").Return(nil, store.ErrNotFound)

		require.NoError(t, newWebhookService(st, events, new(mocks.MockNotifier)).Handle(ctx, body, sig))
		events.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
	})

	t.Run("missing business reference", func(t *testing.T) {
		st := new(mocks.MockStore)
		events := new(mocks.MockEventStore)
		body, sig := signed(`{"id":"evt_6","type":"checkout.session.completed","data":{"object":{"id":"cs_2"}}}`)
		events.On("MarkProcessed", ctx, "evt_6", time.Hour).Return(true, nil)

		require.NoError(t, newWebhookService(st, events, new(mocks.MockNotifier)).Handle(ctx, body, sig))
		st.AssertNotCalled(t, "GetBusiness", mock.Anything, mock.Anything)
	})
}

func TestWebhookService_Handle_MalformedPayload(t *testing.T) {
	events := new(mocks.MockEventStore)
	svc := newWebhookService(new(mocks.MockStore), events, new(mocks.MockNotifier))

	body, sig := signed(`not json`)
	err := svc.Handle(context.Background(), body, sig)
	assert.Equal(t, apierrors.ErrorCodeInvalidRequest, apierrors.CodeOf(err))

	body, sig = signed(`{"type":"checkout.session.completed"}`)
	err = svc.Handle(context.Background(), body, sig)
	assert.Equal(t, apierrors.ErrorCodeInvalidRequest, apierrors.CodeOf(err))
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}
