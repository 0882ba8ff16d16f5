// Package notify sends transactional email notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/model"
	"github.com/devrev/bizdir/internal/util/workerpool"
	"go.uber.org/zap"
)

// Kind identifies the notification template.
type Kind string

const (
	KindBusinessApproved      Kind = "business_approved"
	KindBusinessRejected      Kind = "business_rejected"
	KindVerificationApproved  Kind = "verification_approved"
	KindVerificationRejected  Kind = "verification_rejected"
	KindPromotionActivated    Kind = "promotion_activated"
	KindPaymentFailed         Kind = "payment_failed"
	KindCategoryRequestClosed Kind = "category_request_closed"
)

// Email is one outbound message.
type Email struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    Kind   `json:"kind"`
}

// Notifier delivers emails.
type Notifier interface {
	Notify(ctx context.Context, email Email) error
}

// LogNotifier writes emails to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the email.
func (n *LogNotifier) Notify(ctx context.Context, email Email) error {
	n.logger.Info("email notification",
		zap.String("to", email.To),
		zap.String("kind", string(email.Kind)),
		zap.String("subject", email.Subject))
	return nil
}

// AsyncNotifier hands sends to a worker pool so callers do not wait on delivery.
// When the pool rejects a job the send happens inline.
type AsyncNotifier struct {
	next    Notifier
	pool    *workerpool.Pool
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAsyncNotifier creates an AsyncNotifier.
func NewAsyncNotifier(next Notifier, pool *workerpool.Pool, m *metrics.Metrics, logger *zap.Logger) *AsyncNotifier {
	return &AsyncNotifier{next: next, pool: pool, metrics: m, logger: logger}
}

// Notify queues the email. The returned error only reflects inline fallback sends.
func (n *AsyncNotifier) Notify(ctx context.Context, email Email) error {
	job := workerpool.Job{
		Name: "notify:" + string(email.Kind),
		Run: func(jobCtx context.Context) error {
			return n.send(jobCtx, email)
		},
	}
	if err := n.pool.Submit(job); err != nil {
		n.logger.Warn("notification pool rejected job, sending inline",
			zap.String("kind", string(email.Kind)),
			zap.Error(err))
		return n.send(ctx, email)
	}
	return nil
}

func (n *AsyncNotifier) send(ctx context.Context, email Email) error {
	err := n.next.Notify(ctx, email)
	n.metrics.RecordNotification(string(email.Kind), err)
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", email.Kind, err)
	}
	return nil
}

// BusinessReviewed builds the listing approval or rejection email.
func BusinessReviewed(to string, business *model.Business) Email {
	if business.Status == model.BusinessApproved {
		return Email{
			To:      to,
			Kind:    KindBusinessApproved,
			Subject: fmt.Sprintf("%s is now listed", business.Name),
			Body:    fmt.Sprintf("Your listing %q has been approved and is now visible in the directory.", business.Name),
		}
	}
	return Email{
		To:      to,
		Kind:    KindBusinessRejected,
		Subject: fmt.Sprintf("%s was not approved", business.Name),
		Body:    fmt.Sprintf("Your listing %q was reviewed and not approved. You can update it and contact support.", business.Name),
	}
}

// VerificationReviewed builds the verification decision email.
func VerificationReviewed(to string, business *model.Business, approved bool, adminNotes string) Email {
	if approved {
		return Email{
			To:      to,
			Kind:    KindVerificationApproved,
			Subject: fmt.Sprintf("%s is verified", business.Name),
			Body:    fmt.Sprintf("Your business %q now shows the verified badge.", business.Name),
		}
	}
	body := fmt.Sprintf("Your verification request for %q was not approved.", business.Name)
	if adminNotes != "" {
		body += "\n\nNotes: " + adminNotes
	}
	return Email{
		To:      to,
		Kind:    KindVerificationRejected,
		Subject: fmt.Sprintf("Verification update for %s", business.Name),
		Body:    body,
	}
}

// PromotionActivated builds the paid promotion confirmation.
func PromotionActivated(to string, business *model.Business, promotion *model.Promotion) Email {
	body := fmt.Sprintf("Your promotion for %q is active.", business.Name)
	if promotion.EndsAt != nil {
		body = fmt.Sprintf("Your promotion for %q is active until %s.", business.Name, promotion.EndsAt.Format("2006-01-02"))
	}
	return Email{
		To:      to,
		Kind:    KindPromotionActivated,
		Subject: fmt.Sprintf("%s is now promoted", business.Name),
		Body:    body,
	}
}

// PaymentFailed builds the failed payment email.
func PaymentFailed(to string, business *model.Business) Email {
	return Email{
		To:      to,
		Kind:    KindPaymentFailed,
		Subject: "Your promotion payment failed",
		Body:    fmt.Sprintf("The payment for promoting %q did not go through. No promotion was started.", business.Name),
	}
}

// CategoryRequestClosed builds the category request decision email.
func CategoryRequestClosed(to string, req *model.CategoryRequest) Email {
	verdict := "was not approved"
	if req.Status == model.RequestApproved {
		verdict = "has been approved and is now available"
	}
	return Email{
		To:      to,
		Kind:    KindCategoryRequestClosed,
		Subject: fmt.Sprintf("Category request %q", req.Name),
		Body:    fmt.Sprintf("Your request for the category %q %s.", req.Name, verdict),
	}
}
