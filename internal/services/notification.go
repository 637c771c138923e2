package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type notificationStore interface {
	Create(ctx context.Context, uid string, n *models.Notification) error
	List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
	Delete(ctx context.Context, uid, id string) error
}

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type notificationService struct {
	store    notificationStore
	mailer   mailSender
	clockNow func() time.Time
}

// NewNotificationService builds the service. mailer may be nil, in which case
// notifications are only stored.
func NewNotificationService(store notificationStore, mailer mailSender) *notificationService {
	return &notificationService{
		store:    store,
		mailer:   mailer,
		clockNow: time.Now,
	}
}

// emailed lists the types that also go out by e-mail.
var emailed = map[string]bool{
	models.NotificationPaymentFailed:     true,
	models.NotificationInsufficientFunds: true,
	models.NotificationTrialEnding:       true,
}

// Notify stores n and, for failure and warning types, e-mails a copy to email.
// A mail failure is logged and does not fail the call.
func (s *notificationService) Notify(ctx context.Context, uid, email string, n *models.Notification) error {
	log := logger.FromContext(ctx)

	if n.NotificationID == "" {
		n.NotificationID = uuid.New().String()
	}
	n.CreatedAt = s.clockNow()
	if err := s.store.Create(ctx, uid, n); err != nil {
		return err
	}
	log.Info("notification created", "type", n.Type, "notification_id", n.NotificationID)

	if s.mailer != nil && email != "" && emailed[n.Type] {
		if err := s.mailer.Send(ctx, email, n.Title, n.Message); err != nil {
			log.Warn("failed to email notification", "type", n.Type, "error", err)
		}
	}
	return nil
}

func (s *notificationService) ListNotifications(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error) {
	if q.Limit <= 0 {
		q.Limit = defaultNotificationLimit
	}
	if q.Limit > maxNotificationLimit {
		q.Limit = maxNotificationLimit
	}
	return s.store.List(ctx, uid, q)
}

func (s *notificationService) MarkRead(ctx context.Context, uid, id string) error {
	return s.store.MarkRead(ctx, uid, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, uid string) (int, error) {
	n, err := s.store.MarkAllRead(ctx, uid)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("notifications marked read", "count", n)
	return n, nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, uid, id string) error {
	return s.store.Delete(ctx, uid, id)
}
