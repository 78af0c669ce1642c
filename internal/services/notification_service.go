package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/internal/repository"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// RetentionPeriod is how long a notification survives before sweeps remove it.
	RetentionPeriod = 10 * 24 * time.Hour
	// ListLimit caps the notifications returned by List.
	ListLimit = 50
)

// NotificationStore is the persistence the service needs for one audience.
type NotificationStore interface {
	Insert(ctx context.Context, notif *models.Notification) error
	FindRecent(ctx context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, recipientID, id primitive.ObjectID, now time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID primitive.ObjectID, now time.Time) (int64, error)
	Delete(ctx context.Context, recipientID, id primitive.ObjectID) error
	DeleteForRecipient(ctx context.Context, recipientID primitive.ObjectID, cutoff *time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecipientDirectory resolves recipients and their preferences.
type RecipientDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipient, error)
}

// CreateNotificationInput describes a notification to create.
type CreateNotificationInput struct {
	RecipientID primitive.ObjectID
	Title       string
	Message     string
	Type        models.NotificationType
	Data        map[string]interface{}
}

// ListResult is the payload of List. Notifications is nil for count-only
// requests so the field is left out of the JSON body.
type ListResult struct {
	Notifications *[]models.Notification `json:"notifications,omitempty"`
	UnreadCount   int64                  `json:"unreadCount"`
}

// NotificationService implements the notification lifecycle for one audience.
type NotificationService struct {
	audience    models.Audience
	store       NotificationStore
	recipients  RecipientDirectory
	now         func() time.Time
	inlineSweep bool
	log         *logrus.Entry
}

// Option customises a NotificationService.
type Option func(*NotificationService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *NotificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInlineSweep makes List drop the recipient's expired notifications
// before reading.
func WithInlineSweep(enabled bool) Option {
	return func(s *NotificationService) {
		s.inlineSweep = enabled
	}
}

func NewNotificationService(audience models.Audience, store NotificationStore, recipients RecipientDirectory, opts ...Option) *NotificationService {
	s := &NotificationService{
		audience:   audience,
		store:      store,
		recipients: recipients,
		now:        time.Now,
		log:        logger.WithComponent("notifications").WithField("audience", audience),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NotificationService) Audience() models.Audience {
	return s.audience
}

// Create stores a notification unless the recipient opted out of its type.
// A suppressed notification yields (nil, nil).
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	log := s.log.WithFields(logrus.Fields{
		"recipientID": in.RecipientID.Hex(),
		"type":        in.Type,
	})

	if in.RecipientID.IsZero() {
		log.Error("Notification rejected: recipient id is required")
		return nil, fmt.Errorf("%w: recipient id is required", ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		log.Error("Notification rejected: message is required")
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	key, ok := s.audience.PreferenceKeyFor(in.Type)
	if !ok {
		log.Error("Notification rejected: unknown type")
		return nil, fmt.Errorf("%w: type %q is not valid for %s notifications", ErrValidation, in.Type, s.audience)
	}

	recipient, err := s.recipients.GetByID(ctx, in.RecipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("Notification rejected: recipient does not exist")
			return nil, fmt.Errorf("%w: recipient does not exist", ErrValidation)
		}
		return nil, s.storeErr(log, "load recipient", err)
	}

	if recipient.Preferences.Malformed(key) {
		log.WithFields(logrus.Fields{
			"preference": key,
			"value":      recipient.Preferences[key],
		}).Debug("Ignoring non-boolean notification preference")
	}
	if !recipient.Preferences.Allows(key) {
		log.WithField("preference", key).Debug("Notification suppressed by recipient preference")
		metrics.NotificationsSuppressed.WithLabelValues(string(s.audience), string(in.Type)).Inc()
		return nil, nil
	}

	now := s.now()
	notif := &models.Notification{
		RecipientID: in.RecipientID,
		Title:       strings.TrimSpace(in.Title),
		Message:     strings.TrimSpace(in.Message),
		Type:        in.Type,
		Read:        false,
		Data:        in.Data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if notif.Data == nil {
		notif.Data = map[string]interface{}{}
	}

	if err := s.store.Insert(ctx, notif); err != nil {
		return nil, s.storeErr(log, "create notification", err)
	}

	metrics.NotificationsCreated.WithLabelValues(string(s.audience), string(in.Type)).Inc()
	log.WithField("notificationID", notif.ID.Hex()).Info("Notification created")
	return notif, nil
}

// Notify is the entry point for domain-event producers (signups, payments,
// recipe updates) that must not be blocked by notification problems.
// Failures are logged by Create; suppression and failure both return nil.
func (s *NotificationService) Notify(ctx context.Context, in CreateNotificationInput) *models.Notification {
	notif, err := s.Create(ctx, in)
	if err != nil {
		return nil
	}
	return notif
}

// List returns the unread count and, unless countOnly, the newest notifications.
func (s *NotificationService) List(ctx context.Context, recipientID primitive.ObjectID, countOnly bool) (*ListResult, error) {
	log := s.log.WithField("recipientID", recipientID.Hex())

	if s.inlineSweep {
		cutoff := s.now().Add(-RetentionPeriod)
		if deleted, err := s.store.DeleteForRecipient(ctx, recipientID, &cutoff); err != nil {
			log.WithError(err).Warn("Inline notification sweep failed")
		} else if deleted > 0 {
			log.WithField("deleted", deleted).Debug("Inline notification sweep removed old notifications")
		}
	}

	unread, err := s.store.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, s.storeErr(log, "count unread notifications", err)
	}
	if countOnly {
		return &ListResult{UnreadCount: unread}, nil
	}

	notifications, err := s.store.FindRecent(ctx, recipientID, ListLimit)
	if err != nil {
		return nil, s.storeErr(log, "fetch notifications", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return &ListResult{Notifications: &notifications, UnreadCount: unread}, nil
}

// MarkAsRead marks one of the recipient's notifications read.
func (s *NotificationService) MarkAsRead(ctx context.Context, recipientID, id primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.store.MarkRead(ctx, recipientID, id, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storeErr(s.log.WithField("notificationID", id.Hex()), "mark notification as read", err)
	}
	return notif, nil
}

// MarkAllAsRead marks every unread notification of the recipient and returns
// how many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	modified, err := s.store.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return 0, s.storeErr(s.log.WithField("recipientID", recipientID.Hex()), "mark all notifications as read", err)
	}
	return modified, nil
}

func (s *NotificationService) Delete(ctx context.Context, recipientID, id primitive.ObjectID) error {
	if err := s.store.Delete(ctx, recipientID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return s.storeErr(s.log.WithField("notificationID", id.Hex()), "delete notification", err)
	}
	return nil
}

// Clear deletes the recipient's notifications: all of them, or only those past
// the retention period. It returns the number actually deleted.
func (s *NotificationService) Clear(ctx context.Context, recipientID primitive.ObjectID, all bool) (int64, error) {
	var cutoff *time.Time
	if !all {
		c := s.now().Add(-RetentionPeriod)
		cutoff = &c
	}

	deleted, err := s.store.DeleteForRecipient(ctx, recipientID, cutoff)
	if err != nil {
		return 0, s.storeErr(s.log.WithField("recipientID", recipientID.Hex()), "clear notifications", err)
	}
	return deleted, nil
}

// PurgeExpired deletes every recipient's notifications older than the
// retention period.
func (s *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteOlderThan(ctx, s.now().Add(-RetentionPeriod))
	if err != nil {
		return 0, s.storeErr(s.log, "purge expired notifications", err)
	}
	return deleted, nil
}

func (s *NotificationService) storeErr(log *logrus.Entry, op string, err error) error {
	log.WithError(err).Errorf("Failed to %s", op)
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
