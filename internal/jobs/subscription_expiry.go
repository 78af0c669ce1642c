package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/internal/services"
	"github.com/Dias221467/yumix/pkg/email"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const (
	SubscriptionExpiryJob = "subscription-expiry"
	// ExpiryWarningWindow is how far ahead expiring subscriptions are warned about.
	ExpiryWarningWindow = 3 * 24 * time.Hour
)

type SubscriptionStore interface {
	FindExpiringUnnotified(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
	MarkNotificationSent(ctx context.Context, id primitive.ObjectID, now time.Time) error
}

type NotificationCreator interface {
	Create(ctx context.Context, in services.CreateNotificationInput) (*models.Notification, error)
}

// Mailer delivers the optional email copy of a warning.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// RecipientLookup resolves the user a subscription belongs to.
type RecipientLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipient, error)
}

type ExpiryReport struct {
	Matched    int
	Notified   int
	Suppressed int
	Failed     int
	Emailed    int
}

type ExpiryOption func(*SubscriptionExpiryWatcher)

// WithExpiryEmail also emails users whose in-app warning was created. Email
// failures are logged and never affect notification_sent.
func WithExpiryEmail(mailer Mailer, users RecipientLookup) ExpiryOption {
	return func(w *SubscriptionExpiryWatcher) {
		w.mailer = mailer
		w.users = users
	}
}

// SubscriptionExpiryWatcher warns users once about a subscription that is
// about to expire. The notification_sent flag is written only after the
// notification exists, so a failed run is retried the next day.
type SubscriptionExpiryWatcher struct {
	subscriptions SubscriptionStore
	notifications NotificationCreator
	mailer        Mailer
	users         RecipientLookup
	now           func() time.Time
	log           *logrus.Entry
}

func NewSubscriptionExpiryWatcher(subscriptions SubscriptionStore, notifications NotificationCreator, now func() time.Time, opts ...ExpiryOption) *SubscriptionExpiryWatcher {
	if now == nil {
		now = time.Now
	}
	w := &SubscriptionExpiryWatcher{
		subscriptions: subscriptions,
		notifications: notifications,
		now:           now,
		log:           logger.WithComponent("jobs").WithField("job", SubscriptionExpiryJob),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan notifies every matching subscription. Per-subscription failures are
// collected and do not stop the batch.
func (w *SubscriptionExpiryWatcher) Scan(ctx context.Context) (ExpiryReport, error) {
	var report ExpiryReport

	now := w.now()
	subs, err := w.subscriptions.FindExpiringUnnotified(ctx, now, now.Add(ExpiryWarningWindow))
	if err != nil {
		return report, fmt.Errorf("failed to fetch expiring subscriptions: %w", err)
	}
	report.Matched = len(subs)

	var errs error
	for _, sub := range subs {
		log := w.log.WithFields(logrus.Fields{
			"subscriptionID": sub.ID.Hex(),
			"userID":         sub.UserID.Hex(),
		})

		notif, err := w.notifications.Create(ctx, expiryNotification(sub))
		if err != nil {
			report.Failed++
			log.WithError(err).Warn("Failed to send subscription expiry notification")
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", sub.ID.Hex(), err))
			continue
		}
		if notif == nil {
			// The user opted out of subscription notifications.
			report.Suppressed++
		} else {
			report.Notified++
			if w.sendEmail(ctx, log, sub) {
				report.Emailed++
			}
		}

		if err := w.subscriptions.MarkNotificationSent(ctx, sub.ID, w.now()); err != nil {
			report.Failed++
			log.WithError(err).Error("Failed to flag subscription as notified")
			errs = multierr.Append(errs, err)
		}
	}

	metrics.SweptRecords.WithLabelValues(SubscriptionExpiryJob, "notified").Add(float64(report.Notified))
	w.log.WithFields(logrus.Fields{
		"matched":    report.Matched,
		"notified":   report.Notified,
		"suppressed": report.Suppressed,
		"failed":     report.Failed,
		"emailed":    report.Emailed,
	}).Info("Subscription expiry scan completed")
	return report, errs
}

func (w *SubscriptionExpiryWatcher) Run(ctx context.Context) error {
	_, err := w.Scan(ctx)
	return err
}

func (w *SubscriptionExpiryWatcher) sendEmail(ctx context.Context, log *logrus.Entry, sub models.Subscription) bool {
	if w.mailer == nil || w.users == nil {
		return false
	}

	user, err := w.users.GetByID(ctx, sub.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load user for expiry email")
		return false
	}
	if user.Email == "" {
		return false
	}

	body, err := email.RenderSubscriptionExpiry(user.Name, planName(sub), sub.ExpiryDate)
	if err != nil {
		log.WithError(err).Warn("Failed to render expiry email")
		return false
	}
	if err := w.mailer.Send(ctx, user.Email, "Your YuMix subscription expires soon", body); err != nil {
		log.WithError(err).Warn("Failed to send expiry email")
		return false
	}
	return true
}

func planName(sub models.Subscription) string {
	if sub.PlanType == "" {
		return "premium"
	}
	return sub.PlanType
}

func expiryNotification(sub models.Subscription) services.CreateNotificationInput {
	plan := planName(sub)
	return services.CreateNotificationInput{
		RecipientID: sub.UserID,
		Title:       "Subscription expiring soon",
		Message: fmt.Sprintf("Your %s subscription expires on %s. Renew now to keep your premium features.",
			plan, sub.ExpiryDate.Format("Jan 2, 2006")),
		Type: models.UserTypeSubscription,
		Data: map[string]interface{}{
			"subscriptionId": sub.ID.Hex(),
			"planType":       sub.PlanType,
			"expiryDate":     sub.ExpiryDate,
		},
	}
}
