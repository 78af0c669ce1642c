package jobs

import (
	"context"
	"fmt"

	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/internal/models"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const NotificationRetentionJob = "notification-retention"

// Purger deletes one audience's notifications past the retention period.
type Purger interface {
	Audience() models.Audience
	PurgeExpired(ctx context.Context) (int64, error)
}

// NotificationRetention is the daily global sweep over every audience.
type NotificationRetention struct {
	purgers []Purger
	log     *logrus.Entry
}

func NewNotificationRetention(purgers ...Purger) *NotificationRetention {
	return &NotificationRetention{
		purgers: purgers,
		log:     logger.WithComponent("jobs").WithField("job", NotificationRetentionJob),
	}
}

// Sweep purges each audience independently and returns per-audience counts.
// A failing audience does not stop the others.
func (j *NotificationRetention) Sweep(ctx context.Context) (map[models.Audience]int64, error) {
	deleted := make(map[models.Audience]int64, len(j.purgers))
	var errs error

	for _, p := range j.purgers {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s notifications: %w", p.Audience(), err))
			continue
		}
		deleted[p.Audience()] = n
		metrics.SweptRecords.WithLabelValues(NotificationRetentionJob, string(p.Audience())).Add(float64(n))
	}

	fields := logrus.Fields{}
	for audience, n := range deleted {
		fields[string(audience)] = n
	}
	j.log.WithFields(fields).Info("Notification retention sweep completed")
	return deleted, errs
}

// Run adapts Sweep to scheduler.Task.
func (j *NotificationRetention) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}
