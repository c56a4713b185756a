package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a scheduled unit of work. *jobs.VisibilitySweeper implements it.
type Job interface {
	Run(ctx context.Context) error
}

// StartCronJobs runs the visibility sweeper on schedule. The returned
// scheduler must be stopped on shutdown.
func StartCronJobs(sweeper Job, schedule string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := sweeper.Run(ctx); err != nil {
			logrus.WithError(err).Error("Visibility sweep failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logrus.WithField("schedule", schedule).Info("Cron jobs started")
	return c, nil
}
