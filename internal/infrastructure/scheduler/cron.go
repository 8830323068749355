package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"AutoPublisher/internal/ports"
	"AutoPublisher/pkg/logger"
)

// CronScheduler drives the orchestrator tick from a cron expression.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given cron spec and timezone.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	return &CronScheduler{spec: spec, location: location}
}

// Start registers the job and begins ticking. The job also fires once
// immediately so a restart does not wait a full interval.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || c.cron != nil {
		return nil
	}

	location := c.location
	if location == nil {
		location = time.UTC
	}

	c.cron = cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cron.PrintfLogger(logger.New("cron"))),
	)
	if _, err := c.cron.AddFunc(c.spec, func() { job(time.Now().In(location)) }); err != nil {
		return err
	}

	go job(time.Now().In(location))
	c.cron.Start()

	go func() {
		<-ctx.Done()
		c.cron.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}
	stopped := c.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	c.cron = nil
	return nil
}
