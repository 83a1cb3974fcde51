package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/fish-activity/internal/weather"
)

const (
	minInterval     = time.Minute
	defaultInterval = 30 * time.Minute
)

// Refresher refreshes and caches the forecast of a location.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location, days int) (weather.Forecast, error)
}

// Scheduler periodically refreshes the forecast of watched locations so that
// activity requests for them are served from a warm cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	locations []weather.Location
	days      int
	interval  time.Duration
	timeout   time.Duration
	log       logrus.FieldLogger
}

// New creates a new Scheduler.
func New(locations []weather.Location, days int, interval time.Duration, service Refresher, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		days:      days,
		interval:  interval,
		timeout:   30 * time.Second,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info("no locations to watch; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < minInterval {
		s.log.WithFields(logrus.Fields{
			"requested": s.interval.String(),
			"using":     defaultInterval.String(),
		}).Warn("scheduler interval below one minute; using the default")
		interval = defaultInterval
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.WithFields(logrus.Fields{
		"locations": len(s.locations),
		"interval":  interval.String(),
	}).Info("forecast refresh scheduled")
	return nil
}

// RunOnce refreshes every watched location concurrently.
func (s *Scheduler) RunOnce() {
	s.log.Debug("running forecast refresh job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if _, err := s.service.Refresh(ctx, loc, s.days); err != nil {
				s.log.WithError(err).WithField("location", loc.Key()).Warn("forecast refresh failed")
			}
		}(loc)
	}
	wg.Wait()

	s.log.Debug("completed forecast refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
