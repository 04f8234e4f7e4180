package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/sites"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

// Scheduler periodically re-ingests a trailing window of weather for every
// registered site, keeping stored history current and extending it through
// the forecast horizon. Re-running over days that already exist is safe: the
// (location, date) upsert converges instead of duplicating.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	service      *weather.Service
	directory    sites.Directory
	interval     time.Duration
	lookbackDays int
	forecastDays int
}

// New creates a new Scheduler.
func New(directory sites.Directory, service *weather.Service, interval time.Duration, lookbackDays, forecastDays int) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:    s,
		service:      service,
		directory:    directory,
		interval:     interval,
		lookbackDays: lookbackDays,
		forecastDays: forecastDays,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		zap.L().Info("scheduler disabled; no refresh interval configured")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.refreshAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	all, err := s.directory.List(ctx)
	if err != nil {
		zap.S().Errorf("scheduler: listing sites failed: %v", err)
		return
	}
	if len(all) == 0 {
		return
	}

	today := common.DateOnly(time.Now())
	start := today.AddDate(0, 0, -s.lookbackDays)
	end := today.AddDate(0, 0, s.forecastDays)

	zap.S().Infow("scheduler: refreshing weather", "sites", len(all), "start", common.DateKey(start), "end", common.DateKey(end))

	var wg sync.WaitGroup
	for _, site := range all {
		site := site
		wg.Add(1)
		go func() {
			defer wg.Done()

			jobCtx, jobCancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer jobCancel()

			if _, err := s.service.IngestWeather(jobCtx, site.ID, site.Latitude, site.Longitude, start, end); err != nil {
				zap.S().Errorf("scheduler: refresh failed for %s: %v", site.ID, err)
			}
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
