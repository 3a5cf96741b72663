package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/metrics"
)

const backupTimeout = 2 * time.Minute

// Scheduler writes a backup file on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	dir     string
	logger  *zap.Logger
}

// NewScheduler creates a scheduler that writes backups of service into dir according
// to schedule, a standard five-field cron expression or descriptor such as "@daily".
func NewScheduler(service *Service, dir, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		dir:     dir,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule backup %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting backup scheduler", zap.String("dir", s.dir))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping backup scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	path, err := s.service.WriteFile(ctx, s.dir)
	metrics.Backups.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("failed to write backup", zap.Error(err))
		return
	}
	s.logger.Info("backup written", zap.String("path", path))
}
