package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram_booking_bot/internal/storage/models"
	"telegram_booking_bot/pkg/logger"
	"telegram_booking_bot/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// JobFunc выполняет одну задачу обслуживания
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	run  JobFunc
}

// MaintenanceScheduler периодически запускает фоновые задачи бота
type MaintenanceScheduler struct {
	cron     *cron.Cron
	schedule string
	jobs     []job
	logger   *logger.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// New создает планировщик с расписанием в формате cron ("@every 1m", "*/5 * * * *")
func New(schedule string, log *logger.Logger) *MaintenanceScheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &MaintenanceScheduler{
		cron:     cron.New(),
		schedule: schedule,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register добавляет задачу. Задачи регистрируются до Start
func (s *MaintenanceScheduler) Register(name string, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job{name: name, run: fn})
}

// Start ставит все задачи в расписание и запускает cron
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	if s.started {
		return nil
	}

	for _, j := range s.jobs {
		j := j
		if _, err := s.cron.AddFunc(s.schedule, func() { s.runJob(j) }); err != nil {
			return fmt.Errorf("invalid maintenance schedule %q: %w", s.schedule, err)
		}
	}

	s.cron.Start()
	s.started = true

	s.logger.Info("Maintenance scheduler started",
		logger.String("schedule", s.schedule),
		logger.Int("jobs", len(s.jobs)),
	)
	return nil
}

// RunNow синхронно выполняет все задачи один раз
func (s *MaintenanceScheduler) RunNow() {
	s.mu.Lock()
	jobs := make([]job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, j := range jobs {
		s.runJob(j)
	}
}

// Stop останавливает cron и ждет завершения запущенных задач
func (s *MaintenanceScheduler) Stop() error {
	var err error

	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		s.cancel()
		done := s.cron.Stop()

		select {
		case <-done.Done():
		case <-time.After(5 * time.Second):
			err = fmt.Errorf("maintenance jobs did not finish in time")
		}

		s.logger.Info("Maintenance scheduler stopped")
	})

	return err
}

func (s *MaintenanceScheduler) runJob(j job) {
	start := time.Now()
	if err := j.run(s.ctx); err != nil {
		metrics.RecordError("scheduler", j.name)
		s.logger.Warn("Maintenance job failed",
			logger.String("job", j.name),
			logger.Error(err),
		)
		return
	}

	s.logger.Debug("Maintenance job finished",
		logger.String("job", j.name),
		logger.Duration("duration", time.Since(start)),
	)
}

// CleanupJob оборачивает Cleaner в задачу с логированием
func CleanupJob(name string, c Cleaner, log *logger.Logger) JobFunc {
	return func(ctx context.Context) error {
		if removed := c.Cleanup(); removed > 0 {
			log.Debug("Stale entries removed",
				logger.String("job", name),
				logger.Int("removed", removed),
			)
		}
		return nil
	}
}

// AppointmentGaugeJob обновляет gauge записей по статусам
func AppointmentGaugeJob(counter StatusCounter) JobFunc {
	return func(ctx context.Context) error {
		counts, err := counter.CountAppointmentsByStatus(ctx)
		if err != nil {
			return err
		}

		// Известные статусы выставляем всегда, чтобы gauge обнулялся
		for _, status := range []string{models.StatusPending, models.StatusConfirmed, models.StatusCancelled} {
			metrics.SetAppointments(status, float64(counts[status]))
		}
		for status, n := range counts {
			metrics.SetAppointments(status, float64(n))
		}
		return nil
	}
}

// RuntimeStatsJob обновляет метрики памяти и горутин
func RuntimeStatsJob() JobFunc {
	return func(ctx context.Context) error {
		metrics.UpdateRuntimeStats()
		return nil
	}
}
