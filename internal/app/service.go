// Package service wires the configured storage backend behind the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/siteforms/internal/adapters/http/api"
	"github.com/okian/siteforms/internal/adapters/mq/queue"
	workerpool "github.com/okian/siteforms/internal/adapters/mq/worker"
	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/internal/config"
	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/pkg/logger"
	"github.com/okian/siteforms/pkg/metrics"
)

// Service owns the active Store and everything behind it.
type Service struct {
	mu sync.RWMutex

	cfg     *config.Config
	backend string

	// Core components
	store      repository.Store
	db         repository.DB
	closeDB    func()
	httpClient repository.HTTPDoer
	queue      *queue.InMemoryQueue
	workerPool *workerpool.Pool
	cancelRun  context.CancelFunc

	started bool
	logger  logger.Logger
}

var _ api.Dependencies = (*Service)(nil)

// New constructs a Service for cfg. Nothing is dialed until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:     cfg,
		backend: cfg.Storage.Backend,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the configured backend name.
func (s *Service) Backend() string { return s.backend }

// Start opens the configured backend. For postgres it connects and
// optionally migrates; for async sheets it starts the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting form service", logger.String("backend", s.backend))

	var err error
	switch s.backend {
	case repository.BackendPostgres:
		err = s.startPostgres(ctx)
	case repository.BackendSheets:
		s.startSheets(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, s.backend)
	}
	if err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "form service started", logger.String("backend", s.backend))
	return nil
}

func (s *Service) startPostgres(ctx context.Context) error {
	if s.db == nil {
		n := s.cfg.Postgres.MaxConns
		if n <= 0 || n > config.MaxPostgresConns {
			return fmt.Errorf("%w: postgres.max_conns %d out of range", config.ErrInvalidConfig, n)
		}
		pool, err := repository.NewPool(ctx, s.cfg.Postgres.DSN, int32(n))
		if err != nil {
			return err
		}
		s.db = pool
		s.closeDB = pool.Close
	}

	if s.cfg.Postgres.Migrate {
		if err := repository.Migrate(ctx, s.db); err != nil {
			s.releaseDB()
			return err
		}
		s.logger.Info(ctx, "schema migrated")
	}

	s.store = repository.NewPostgresStore(s.db,
		repository.WithPostgresLogger(s.logger.Named("postgres")))
	return nil
}

func (s *Service) startSheets(ctx context.Context) {
	clientOpts := []repository.SheetClientOption{repository.WithTimeout(s.cfg.SheetsTimeout())}
	if s.httpClient != nil {
		clientOpts = append(clientOpts, repository.WithHTTPClient(s.httpClient))
	}
	client := repository.NewSheetClient(s.cfg.Sheets.URL, clientOpts...)

	storeOpts := []repository.SheetOption{repository.WithSheetLogger(s.logger.Named("sheets"))}
	if s.cfg.Sheets.Delivery == config.DeliveryAsync {
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.Sheets.QueueSize))
		s.workerPool = workerpool.NewPool(s.cfg.Sheets.Workers, s.queue, client)

		// workers outlive the caller's context so Stop can drain the queue
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancelRun = cancel
		s.workerPool.Start(runCtx)

		storeOpts = append(storeOpts, repository.WithQueue(s.queue))
		s.logger.Info(ctx, "async sheet delivery enabled",
			logger.Int("workers", s.workerPool.Size()),
			logger.Int("queue_size", s.cfg.Sheets.QueueSize),
		)
	}
	s.store = repository.NewSheetStore(client, storeOpts...)
}

// Stop drains queued sheet rows and releases the database, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping form service")

	var err error
	if s.workerPool != nil {
		if pending := s.queue.Len(ctx); pending > 0 {
			s.logger.Info(ctx, "draining sheet queue", logger.Int("pending", pending))
		}
		err = s.workerPool.Shutdown(ctx)
		s.cancelRun()
		s.workerPool, s.queue = nil, nil
	}
	s.releaseDB()

	s.store = nil
	s.started = false
	s.logger.Info(ctx, "form service stopped")
	return err
}

func (s *Service) releaseDB() {
	if s.closeDB != nil {
		s.closeDB()
		s.closeDB = nil
		s.db = nil
	}
}

func (s *Service) activeStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// CreateSubmission stores a contact inquiry or work request.
func (s *Service) CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error) {
	st, err := s.activeStore()
	if err != nil {
		return model.Submission{}, err
	}
	start := time.Now()
	rec, err := st.CreateSubmission(ctx, in)
	s.observe("create_submission", start, err)
	if err == nil {
		metrics.RecordSubmissionCreated(string(rec.Kind), s.backend)
	}
	return rec, err
}

// FindSubscriptionByEmail looks up an existing subscription.
func (s *Service) FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error) {
	st, err := s.activeStore()
	if err != nil {
		return model.Subscription{}, false, err
	}
	start := time.Now()
	rec, found, err := st.FindSubscriptionByEmail(ctx, email)
	s.observe("find_subscription", start, err)
	return rec, found, err
}

// CreateSubscription stores a newsletter sign-up.
func (s *Service) CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error) {
	st, err := s.activeStore()
	if err != nil {
		return model.Subscription{}, err
	}
	start := time.Now()
	rec, err := st.CreateSubscription(ctx, in)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// a constraint hit, not an outage
		s.observe("create_subscription", start, nil)
		return rec, err
	}
	s.observe("create_subscription", start, err)
	if err == nil {
		metrics.RecordSubscriptionCreated(s.backend)
	}
	return rec, err
}

func (s *Service) observe(op string, start time.Time, err error) {
	metrics.RecordStorageLatency(s.backend, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStorageError(s.backend, op)
	}
}

// Health reports the active backend and the state of each dependency.
func (s *Service) Health(ctx context.Context) api.HealthReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deps := map[string]string{
		repository.BackendPostgres: api.StatusNotConfigured,
		repository.BackendSheets:   api.StatusNotConfigured,
	}
	report := api.HealthReport{Backend: s.backend, Dependencies: deps}

	if !s.started {
		deps[s.backend] = api.StatusUnhealthy
		return report
	}

	switch s.backend {
	case repository.BackendPostgres:
		deps[repository.BackendPostgres] = api.StatusHealthy
		if p, ok := s.store.(repository.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				s.logger.Warn(ctx, "postgres health check failed", logger.Error(err))
				deps[repository.BackendPostgres] = api.StatusUnhealthy
			}
		}
	case repository.BackendSheets:
		// the webhook has no probe; a configured URL is all we can check
		deps[repository.BackendSheets] = api.StatusHealthy
		if s.queue != nil {
			deps["queue"] = fmt.Sprintf("%s (%d pending)", api.StatusHealthy, s.queue.Len(ctx))
			if s.queue.IsClosed() {
				deps["queue"] = api.StatusUnhealthy
			}
		}
	}
	return report
}
