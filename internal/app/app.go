package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/middleware"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	"github.com/noah-isme/seat-desk-api/internal/service"
	"github.com/noah-isme/seat-desk-api/pkg/cache"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	"github.com/noah-isme/seat-desk-api/pkg/database"
	"github.com/noah-isme/seat-desk-api/pkg/export"
	"github.com/noah-isme/seat-desk-api/pkg/jobs"
	"github.com/noah-isme/seat-desk-api/pkg/mailer"
	"github.com/noah-isme/seat-desk-api/pkg/messaging"
	"github.com/noah-isme/seat-desk-api/pkg/storage"
)

type stores struct {
	roster        repository.Roster
	admissions    repository.AdmissionStore
	wifi          repository.WifiStore
	announcements repository.AnnouncementStore
	snapshots     repository.SnapshotStore
}

// App holds the wired services shared by the HTTP server and the admin CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB        *sqlx.DB
	Redis     *redis.Client
	Publisher *messaging.Publisher
	Queue     *jobs.Queue
	Limiter   middleware.Limiter

	Metrics       *service.MetricsService
	Cache         *service.CacheService
	Seats         *service.SeatAllocator
	Auth          *service.AuthService
	Admissions    *service.AdmissionService
	Wifi          *service.WifiService
	Announcements *service.AnnouncementService
	Transactions  *service.TransactionService
	Attachments   *service.AttachmentService
	Portal        *service.PortalService
	Dashboard     *service.DashboardService
	Exports       *service.ExportService
	Backups       *service.BackupService
	Reminders     *service.ReminderService
}

// New opens the configured backends and wires every service. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, caching and login rate limit disabled", zap.Error(err))
		} else {
			a.Redis = client
			cacheRepo = repository.NewCacheRepository(client)
			a.Limiter = middleware.NewTokenBucket(client, "ratelimit:login", cfg.RateLimit.LoginCapacity, cfg.RateLimit.LoginRefill)
		}
	}
	a.Cache = service.NewCacheService(cacheRepo, a.Metrics, cfg.Dashboard.CacheTTL, logger)

	attachmentStore, err := repository.NewFileAttachmentStore(cfg.Storage.Dir, cfg.Storage.MaxImageWidth)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open attachment store: %w", err)
	}

	var events interface {
		Publish(ctx context.Context, payload interface{}) error
	}
	if cfg.AMQP.Enabled {
		a.Publisher = messaging.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Named("amqp"))
		events = a.Publisher
	}

	validate := validator.New()
	a.Seats = service.NewSeatAllocator(st.roster, attachmentStore, events, a.Cache, a.Metrics, service.SeatAllocatorConfig{
		TotalSeats:          cfg.Seats.Total,
		LockerPricePerMonth: cfg.Seats.LockerPricePerMonth,
		ExpiryWindow:        cfg.Seats.ExpiryWindow,
		InactiveRetention:   cfg.Seats.InactiveRetention,
	}, validate, logger.Named("seats"))

	a.Auth = service.NewAuthService(st.roster, validate, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "seat-desk-api",
		AdminUsername:     cfg.Admin.Username,
		AdminPassword:     cfg.Admin.Password,
	})

	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	a.Attachments = service.NewAttachmentService(attachmentStore, signer, cfg.APIPrefix+"/attachments", logger.Named("attachments"))
	a.Admissions = service.NewAdmissionService(st.admissions, attachmentStore, a.Seats, validate, logger.Named("admissions"))
	a.Wifi = service.NewWifiService(st.wifi, validate, logger)
	a.Announcements = service.NewAnnouncementService(st.announcements, validate, logger)
	a.Transactions = service.NewTransactionService(st.roster, logger)
	a.Portal = service.NewPortalService(a.Seats, a.Wifi, a.Announcements, a.Transactions, a.Attachments, logger.Named("portal"))
	a.Dashboard = service.NewDashboardService(a.Seats, a.Transactions, a.Cache, logger.Named("dashboard"), service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	a.Exports = service.NewExportService(st.roster, a.Transactions, service.ExportConfig{DeskName: cfg.SendGrid.FromName}, logger.Named("export"), export.NewCSVExporter(), export.NewPDFExporter())
	a.Backups = service.NewBackupService(st.snapshots, attachmentStore, a.Cache, logger.Named("backup"))

	a.Queue = jobs.NewQueue("reminders", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.Buffer,
		MaxRetries: cfg.Jobs.Retries,
		RetryDelay: 30 * time.Second,
		Logger:     logger.Named("jobs"),
	})
	a.Reminders = service.NewReminderService(a.Seats, a.Queue, a.mailer(), cfg.SendGrid.FromName, logger.Named("reminders"))
	a.Reminders.Register(a.Queue)

	return a, nil
}

func (a *App) mailer() mailer.Mailer {
	if a.Config.SendGrid.APIKey == "" {
		return mailer.NewLogMailer(a.Logger.Named("mail"))
	}
	return mailer.NewSendGrid(a.Config.SendGrid.APIKey, a.Config.SendGrid.FromName, a.Config.SendGrid.FromEmail)
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	cfg := a.Config
	switch cfg.Roster.Backend {
	case config.RosterBackendSQL:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.DB = db
		return &stores{
			roster:        repository.NewSQLRoster(db),
			admissions:    repository.NewAdmissionRepository(db),
			wifi:          repository.NewWifiRepository(db),
			announcements: repository.NewAnnouncementRepository(db),
			snapshots:     repository.NewSnapshotRepository(db),
		}, nil
	case config.RosterBackendFile:
		backend, err := repository.NewFileBackend(filepath.Clean(cfg.Roster.FilePath))
		if err != nil {
			return nil, err
		}
		return memoryStores(ctx, backend)
	default:
		return memoryStores(ctx, repository.NopBackend{})
	}
}

func memoryStores(ctx context.Context, backend repository.SnapshotBackend) (*stores, error) {
	store, err := repository.NewMemoryStore(ctx, backend)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return &stores{
		roster:        store,
		admissions:    store.Admissions(),
		wifi:          store.Wifi(),
		announcements: store.Announcements(),
		snapshots:     store,
	}, nil
}

// Close releases every opened backend.
func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Stop()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("close amqp publisher", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
