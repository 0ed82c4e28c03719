package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/analytics"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/categories"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/exchangerates"
	importrepo "github.com/FACorreiaa/family-finance-tracker/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/family-finance-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/investments"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/persons"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/family-finance-tracker/pkg/config"
	"github.com/FACorreiaa/family-finance-tracker/pkg/cron"
	"github.com/FACorreiaa/family-finance-tracker/pkg/db"
	"github.com/FACorreiaa/family-finance-tracker/pkg/metrics"
	"github.com/FACorreiaa/family-finance-tracker/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repositories
	ImportRepo       *importrepo.PostgresImportRepository
	CategoriesRepo   *categories.Repository
	PersonsRepo      *persons.Repository
	AnalyticsRepo    *analytics.Repository
	InvestmentsRepo  *investments.Repository
	TransactionsRepo *transactions.Repository

	// Services
	UploadService       *importservice.UploadService
	CategoriesService   *categories.Service
	PersonsService      *persons.Service
	AnalyticsService    *analytics.Service
	InvestmentsService  *investments.Service
	TransactionsService *transactions.Service
	ExchangeRates       *exchangerates.Service
	Scheduler           *cron.Scheduler
	FileStorage         *storage.LocalStorage
}

// InitDependencies initializes all application dependencies. rates may be
// nil, in which case zero-valued quotes are served.
func InitDependencies(cfg *config.Config, logger *slog.Logger, rates exchangerates.RateSource) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()
	if err := deps.initServices(rates); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initMetrics() {
	if !d.Config.Observability.MetricsEnabled {
		return
	}
	d.Registry = prometheus.NewRegistry()
	d.Metrics = metrics.New(d.Registry)
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.DB.Pool)
	d.CategoriesRepo = categories.NewRepository(d.DB.Pool)
	d.PersonsRepo = persons.NewRepository(d.DB.Pool)
	d.AnalyticsRepo = analytics.NewRepository(d.DB.Pool)
	d.InvestmentsRepo = investments.NewRepository(d.DB.Pool)
	d.TransactionsRepo = transactions.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices(rates exchangerates.RateSource) error {
	d.UploadService = importservice.NewUploadService(d.ImportRepo, UploadConfig(d.Config), d.Logger, d.Metrics)
	if dir := d.Config.Upload.ArchiveDir; dir != "" {
		fileStorage, err := storage.NewLocalStorage(dir)
		if err != nil {
			return fmt.Errorf("failed to init file storage: %w", err)
		}
		d.FileStorage = fileStorage
		d.UploadService.WithArchive(fileStorage)
	}
	d.CategoriesService = categories.NewService(d.CategoriesRepo, d.Logger)
	d.PersonsService = persons.NewService(d.PersonsRepo, d.Logger)
	d.AnalyticsService = analytics.NewService(d.AnalyticsRepo, d.Config.Upload.DefaultCurrency, d.Logger)
	d.InvestmentsService = investments.NewService(d.InvestmentsRepo, d.Logger)
	d.TransactionsService = transactions.NewService(d.TransactionsRepo, d.Logger)

	d.ExchangeRates = exchangerates.NewService(rates, d.Config.ExchangeRates.TTL, d.Logger)
	d.Scheduler = cron.NewScheduler(d.ExchangeRates, d.Config.ExchangeRates.RefreshSpec, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// UploadConfig maps the upload section of cfg onto the import service.
func UploadConfig(cfg *config.Config) importservice.Config {
	return importservice.Config{
		MaxFileBytes:    cfg.Upload.MaxFileBytes,
		MaxRows:         cfg.Upload.MaxRows,
		DefaultCurrency: cfg.Upload.DefaultCurrency,
		LedgerCurrency:  cfg.Upload.LedgerCurrency,
	}
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
