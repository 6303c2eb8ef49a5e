package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mavericksstream/unlock/internal/api"
	"github.com/mavericksstream/unlock/internal/config"
	"github.com/mavericksstream/unlock/internal/db"
	"github.com/mavericksstream/unlock/internal/linking"
	"github.com/mavericksstream/unlock/internal/repository"
	"github.com/mavericksstream/unlock/internal/service"
	"github.com/mavericksstream/unlock/internal/service/payment"
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/mavericksstream/unlock/internal/unlock"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Terminal       *ui.Terminal
	IntentService  *service.IntentService
	LinkingService *service.LinkingService
	UploadService  *service.UploadService
	Journal        *service.AttemptJournal
	PaymentService payment.Provider
	Orchestrator   *unlock.Orchestrator
	LinkFlow       *linking.Flow
}

func New(cfg *config.Config, term *ui.Terminal) (*App, error) {
	var (
		database *sqlx.DB
		journal  *service.AttemptJournal
		err      error
	)

	// Journal is optional: DB_DRIVER=none disables it
	if cfg.DBDriver != "none" {
		database, err = db.Init(cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		err = db.RunMigrations(database.DB, cfg.DBDriver)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		journal = service.NewAttemptJournal(repository.NewAttemptRepository(database))
	}

	client := api.New(api.Options{
		BaseURL:            cfg.APIURL,
		Token:              cfg.AccessToken,
		Timeout:            cfg.HTTPTimeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenFor:     cfg.BreakerOpenFor,
	})

	intentService := service.NewIntentService(client)
	linkingService := service.NewLinkingService(client)
	uploadService := service.NewUploadService(client)

	// A provider that cannot start leaves unlocks reporting "unavailable" instead of failing the app
	paymentProvider, err := payment.NewProvider(cfg, term, term)
	if err != nil {
		slog.Warn("payment provider unavailable", "error", err)
		paymentProvider = nil
	}

	opts := []unlock.Option{unlock.WithStepTimeout(cfg.StepTimeout)}
	if journal != nil {
		opts = append(opts, unlock.WithObserver(journal))
	}
	orchestrator := unlock.New(cfg.Session(time.Now()), intentService, paymentProvider, term, cfg.AppURL, opts...)

	return &App{
		Cfg:            cfg,
		DB:             database,
		Terminal:       term,
		IntentService:  intentService,
		LinkingService: linkingService,
		UploadService:  uploadService,
		Journal:        journal,
		PaymentService: paymentProvider,
		Orchestrator:   orchestrator,
		LinkFlow:       linking.NewFlow(linkingService, term),
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
