// Package app wires configuration into repositories and services. Both the
// API server and candlectl start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/api"
	"github.com/candlecraft/storefront/internal/api/handlers"
	"github.com/candlecraft/storefront/internal/auth"
	"github.com/candlecraft/storefront/internal/cart"
	"github.com/candlecraft/storefront/internal/config"
	"github.com/candlecraft/storefront/internal/domain"
	"github.com/candlecraft/storefront/internal/media"
	"github.com/candlecraft/storefront/internal/otp"
	"github.com/candlecraft/storefront/internal/pricing"
	"github.com/candlecraft/storefront/internal/realtime"
	"github.com/candlecraft/storefront/internal/repository"
	"github.com/candlecraft/storefront/internal/repository/memory"
	"github.com/candlecraft/storefront/internal/repository/postgres"
	"github.com/candlecraft/storefront/internal/service"
	"github.com/candlecraft/storefront/internal/signup"
	"github.com/candlecraft/storefront/internal/sms"
	"github.com/candlecraft/storefront/internal/storage"
	"github.com/candlecraft/storefront/internal/storage/sqlite"
)

// signupTTL bounds how long an abandoned signup flow is kept
const signupTTL = 30 * time.Minute

// App holds the wired services of one process
type App struct {
	Config *config.Config
	Repos  *repository.Repositories
	Hub    *realtime.Hub

	Auth     *auth.Service
	OTP      *otp.Service
	Signups  *signup.Registry
	Orders   OrderService
	Products ProductService
	Stats    handlers.StatsService
	Carts    *cart.Manager
	Streams  *realtime.Streamer
	Uploads  *media.Presigner

	logger  *zap.Logger
	closers []func() error
}

// OrderService is the order workflow plus the checkout entry point
type OrderService interface {
	handlers.OrderService
	cart.OrderPlacer
}

// ProductService is the catalog plus bulk import
type ProductService interface {
	handlers.ProductService
	Import(ctx context.Context, products []*domain.Product) (created, updated int, err error)
}

// OpenRepositories connects the configured database driver
func OpenRepositories(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*repository.Repositories, *sql.DB, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("Using in-memory repositories; data is lost on restart")
		return memory.NewRepositories(), nil, nil
	case "postgres", "":
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewRepositories(db, logger), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// New builds every service. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	repos, db, err := OpenRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.Repos = repos
	if db != nil {
		a.closers = append(a.closers, db.Close)
	}

	var cartStore storage.Store
	if cfg.Cart.StorePath == "" {
		cartStore = storage.NewMemory()
	} else {
		store, err := sqlite.Open(cfg.Cart.StorePath, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		cartStore = store
		a.closers = append(a.closers, store.Close)
	}

	var sender sms.Sender
	if cfg.SMS.GatewayURL == "" {
		logger.Warn("SMS_GATEWAY_URL not set; verification codes are only logged")
		sender = sms.NewLogSender(logger)
	} else {
		sender = sms.NewClient(cfg.SMS, logger)
	}

	a.Hub = realtime.NewHub(logger)
	a.closers = append(a.closers, func() error { a.Hub.Close(); return nil })
	a.Streams = realtime.NewStreamer(a.Hub, originAllowed(cfg.CORSOrigins), logger)

	a.Auth = auth.NewService(repos.User, cfg.Auth, logger)
	a.OTP = otp.NewService(repos.PhoneVerification, sender, cfg.OTP, logger)
	a.Signups = signup.NewRegistry(a.OTP, a.Auth, signupTTL, logger)

	a.Orders = service.NewOrderService(repos, a.Hub, logger)
	a.Products = service.NewProductService(repos, a.Hub, logger)
	a.Stats = service.NewStatsService(repos, logger)
	a.Carts = cart.NewManager(cartStore, pricing.Rates{
		GiftCharge:  cfg.Cart.GiftCharge,
		PlatformFee: cfg.Cart.PlatformFee,
	}, a.Orders, logger)

	if cfg.Media.Bucket != "" {
		uploads, err := media.New(ctx, cfg.Media, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Uploads = uploads
	}

	return a, nil
}

// Services returns what the HTTP routes need
func (a *App) Services() api.Services {
	svc := api.Services{
		Auth:     a.Auth,
		Signups:  a.Signups,
		Carts:    a.Carts,
		Orders:   a.Orders,
		Products: a.Products,
		Stats:    a.Stats,
		Streams:  a.Streams,
	}
	// keep the interface nil rather than holding a nil *Presigner
	if a.Uploads != nil {
		svc.Uploads = a.Uploads
	}
	return svc
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func originAllowed(origins []string) func(string) bool {
	return func(origin string) bool {
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
