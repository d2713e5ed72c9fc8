package bootstrap

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbeaudouin05/admin-checkout/api/config"
	"github.com/tbeaudouin05/admin-checkout/api/database"
	"github.com/tbeaudouin05/admin-checkout/api/metrics"
	checkoutapp "github.com/tbeaudouin05/admin-checkout/api/services/checkout/app"
	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
	checkoutdb "github.com/tbeaudouin05/admin-checkout/api/services/checkout/db"
	stripegw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway/stripe"
	profileapp "github.com/tbeaudouin05/admin-checkout/api/services/profile/app"
)

const (
	backendTimeout    = 20 * time.Second
	backendMaxRetries = 3
)

var (
	checkoutService checkoutapp.Service
	profileService  profileapp.Service
	retrier         *checkoutapp.Retrier
	appMetrics      *metrics.Metrics
	initOnce        sync.Once
	initErr         error
)

// Init initializes config, database, and third-party clients, and wires services.
func Init() error {
	// If a service has already been injected (e.g., tests), do not override or init heavy deps.
	if checkoutService != nil {
		return nil
	}
	var err error
	if config.AppConfig == nil {
		config.AppConfig, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := config.AppConfig

	if err := database.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	stripegw.SetKey(cfg.StripeSecretKey)

	appMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	client := backend.NewStableClient(backend.NewHTTPClient(cfg.BackendBaseURL, cfg.BackendAuthToken), backendTimeout, backendMaxRetries)
	store := checkoutdb.NewRepository(database.GetDB())

	checkoutService = checkoutapp.NewService(checkoutapp.Deps{
		Gateway:        stripegw.New(),
		Backend:        client,
		FollowUps:      store,
		Metrics:        appMetrics,
		DashboardRoute: cfg.DashboardRoute,
	}, config.MaxCheckoutSessions, cfg.SessionTTLDuration())
	profileService = profileapp.NewService(client)
	retrier = checkoutapp.NewRetrier(store, client, appMetrics)
	return nil
}

func GetCheckoutService() checkoutapp.Service { return checkoutService }

// SetCheckoutService allows tests to inject a stub implementation.
func SetCheckoutService(s checkoutapp.Service) { checkoutService = s }

func GetProfileService() profileapp.Service { return profileService }

// SetProfileService allows tests to inject a stub implementation.
func SetProfileService(s profileapp.Service) { profileService = s }

// GetRetrier returns the follow-up retrier, nil until Init succeeded.
func GetRetrier() *checkoutapp.Retrier { return retrier }

func GetMetrics() *metrics.Metrics { return appMetrics }

// Ensure runs Init() once per process and returns any initialization error.
func Ensure() error {
	initOnce.Do(func() {
		initErr = Init()
	})
	return initErr
}
