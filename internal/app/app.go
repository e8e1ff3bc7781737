// Package app assembles the popcorn components.
package app

import (
	"fmt"

	"github.com/amaumene/popcorn/internal/api"
	"github.com/amaumene/popcorn/internal/config"
	"github.com/amaumene/popcorn/internal/controllers"
	"github.com/amaumene/popcorn/internal/services/omdb"
	"github.com/amaumene/popcorn/internal/storage"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// App holds the wired components of one session
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Store    storage.Store
	Client   *omdb.Client
	Registry *prometheus.Registry
	Browser  *controllers.Browser
	Server   *api.Server
}

// ProviderSet lists the constructors InitializeApp is generated from
var ProviderSet = wire.NewSet(
	ProvideStore,
	ProvideRegistry,
	ProvideMetrics,
	omdb.NewClient,
	ProvideSearchController,
	ProvideDetailController,
	controllers.NewWatchedController,
	ProvideBrowser,
	api.NewServer,
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
	wire.Struct(new(App), "*"),
)

// ProvideStore opens the configured store and closes it on cleanup
func ProvideStore(cfg *config.Config, logger *logrus.Logger) (storage.Store, func(), error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	logger.WithField("driver", cfg.StorageDriver).Info("Storage initialized")

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Failed to close storage")
		}
	}
	return store, cleanup, nil
}

// ProvideRegistry creates the registry served on /metrics
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) *controllers.Metrics {
	return controllers.NewMetrics(reg)
}

func ProvideSearchController(client *omdb.Client, cfg *config.Config, metrics *controllers.Metrics, logger *logrus.Logger) *controllers.SearchController {
	return controllers.NewSearchController(client, cfg, metrics, logger)
}

func ProvideDetailController(client *omdb.Client, cfg *config.Config, metrics *controllers.Metrics, logger *logrus.Logger) *controllers.DetailController {
	return controllers.NewDetailController(client, cfg, metrics, logger)
}

// ProvideBrowser creates the session and cancels its pending cycles on cleanup
func ProvideBrowser(search *controllers.SearchController, detail *controllers.DetailController, watched *controllers.WatchedController, logger *logrus.Logger) (*controllers.Browser, func()) {
	browser := controllers.NewBrowser(search, detail, watched, logger)
	return browser, browser.Close
}
