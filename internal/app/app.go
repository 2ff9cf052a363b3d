// Package app wires the scanner worker, its collaborators and the HTTP
// surface into one process.
package app

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/dedup"
	"github.com/christopherhenripage/odds-trader/internal/provider"
	"github.com/christopherhenripage/odds-trader/internal/scanner"
	"github.com/christopherhenripage/odds-trader/internal/storage"
	"github.com/christopherhenripage/odds-trader/pkg/cache"
	"github.com/christopherhenripage/odds-trader/pkg/config"
	"github.com/christopherhenripage/odds-trader/pkg/healthprobe"
	"github.com/christopherhenripage/odds-trader/pkg/httpserver"
	"github.com/christopherhenripage/odds-trader/pkg/stream"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	hub           *stream.Hub
	provider      *provider.Client
	providerCache cache.Cache
	dedup         dedup.Cache
	redis         *redis.Client
	storage       storage.Storage
	scanner       *scanner.Service
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// Sports overrides cfg.Sports when set.
	Sports []string

	// Storage replaces the storage selected by cfg.StorageMode.
	Storage storage.Storage
}

// Scanner returns the scan worker.
func (a *App) Scanner() *scanner.Service {
	return a.scanner
}
