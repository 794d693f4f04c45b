package app

import (
	"context"
	"sync"

	"github.com/mselser95/claimpool/internal/feed"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/internal/storage"
	"github.com/mselser95/claimpool/pkg/cache"
	"github.com/mselser95/claimpool/pkg/config"
	"github.com/mselser95/claimpool/pkg/healthprobe"
	"github.com/mselser95/claimpool/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	storage       storage.Storage
	cache         *cache.RistrettoCache
	feed          *feed.Subscriber // nil when the feed is disabled
	processor     *resolution.Processor
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
