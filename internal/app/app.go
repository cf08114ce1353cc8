package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/engine"
	"github.com/rexeee/mai-protocol/internal/fillstore"
	"github.com/rexeee/mai-protocol/internal/storage"
	"github.com/rexeee/mai-protocol/pkg/cache"
	"github.com/rexeee/mai-protocol/pkg/config"
	"github.com/rexeee/mai-protocol/pkg/healthprobe"
	"github.com/rexeee/mai-protocol/pkg/httpserver"
	"github.com/rexeee/mai-protocol/pkg/websocket"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	engine        *engine.Engine
	fills         fillstore.Store
	storage       storage.Storage
	marketCache   cache.Cache
	hub           *websocket.Hub
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
