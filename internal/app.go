package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sharecircle/auth"
	"sharecircle/infrastructure/api"
	"sharecircle/infrastructure/ws"
	"sharecircle/moderation"
	"sharecircle/observability"
	"sharecircle/repositories"
	"sharecircle/runtime"
	"sharecircle/runtime/workers"
	"sharecircle/services"
	"sharecircle/storage"
	"sync"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds every long lived component of the server. Storage handles are
// owned by the caller, App only uses them.
type App struct {
	log        *slog.Logger
	config     Config
	relay      *runtime.Relay
	supervisor *workers.Supervisor
	monitoring *observability.MonitoringManager
	items      *repositories.ItemRepository
	handler    http.Handler
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewApp(log *slog.Logger, config Config, db *badger.DB, writer *bluge.Writer) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	monitoring := observability.NewMonitoringManager(log)

	// Chat relay
	connections := runtime.NewConnectionRegistry(log)
	broadcaster := runtime.NewRoomBroadcaster(log, connections, config.DeliveryTimeout, metrics, monitoring)
	relayOptions := []runtime.RelayOption{
		runtime.WithMetrics(metrics),
		runtime.WithTrustedClientFields(config.RelayTrustClientFields),
	}
	if config.ModerationEnabled {
		char, err := CharacterRune(config.ModerationCharacterReplacement)
		if err != nil {
			return nil, err
		}
		moderator, err := moderation.NewDefaultModerator(char, log)
		if err != nil {
			return nil, fmt.Errorf("moderation setup failed: %w", err)
		}
		relayOptions = append(relayOptions, runtime.WithCensor(moderator))
	}
	relay := runtime.NewRelay(log, connections, broadcaster, config.EventBufferSize, relayOptions...)

	supervisor := workers.NewSupervisor(log, config.RestartInterval, metrics)
	supervisor.Add(
		workers.NewRelayWorker(log, relay.Commands(), relay),
		workers.NewHeartbeatWorker(log, connections, monitoring, metrics, config.HeartbeatInterval),
	)

	// Marketplace
	uploads, err := storage.NewUploadStore(config.UploadsDir, log)
	if err != nil {
		return nil, err
	}
	items := repositories.NewItemRepository(db, repositories.NewItemIndex(writer), log)
	users := repositories.NewUserRepository(db)
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)

	handler := api.NewHandler(
		log,
		services.NewAuthService(users, issuer, uploads, log),
		services.NewItemService(items, uploads, log),
		services.NewGeoQueryEngine(items, metrics, log),
		monitoring,
	)
	chat := ws.NewHandler(log, relay, ws.Config{
		AllowedOrigins: config.Origins(),
		BufferSize:     config.ConnectionBufferSize,
		MaxMessageSize: int64(config.MaxMessageSize),
		RatePerSecond:  config.RateLimitPerSecond,
		RateBurst:      config.RateLimitBurst,
	})

	return &App{
		log:        log,
		config:     config,
		relay:      relay,
		supervisor: supervisor,
		monitoring: monitoring,
		items:      items,
		handler: api.NewRouter(handler, issuer, chat, registry, api.RouterConfig{
			AllowedOrigins:  config.Origins(),
			UploadsDir:      uploads.Root(),
			LoginRateLimit:  config.LoginRateLimit,
			LoginRateWindow: config.LoginRateWindow,
		}),
	}, nil
}

// Start rebuilds the text index then runs the supervised workers in the
// background until ctx is done or Stop is called.
func (a *App) Start(ctx context.Context) error {
	count, err := a.items.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	a.log.Info("Item index rebuilt", "items", count)

	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.supervisor.Run(ctx)
	}()
	return nil
}

// Stop closes every chat connection and waits for the workers.
func (a *App) Stop() {
	a.relay.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Monitoring() *observability.MonitoringManager {
	return a.monitoring
}
