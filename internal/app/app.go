package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/auth"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/notify"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

type storages struct {
	kv       storage.KV
	sqldb    storage.SQLDB
	products storage.ProductsRepository
	users    storage.UsersRepository
}

type broker struct {
	producer *kafka.ProductEventsProducer
	consumer *kafka.ProductEventsConsumer
}

type coreService struct {
	auth    *service.AuthService
	catalog *service.CatalogService
	cart    *service.CartService
}

type App struct {
	ctx           context.Context
	cfg           config.Config
	storages      storages
	notifications *notify.Queue
	broker        broker
	service       coreService
	httpServer    httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorages()
	app.initCoreService()
	app.initBroker()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorages() {
	const op = "App.initStorages"

	kv, err := app.openKV()
	if err != nil {
		app.fallDown(op, err)
	}

	sqldb, err := storage.NewSQLDB(
		app.ctx, app.cfg.SQLDB, app.cfg.SQLPingAttempts,
	)
	if err != nil {
		_ = kv.Close()
		app.fallDown(op, err)
	}

	app.storages = storages{
		kv:       kv,
		sqldb:    sqldb,
		products: storage.NewProductsRepository(sqldb),
		users:    storage.NewUsersRepository(sqldb),
	}
}

func (app *App) openKV() (storage.KV, error) {
	kvCfg := app.cfg.KV
	switch kvCfg.Driver {
	case config.KVDriverMemory:
		kv, err := storage.NewMemoryKV()
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.KVDriverRedis:
		kv, err := storage.NewRedisKV(
			app.ctx, kvCfg.RedisURL, storage.RedisPrefixOpt(kvCfg.KeyPrefix),
		)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		kv, err := storage.NewLevelDBKV(kvCfg.Path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	}
}

func (app *App) initCoreService() {
	app.notifications = notify.NewQueue(app.cfg.Notifications.Capacity)

	provider := auth.NewProvider(
		app.storages.users, app.cfg.Auth.JWTSecret, app.cfg.Auth.TokenTTL,
	)
	authService := service.NewAuthService(
		provider,
		storage.NewSessionRepository(app.storages.kv),
		app.notifications,
		app.cfg.Auth.AdminEmail,
	)
	authService.Restore(app.ctx)

	cache := catalog.NewCache(
		catalog.LanguageOpt(language.Make(app.cfg.Catalog.Language)),
	)

	app.service = coreService{
		auth: authService,
		cart: service.NewCartService(
			cart.New(),
			storage.NewCartRepository(app.storages.kv, app.cfg.KV.CartKey),
			cache,
			app.notifications,
			app.cfg.Cart.MaxQuantity,
		),
	}

	var publisher port.ProductEventsPublisher
	if app.cfg.Broker.Enabled() {
		app.broker.producer = app.newProducer()
		publisher = app.broker.producer
	}

	app.service.catalog = service.NewCatalogService(
		cache,
		app.storages.products,
		publisher,
		app.notifications,
		authService,
	)

	if err := app.service.catalog.Refresh(app.ctx); err != nil {
		slog.Warn("initial catalog refresh failed", "err", err)
	}
	app.service.cart.Restore(app.ctx)
}

func (app *App) newProducer() *kafka.ProductEventsProducer {
	const op = "App.newProducer"
	brokerCfg := app.cfg.Broker
	topic := brokerCfg.Topics.ProductEvents

	identifier, err := schema.NewRegistryIdentifier(brokerCfg.SchemaRegistryURLs)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(schema.TopicValueSubject(topic)),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewProductEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, brokerCfg.SeedBrokers, topic, app.brokerSecurity(),
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return &producer
}

// initBroker subscribes the catalog to product changes made elsewhere.
func (app *App) initBroker() {
	const op = "App.initBroker"
	brokerCfg := app.cfg.Broker
	if !brokerCfg.Enabled() {
		slog.Info("broker is not configured, product change feed is off")
		return
	}

	identifier, err := schema.NewRegistryIdentifier(brokerCfg.SchemaRegistryURLs)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(schema.TopicValueSubject(brokerCfg.Topics.ProductEvents)),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	consumer, err := kafka.NewProductEventsConsumer(
		kafka.ConsumerClientOpt(
			brokerCfg.SeedBrokers,
			brokerCfg.Topics.ProductEvents,
			brokerCfg.Consumers.CatalogRefreshGroup,
			app.brokerSecurity(),
		),
		kafka.ConsumerDecoderOpt(serde),
		kafka.ConsumerRefresherOpt(app.service.catalog),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.consumer = &consumer
}

func (app *App) brokerSecurity() kafka.Security {
	const op = "App.brokerSecurity"
	brokerCfg := app.cfg.Broker

	var tlsCfg *tls.Config
	if brokerCfg.TLS.Enabled() {
		var err error
		tlsCfg, err = adapter.MakeTLSConfig(
			brokerCfg.TLS.CA, brokerCfg.TLS.Cert, brokerCfg.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
	}

	return kafka.Security{
		TLS:  tlsCfg,
		User: brokerCfg.User,
		Pass: brokerCfg.Pass,
	}
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.service.catalog, app.service.catalog)
	httphandler.RegisterCart(mux, app.service.cart)
	httphandler.RegisterAuth(mux, app.service.auth)
	httphandler.RegisterAdmin(mux, app.service.catalog)
	httphandler.RegisterNotifications(mux, app.notifications)

	httpCfg := app.cfg.HTTP
	app.httpServer = httphandler.NewHTTPServer(
		httphandler.ServerConfig{
			Addr:              httpCfg.Addr,
			HandlerTimeout:    httpCfg.HandlerTimeout,
			ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
			IdleTimeout:       httpCfg.IdleTimeout,
		},
		httphandler.AllowJSON(mux),
	)
}

// Run blocks until ctx is done or the http server fails.
func (app *App) Run(ctx context.Context) error {
	const op = "App.Run"

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(app.httpServer.Run)

	if app.broker.consumer != nil {
		g.Go(func() error {
			app.broker.consumer.Run(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), app.cfg.HTTP.ShutdownTimeout,
		)
		defer cancel()
		app.httpServer.Close(shutdownCtx)
		return nil
	})

	slog.Info("application is running")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close releases the outbound adapters. Run must have returned.
func (app *App) Close() {
	slog.Info("application is closing...")

	if app.broker.consumer != nil {
		app.broker.consumer.Close()
	}
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}
	if err := app.storages.kv.Close(); err != nil {
		slog.Error("failed to close key-value storage", "err", err)
	}
	app.storages.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
