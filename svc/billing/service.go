package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/visitdesk/visitdesk/pkg/logger"
	mongodb "github.com/visitdesk/visitdesk/pkg/mongo"
	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/redis"
	"github.com/visitdesk/visitdesk/pkg/subscription"
	"github.com/visitdesk/visitdesk/pkg/tenant"
)

// Deps bundles the configuration the billing service is assembled from.
type Deps struct {
	Cfg    Config
	Mongo  mongodb.Config
	Redis  redis.Config // empty ConnectionURL disables the counter cache
	Paddle subscription.PaddleConfig
	Log    *slog.Logger
}

// App is the assembled billing service: the lifecycle engine, its HTTP
// surface and the background expiry sweeper.
type App struct {
	Service subscription.Service
	Handler http.Handler
	Sweeper *Sweeper

	close []func(context.Context) error
}

// New assembles the billing service: storage, catalog, payment gateway,
// usage counters and the engine on top.
func New(ctx context.Context, deps Deps) (*App, error) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("billing"))

	db, err := mongodb.NewWithDatabase(ctx, deps.Mongo)
	if err != nil {
		return nil, err
	}

	app := &App{}
	app.close = append(app.close, func(ctx context.Context) error {
		return db.Client().Disconnect(ctx)
	})

	stores := subscription.NewMongoStores(db)
	if err := stores.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	catalog := plan.NewYAMLSource(deps.Cfg.CatalogPath)
	plans, err := catalog.Plans(ctx)
	if err != nil {
		return nil, err
	}
	addons, err := catalog.Addons(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := subscription.NewPaddleProvider(deps.Paddle)
	if err != nil {
		return nil, err
	}

	ready := []func(context.Context) error{mongodb.Healthcheck(db.Client())}

	var rdb *goredis.Client
	if deps.Redis.ConnectionURL != "" {
		rdb, err = redis.Connect(ctx, deps.Redis)
		if err != nil {
			return nil, err
		}
		app.close = append(app.close, func(context.Context) error {
			return rdb.Close()
		})
		ready = append(ready, redis.Healthcheck(rdb))
	}

	resolver := tenant.NewResolver(tenant.NewMongoUserStore(db))

	opts := []subscription.Option{
		subscription.WithLogger(log),
		subscription.WithCallerResolver(callerResolver(resolver)),
	}
	for res, counter := range Counters(db) {
		if rdb != nil {
			counter = CachedCounter(rdb, res, deps.Cfg.CounterCacheTTL, counter)
		}
		opts = append(opts, subscription.WithCounter(res, counter))
	}

	svc, err := subscription.NewEngine(ctx, catalog, provider,
		subscription.Stores{
			Records:  stores.Records,
			History:  stores.History,
			Addons:   stores.Addons,
			Profiles: stores.Profiles,
			Tenants:  stores.Tenants,
			Tx:       mongodb.NewTransactor(db.Client()),
		}, opts...)
	if err != nil {
		return nil, err
	}

	app.Service = svc
	app.Handler = NewRouter(RouterConfig{
		Service:            svc,
		Checkout:           provider,
		Plans:              plans,
		Addons:             addons,
		Log:                log,
		CheckoutSuccessURL: deps.Cfg.CheckoutSuccessURL,
		Ready:              ready,
	})
	app.Sweeper = NewSweeper(svc, deps.Cfg.SweepInterval, log)

	return app, nil
}

// Close releases storage connections in reverse acquisition order.
func (a *App) Close(ctx context.Context) error {
	var last error
	for i := len(a.close) - 1; i >= 0; i-- {
		if err := a.close[i](ctx); err != nil {
			last = err
		}
	}
	return last
}

// callerResolver adapts the tenant resolver to the engine's contract.
func callerResolver(r *tenant.Resolver) subscription.CallerResolver {
	return func(ctx context.Context, userID uuid.UUID) (subscription.Caller, error) {
		id, err := r.Resolve(ctx, userID)
		if err != nil {
			return subscription.Caller{}, err
		}
		return subscription.Caller{TenantID: id.TenantID, IsEmployee: id.IsEmployee}, nil
	}
}
