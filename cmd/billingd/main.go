package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/visitdesk/visitdesk/pkg/config"
	"github.com/visitdesk/visitdesk/pkg/httpserver"
	"github.com/visitdesk/visitdesk/pkg/logger"
	mongodb "github.com/visitdesk/visitdesk/pkg/mongo"
	"github.com/visitdesk/visitdesk/pkg/redis"
	"github.com/visitdesk/visitdesk/pkg/subscription"
	"github.com/visitdesk/visitdesk/svc/billing"
)

func main() {
	log := logger.New(logger.WithProduction("billingd"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), log); err != nil {
		log.Error("billing service exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		billingCfg billing.Config
		mongoCfg   mongodb.Config
		redisCfg   redis.Config
		paddleCfg  subscription.PaddleConfig
		httpCfg    httpserver.Config
	)
	config.MustLoad(&billingCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&paddleCfg)
	config.MustLoad(&httpCfg)
	// REDIS_URL may be unset; billing.New runs without the counter cache then.
	config.MustLoad(&redisCfg)

	app, err := billing.New(ctx, billing.Deps{
		Cfg:    billingCfg,
		Mongo:  mongoCfg,
		Redis:  redisCfg,
		Paddle: paddleCfg,
		Log:    log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("billing API listening", logger.Component("billingd"))
		}),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, app.Handler) })
	g.Go(func() error {
		err := app.Sweeper.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}
