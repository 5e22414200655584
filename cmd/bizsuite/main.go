package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/bizsuite/modules"
	"github.com/dmitrymomot/bizsuite/modules/crm"
	"github.com/dmitrymomot/bizsuite/modules/hr"
	"github.com/dmitrymomot/bizsuite/modules/inventory"
	"github.com/dmitrymomot/bizsuite/modules/manufacturing"
	"github.com/dmitrymomot/bizsuite/modules/purchase"
	"github.com/dmitrymomot/bizsuite/modules/sales"
	"github.com/dmitrymomot/bizsuite/pkg/config"
	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/httpserver"
	"github.com/dmitrymomot/bizsuite/pkg/idempotency"
	"github.com/dmitrymomot/bizsuite/pkg/jobs"
	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/metrics"
	"github.com/dmitrymomot/bizsuite/pkg/pg"
	"github.com/dmitrymomot/bizsuite/pkg/redis"
	"github.com/dmitrymomot/bizsuite/pkg/registry"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/secrets"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
	"github.com/dmitrymomot/bizsuite/pkg/tenantevents"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("bizsuite stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = config.LoadEnv()

	var cfg settings
	for _, load := range []func() error{
		func() error { return config.Load(&cfg.App) },
		func() error { return config.Load(&cfg.Tenant) },
		func() error { return config.Load(&cfg.DB) },
		func() error { return config.Load(&cfg.Mongo) },
		func() error { return config.Load(&cfg.Redis) },
		func() error { return config.Load(&cfg.Events) },
		func() error { return config.Load(&cfg.Secrets) },
		func() error { return config.Load(&cfg.Jobs) },
		func() error { return config.Load(&cfg.HTTP) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	extractors := append(scope.LogExtractors(), func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	})
	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.Service),
		logger.WithContextExtractors(extractors...),
	)
	logger.SetAsDefault(log)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	var (
		checks []httpserver.Check
		rdb    *goredis.Client
	)

	if cfg.App.RedisEnabled {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	// Without Redis there is no subscriber, so registry writes invalidate the
	// local resolver directly. It is assigned below, before serving starts.
	var resolver *tenant.Resolver
	var notifier registry.Notifier = registry.NotifierFunc(func(_ context.Context, id uuid.UUID) error {
		if resolver != nil {
			resolver.Invalidate(id)
		}
		return nil
	})
	if rdb != nil {
		pub, err := tenantevents.NewPublisher(rdb, cfg.Events.Channel)
		if err != nil {
			return err
		}
		notifier = pub
	}

	reg, regCheck, closeReg, err := openRegistry(ctx, cfg.App.SeedFile, notifier, log)
	if err != nil {
		return err
	}
	defer closeReg()
	if regCheck != nil {
		checks = append(checks, httpserver.Check{Name: "registry", Fn: regCheck})
	}

	revealer, err := secrets.FromConfig(ctx, cfg.Secrets)
	if err != nil {
		return err
	}

	cache := tenant.NewCache(append(cfg.Tenant.CacheOptions(), tenant.WithCacheMetrics(m))...)
	defer cache.Close()

	resolver, err = tenant.NewResolver(reg, cache,
		tenant.WithSecrets(revealer),
		tenant.WithLookupTimeout(cfg.Tenant.LookupTimeout),
		tenant.WithResolverLogger(log),
		tenant.WithResolverMetrics(m),
	)
	if err != nil {
		return err
	}

	factoryOpts := []dbconn.Option{
		dbconn.WithConfig(cfg.DB),
		dbconn.WithLogger(log),
		dbconn.WithMetrics(m),
	}
	invDB, err := dbconn.NewPgx(inventory.ModuleName, factoryOpts...)
	if err != nil {
		return err
	}
	crmDB, err := dbconn.NewPgx(crm.ModuleName, factoryOpts...)
	if err != nil {
		return err
	}
	salesDB, err := dbconn.NewPgx(sales.ModuleName, factoryOpts...)
	if err != nil {
		return err
	}
	hrDB, err := dbconn.NewSQL(hr.ModuleName, factoryOpts...)
	if err != nil {
		return err
	}
	purchaseDB, err := dbconn.NewSQL(purchase.ModuleName, factoryOpts...)
	if err != nil {
		return err
	}
	mfgDB, err := dbconn.NewMongo(manufacturing.ModuleName, cfg.Mongo, factoryOpts...)
	if err != nil {
		return err
	}

	var idemStore idempotency.Store = idempotency.NewMemoryStore()
	if rdb != nil {
		idemStore = idempotency.NewRedisStore(rdb)
	}
	guard, err := idempotency.NewGuard(idemStore, idempotency.WithMetrics(m))
	if err != nil {
		return err
	}

	invStore := inventory.NewStore[*pgx.Conn](invDB)
	salesStore := sales.NewStore[*pgx.Conn](salesDB)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(scope.Middleware(resolver, cfg.Tenant.Extractor(), scope.WithMiddlewareLogger(log)))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))

	r.Mount("/api", modules.Router(modules.RouterOptions{
		Inventory:      inventory.NewService(invStore, log),
		CRM:            crm.NewService(crm.NewStore[*pgx.Conn](crmDB), log),
		Sales:          sales.NewService(salesStore, guard, log),
		HR:             hr.NewService(hr.NewStore(hrDB), log),
		Purchase:       purchase.NewService(purchase.NewStore(purchaseDB), log),
		Manufacturing:  manufacturing.NewService(manufacturing.NewStore(mfgDB), log),
		TenantRequired: scope.DefaultErrorHandler(log),
	}))

	fanOut, err := jobs.NewFanOut(resolver,
		jobs.WithConcurrency(cfg.Jobs.Concurrency),
		jobs.WithLogger(log),
		jobs.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	scheduler, err := jobs.NewScheduler(fanOut,
		jobs.WithCheckInterval(cfg.Jobs.CheckInterval),
		jobs.WithSchedulerLogger(log),
	)
	if err != nil {
		return err
	}
	if err := scheduler.Register(inventory.LowStockJobName, jobs.HourlyAt(5),
		inventory.LowStockJob(invStore, cfg.App.LowStockThreshold, log)); err != nil {
		return err
	}
	if err := scheduler.Register(sales.ExpireDraftsJobName, jobs.DailyAt(2, 30),
		sales.ExpireDraftsJob(salesStore, cfg.App.DraftMaxAge, log)); err != nil {
		return err
	}

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, r)
	})
	g.Go(func() error {
		return scheduler.Start(ctx)
	})
	if rdb != nil {
		sub, err := tenantevents.NewSubscriber(rdb, cfg.Events.Channel, resolver, tenantevents.WithLogger(log))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sub.Run(ctx)
		})
	}

	log.InfoContext(ctx, "bizsuite started",
		slog.String("addr", cfg.HTTP.Addr),
		slog.Any("jobs", scheduler.Jobs()))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openRegistry returns the YAML-seeded memory registry when seedFile is set,
// the Postgres registry otherwise.
func openRegistry(ctx context.Context, seedFile string, notifier registry.Notifier, log *slog.Logger) (tenant.Registry, func(context.Context) error, func(), error) {
	var opts []registry.Option
	if notifier != nil {
		opts = append(opts, registry.WithNotifier(notifier))
	}

	if seedFile != "" {
		mem := registry.NewMemory(opts...)
		if err := mem.LoadFile(seedFile); err != nil {
			return nil, nil, nil, fmt.Errorf("load tenant seed file: %w", err)
		}
		log.InfoContext(ctx, "using in-memory tenant registry", slog.String("seed_file", seedFile))
		return mem, nil, func() {}, nil
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	reg, err := registry.NewPostgres(pool, opts...)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return reg, pg.Healthcheck(pool), pool.Close, nil
}
