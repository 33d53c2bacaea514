package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/topo-nomenclature/internal/cache/redisstore"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/config"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/health"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/observability"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/router"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/server"
	"github.com/mohammed-shakir/topo-nomenclature/internal/logger"
	"github.com/mohammed-shakir/topo-nomenclature/internal/lookupevents"
	h3mapper "github.com/mohammed-shakir/topo-nomenclature/internal/mapper/h3"
	"github.com/mohammed-shakir/topo-nomenclature/internal/metrics"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
	"github.com/mohammed-shakir/topo-nomenclature/internal/sheetcache"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "nomkd",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting nomkd",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.Cache.Enabled,
		"redis", cfg.Cache.RedisAddr != "",
		"events", cfg.Events.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts server.Options
	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Path: cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		if cfg.Metrics.Addr != "" {
			server.ServeMetrics(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, appLog, p.Handler())
		} else {
			opts.Metrics = p.Handler()
		}
	}

	var codec router.Codec = nomenclature.New()
	if cfg.Cache.Enabled {
		var cacheOpts []sheetcache.Option
		cacheOpts = append(cacheOpts, sheetcache.WithLogger(appLog.With("component", "sheetcache")))
		if cfg.Cache.RedisAddr != "" {
			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			rc, err := redisstore.New(dialCtx, cfg.Cache.RedisAddr,
				redisstore.WithPool(cfg.Cache.RedisPool, 0),
				redisstore.WithTimeouts(0, cfg.Cache.OpTimeout),
				redisstore.WithAuth(cfg.Cache.RedisPass, cfg.Cache.RedisDB))
			cancel()
			if err != nil {
				appLog.Error("redis unavailable", "addr", cfg.Cache.RedisAddr, "err", err)
				return 1
			}
			defer func() { _ = rc.Close() }()
			cacheOpts = append(cacheOpts, sheetcache.WithStore(rc))
			opts.Ready = map[string]health.Pinger{"redis": rc}
		}
		codec = sheetcache.New(nomenclature.New(), sheetcache.Config{
			Size:      cfg.Cache.Size,
			TTL:       cfg.Cache.TTL,
			TTLFor:    cfg.Cache.TTLFor,
			OpTimeout: cfg.Cache.OpTimeout,
		}, cacheOpts...)
	}

	var events lookupevents.Publisher = lookupevents.Noop{}
	if cfg.Events.Enabled {
		k, err := lookupevents.NewKafka(cfg.Events.BrokerList(), cfg.Events.Topic, cfg.Events.Queue,
			lookupevents.WithLogger(appLog.With("component", "lookupevents")))
		if err != nil {
			appLog.Error("lookup events setup failed", "err", err)
			return 1
		}
		events = k
	}
	defer func() {
		if err := events.Close(); err != nil {
			appLog.Warn("lookup events close", "err", err)
		}
	}()

	api := router.New(appLog, cfg, codec, h3mapper.New(), events)
	h := server.NewHandler(cfg, appLog, api, opts)

	if err := server.Run(ctx, cfg.Addr, appLog, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
