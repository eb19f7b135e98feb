// Package main 连接 DevTools 目标，把页面对私有 origin 的加载交给调度器处理
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"appscheme/internal/config"
	"appscheme/internal/logger"
	"appscheme/internal/network"
	"appscheme/internal/scheme"
	"appscheme/internal/service"
	"appscheme/internal/storage"
	"appscheme/pkg/api"
	"appscheme/pkg/domain"
)

func main() {
	target := flag.String("target", "", "DevTools target id, empty selects the first page")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Writer:     cfg.Log.Writer,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, domain.TargetID(*target)); err != nil {
		log.Err(err, "运行失败")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, target domain.TargetID) error {
	db, err := storage.Open(storage.Options{Dsn: cfg.Sqlite.Dsn, Prefix: cfg.Sqlite.Prefix, Logger: log})
	if err != nil {
		return err
	}
	defer storage.Close(db)

	validators, closeValidators, err := newValidators(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeValidators()

	session := network.NewHTTPSession(network.HTTPConfig{
		Validators:       validators,
		LowPrioritySlots: cfg.Network.LowPrioritySlots,
		MaxRetries:       cfg.Network.MaxRetries,
		UserAgent:        cfg.Network.UserAgent,
		Logger:           log,
	})

	articles := storage.NewArticleStore(db)
	events := make(chan domain.InterceptEvent, 1024)
	d, err := scheme.New(scheme.Config{
		Origin:      scheme.Origin{Scheme: cfg.Scheme.Name, Host: cfg.Scheme.Host},
		Environment: cfg.Scheme.Environment,
		Session:     session,
		Assets:      os.DirFS(cfg.Scheme.AssetRoot),
		Articles:    articles,
		Validators:  validators,
		QueueSize:   cfg.Scheme.QueueSize,
		Events:      events,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	svc, err := api.NewService(service.Config{
		DevToolsURL: cfg.CDP.DevToolsURL,
		Origin:      cfg.CDP.Origin,
		Upstream:    cfg.CDP.Upstream,
		TimeoutMS:   cfg.CDP.TimeoutMS,
		Dispatcher:  d,
		Events:      events,
		Articles:    articles,
		Logger:      log,
	})
	if err != nil {
		d.Close()
		return err
	}
	defer svc.Close()

	sub, err := svc.SubscribeEvents()
	if err != nil {
		return err
	}
	eventLog := storage.NewEventLog(db, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eventLog.Run(gctx, sub)
		return nil
	})
	g.Go(func() error {
		info, err := svc.AttachTarget(gctx, target)
		if err != nil {
			return err
		}
		if err := svc.EnableInterception(info.ID); err != nil {
			return err
		}
		log.Info("开始拦截", "target", string(info.ID), "url", info.URL, "origin", cfg.CDP.Origin, "scheme", cfg.Scheme.Name)

		<-gctx.Done()
		st := svc.Stats()
		log.Info("停止拦截", "started", st.Started, "finished", st.Finished, "failed", st.Failed, "cancelled", st.Cancelled)
		return svc.Close()
	})
	return g.Wait()
}

// newValidators 按配置选择校验信息存储；none 时返回 nil
func newValidators(ctx context.Context, cfg *config.Config, db *gorm.DB) (network.ValidatorStore, func(), error) {
	switch cfg.Network.Validators {
	case "sqlite":
		return storage.NewValidatorStore(db), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Network.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Network.RedisAddr, err)
		}
		ttl := time.Duration(cfg.Network.ValidatorTTLHour) * time.Hour
		return storage.NewRedisValidatorStore(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
