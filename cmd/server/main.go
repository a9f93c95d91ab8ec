package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swap_escrow/internal/config"
	"swap_escrow/internal/custody"
	"swap_escrow/internal/engine"
	"swap_escrow/internal/events"
	"swap_escrow/internal/httpApi"
	"swap_escrow/internal/registry"
	"swap_escrow/internal/storage/redisStore"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// start redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Fatal("can't reach redis")
	}

	// initialize all parts
	hub := events.NewHub()
	store := redisStore.NewStore(rdb)
	bank := custody.NewRedisBank(rdb)
	reg := registry.NewStatic(cfg.SupportedTokens)
	eng := engine.NewEngine(store, bank, reg, hub)

	if cfg.Owner != "" {
		if err := eng.Initialize(cfg.Owner, cfg.Treasury, cfg.FeeRateBps); err != nil {
			logrus.WithError(err).Fatal("ledger initialization failed")
		}
	} else {
		logrus.Info("waiting for initialize call")
	}

	// seed ledger liquidity so approvals can settle locally
	if cfg.DemoMode {
		ctx := context.Background()
		for _, token := range cfg.SupportedTokens {
			if err := bank.Mint(ctx, custody.LedgerAccount, token, cfg.DemoLiquidity); err != nil {
				logrus.WithError(err).WithField("token", token).Fatal("failed to seed liquidity")
			}
		}
		logrus.WithField("amount", cfg.DemoLiquidity).Info("demo liquidity seeded")
	}

	// start webSocket reaper
	go hub.ReapDead()

	// start http server
	srv := &http.Server{
		Addr:         cfg.HttpAddr,
		Handler:      httpApi.NewServer(eng, hub),
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
	go func() {
		logrus.WithField("addr", cfg.HttpAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("http shutdown failed")
	}
	logrus.Info("shutdown complete")
}
