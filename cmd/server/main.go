package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sjavs/internal/app"
	"sjavs/internal/config"
	"sjavs/internal/ports/httpapi"
	"sjavs/internal/ports/redisrepo"
	"sjavs/internal/ports/ws"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(*configPath, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(configPath string, log *zap.Logger) error {
	if err := config.Init(configPath); err != nil {
		return err
	}
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisrepo.NewClient(ctx, redisrepo.Options{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := app.NewService(app.Deps{
		Matches: redisrepo.NewMatchRepository(rdb),
		Players: redisrepo.NewPlayerIndex(rdb),
		Hands:   redisrepo.NewHandRepository(rdb),
		Tricks:  redisrepo.NewTrickRepository(rdb),
		Crosses: redisrepo.NewCrossRepository(rdb),
		Names:   redisrepo.NewUsernameDirectory(rdb),
	}, nil, nil)

	bus := redisrepo.NewEventBus(ctx, rdb, log)
	defer bus.Close()

	pub := app.NewPublisher(bus, log, nil)
	registry := ws.NewRegistry()
	hub := ws.NewHub(bus, registry, log)
	go hub.Run(ctx)

	auth := httpapi.NewAuthenticator(cfg.JWTSecret)
	wsHandler := ws.NewHandler(svc, pub, hub, registry, auth.FromRequest, cfg.AllowedOrigins, log)
	router := httpapi.NewServer(svc, pub, log).Router(auth, wsHandler, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
