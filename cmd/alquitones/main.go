package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alquitones/internal/config"
	"alquitones/internal/http/handlers"
	applog "alquitones/internal/log"
	"alquitones/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	var fileErr error
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fileErr = err
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init("alquitones", cfg.LogLevel, cfg.LogPretty, out)
	lg := applog.Component("main")
	if fileErr != nil {
		lg.Warn().Err(fileErr).Str("path", cfg.LogFile).Msg("log.file.open.fail")
	}
	cfg.Log(applog.Component("config"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage.open.fail")
	}
	defer closeStorage()

	st, err := repos.OpenStore(ctx, storage, repos.Options{Key: cfg.StorageKey, BcryptCost: cfg.BcryptCost})
	if err != nil {
		lg.Fatal().Err(err).Str("key", cfg.StorageKey).Msg("store.open.fail")
	}

	deps := handlers.NewDeps(st, storage, cfg)
	if n, err := deps.Res.EndExpired(ctx); err != nil {
		lg.Error().Err(err).Msg("reservations.expire.fail")
	} else if n > 0 {
		lg.Info().Int("ended", n).Msg("reservations.expired")
	}

	app := handlers.NewApp(deps, handlers.DefaultLimits())

	go func() {
		<-ctx.Done()
		lg.Info().Msg("server.shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			lg.Error().Err(err).Msg("server.shutdown.fail")
		}
	}()

	lg.Info().Str("port", cfg.Port).Msg("server.start")
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Fatal().Err(err).Msg("server.listen.fail")
	}
}

// openStorage picks the key-value backend shared by the store and sessions.
func openStorage(ctx context.Context, cfg config.Config) (repos.Storage, func(), error) {
	switch cfg.StorageDriver {
	case "redis":
		client, err := repos.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return repos.NewRedisStorage(client, ""), func() { _ = client.Close() }, nil
	case "memory":
		return repos.NewMemoryStorage(), func() {}, nil
	default:
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return repos.NewSQLiteStorage(db), func() { _ = db.Close() }, nil
	}
}
