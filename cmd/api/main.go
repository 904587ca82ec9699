package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/config"
	"github.com/pintukerja/pintukerja_be/internal/db"
	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
	"github.com/pintukerja/pintukerja_be/internal/notify"
	"github.com/pintukerja/pintukerja_be/internal/realtime"
	"github.com/pintukerja/pintukerja_be/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	lg := logger.WithModule("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(db.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		lg.Fatal("connect database", zap.Error(err))
	}
	if err := db.AutoMigrate(gdb); err != nil {
		lg.Fatal("migrate database", zap.Error(err))
	}
	admin, err := db.SeedAdmin(gdb, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		lg.Fatal("seed admin", zap.Error(err))
	}
	if admin != nil {
		lg.Info("admin account ready", zap.String("email", admin.Email))
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// redis is optional: without it pushes only reach sockets on this instance
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			lg.Warn("redis not reachable, using local delivery only", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			go func() {
				if err := realtime.Subscribe(ctx, rdb, hub); err != nil {
					lg.Error("notification subscriber stopped", zap.Error(err))
				}
			}()
		}
	}

	dispatcher := notify.NewDispatcher(gdb, hub, rdb)
	modSvc := moderation.NewService(gdb, moderation.WithNotifier(dispatcher))

	app := server.New(server.Deps{
		Config:     cfg,
		DB:         gdb,
		Hub:        hub,
		Moderation: modSvc,
		Notifier:   dispatcher,
	})

	go func() {
		<-ctx.Done()
		lg.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	lg.Info("listening", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		lg.Fatal("listen", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}
}
