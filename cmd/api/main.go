package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bucketstore/bucketstore/internal/bucket"
	"github.com/bucketstore/bucketstore/internal/config"
	"github.com/bucketstore/bucketstore/internal/file"
	"github.com/bucketstore/bucketstore/internal/logger"
	"github.com/bucketstore/bucketstore/internal/server"
	"github.com/bucketstore/bucketstore/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir := storage.NewDir(cfg.Storage.RootDir)
	if err := dir.EnsureRoot(); err != nil {
		logg.Fatal("ensure storage root", zap.Error(err))
	}

	var (
		bucketRepo bucket.Store
		pinger     server.Pinger
	)

	switch cfg.Database.Backend {
	case "postgres":
		pool, err := storage.NewPostgresPool(ctx, cfg.Database.Postgres)
		if err != nil {
			logg.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		repo := bucket.NewRepository(pool)
		if err := repo.InitSchema(ctx); err != nil {
			logg.Fatal("init postgres schema", zap.Error(err))
		}
		bucketRepo = repo
		pinger = pool
	default:
		db, err := storage.NewSQLiteDB(cfg.Database.SQLite.Path)
		if err != nil {
			logg.Fatal("open sqlite", zap.Error(err))
		}
		defer db.Close()

		bucketRepo = bucket.NewSQLiteRepository(db)
		pinger = server.SQLPinger(db)
	}

	bucketService := bucket.NewService(bucketRepo, dir)
	fileService := file.NewService(bucketRepo, dir, cfg.Storage.AllowedExtensions)

	router := server.NewRouter(server.Dependencies{
		Config:        cfg,
		DB:            pinger,
		Logger:        logg,
		BucketService: bucketService,
		FileService:   fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("bucketstore API listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("backend", cfg.Database.Backend),
			zap.String("storage_root", dir.Root()),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
