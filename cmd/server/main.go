package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"mediadl-server/internal/api"
	"mediadl-server/internal/bus"
	"mediadl-server/internal/config"
	"mediadl-server/internal/downloader"
	"mediadl-server/internal/history"
	"mediadl-server/internal/jobs"
	"mediadl-server/internal/registry"
	"mediadl-server/internal/server"
	"mediadl-server/internal/store"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := server.PrepareFilesystem(cfg); err != nil {
		logger.Error("preparing filesystem", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(ctx, cfg.RedisAddr, logger)
	defer st.Close()

	reg := registry.New()
	eventBus := bus.New(cfg.SubscriberBuffer, logger)
	hist := history.New(cfg.HistoryLimit)
	hist.Restore(st.LoadHistory(ctx, cfg.HistoryLimit))

	engine := downloader.NewYTDLP(logger)

	manager := jobs.NewManager(cfg, reg, eventBus, hist, engine, st, logger)
	manager.Start(ctx)
	jobs.StartJanitor(ctx, cfg, logger)

	handler := api.NewHandler(cfg, manager, eventBus, engine, logger)
	router := api.NewRouter(handler, cfg)

	logger.Info("media download server started",
		"port", cfg.Port,
		"workers", cfg.MaxConcurrentJobs,
		"download_dir", cfg.DownloadDir,
	)

	if err := http.ListenAndServe(cfg.Port, router); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}
