package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobcast/app/api"
	"jobcast/app/cfg"
	"jobcast/app/database"
	"jobcast/app/extractor"
	"jobcast/app/notifier"
	"jobcast/app/pipeline"
	"jobcast/app/subscription"
	"jobcast/app/token"
	"jobcast/app/video"
)

func main() {
	// .env is optional, real deployments configure via environment
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Jobcast server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err.Error())
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	subscriberRepo := database.NewSubscriberRepository(db)
	watermarkRepo := database.NewWatermarkRepository(db)

	allowlist, err := subscription.LoadAllowlist(appCfg.AllowlistFile)
	if err != nil {
		slog.Error("Failed to load allow-list", "path", appCfg.AllowlistFile, "error", err.Error())
		os.Exit(1)
	}

	codec := token.NewCodec(appCfg.TokenSecret, time.Duration(appCfg.TokenTTLHours)*time.Hour)
	mailer := notifier.NewMailer(appCfg.SendGridAPIKey, appCfg.FromEmail, appCfg.FromName)

	subscriptionService := subscription.NewService(subscriberRepo, codec, mailer, allowlist, appCfg.BaseUrl)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.RequestTimeout) * time.Second}
	videoSource := video.NewSource(httpClient, appCfg.UserAgent)
	jobExtractor := extractor.NewExtractor(httpClient, appCfg.GeminiAPIKey, appCfg.GeminiModel)

	runner := pipeline.NewRunner(videoSource, jobExtractor, mailer,
		subscriberRepo, watermarkRepo,
		appCfg.ChannelID, appCfg.MaxVideos, appCfg.BaseUrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := pipeline.NewScheduler(runner, appCfg.PipelineSchedule)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("Failed to start pipeline scheduler", "error", err.Error())
		os.Exit(1)
	}
	defer scheduler.Stop()

	apiHandler := api.NewHandler(subscriptionService, runner, subscriberRepo, watermarkRepo)
	server := api.NewServer(apiHandler, appCfg.CronSecret)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err.Error())
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err.Error())
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}
