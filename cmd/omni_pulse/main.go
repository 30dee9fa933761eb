package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/config"
	"omni_pulse/internal/logger"
	"omni_pulse/internal/market"
	"omni_pulse/internal/market/alpaca"
	"omni_pulse/internal/scheduler"
	"omni_pulse/internal/server"
	"omni_pulse/internal/state"
	"omni_pulse/internal/telegram"
	"omni_pulse/internal/watcher"
)

const VersionFile = "version.latest"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Configuration rejected")
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups); err != nil {
		logger.Log.WithError(err).Warn("File logging disabled")
	}
	logger.Log.WithFields(cfg.Fields()).Infof("OmniPulse %s starting", readVersion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Market table, optionally re-anchored on real reference prices.
	store := market.NewStore(market.DefaultUniverse(),
		market.WithDriftBound(cfg.Market.MaxAbsChange),
		market.WithPriceBand(cfg.Market.PriceBand),
	)
	if cfg.Alpaca.Reanchor != "" {
		mapping, err := alpaca.ParseMapping(cfg.Alpaca.Reanchor)
		if err != nil {
			logger.Log.WithError(err).Warn("ALPACA_REANCHOR ignored")
		} else {
			provider := alpaca.NewProvider(cfg.Alpaca.KeyID, cfg.Alpaca.SecretKey)
			n := alpaca.NewSeeder(provider, mapping, logger.Log.WithField("component", "alpaca")).Reanchor(store)
			logger.Log.Infof("Re-anchored %d/%d assets on Alpaca latest trades", n, len(mapping))
		}
	}

	board := state.NewBoard(state.Data{
		Assets:          store.Snapshot(),
		Recommendations: market.DefaultRecommendations(),
		Summary:         market.InitialSummary,
	})

	intel := ai.NewClient(ai.Config{
		URL:           cfg.Intelligence.URL,
		APIKey:        cfg.Intelligence.APIKey,
		RequireAPIKey: cfg.Intelligence.RequireKey,
		Timeout:       cfg.Intelligence.Timeout,
		NewsLimit:     cfg.Intelligence.NewsLimit,
	})

	var images ai.ImageEnricher = ai.DisabledImages{}
	if cfg.Images.Model != "" && cfg.Gemini.APIKey != "" {
		gi, err := ai.NewGeminiImages(ctx, cfg.Gemini.APIKey, cfg.Images.Model, cfg.Images.Timeout)
		if err != nil {
			logger.Log.WithError(err).Warn("Image enrichment disabled")
		} else {
			images = gi
		}
	}

	bot := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	w := watcher.New(ctx, store, board, intel, watcher.Options{
		Images:      images,
		ImagePrefix: cfg.Images.Prefix,
		ReportFile:  cfg.ReportFile,
		Notifier:    bot,
	})
	store.OnTick(w.OnMarketTick)

	hub := server.NewHub(0)
	hub.Start(ctx, board)

	sched := scheduler.New(store, hub.BroadcastClock, cfg.Market.ClockInterval)
	if err := sched.Start(cfg.Market.TickSchedule); err != nil {
		logger.Log.WithError(err).Fatal("Scheduler failed to start")
	}

	if bot != nil {
		go bot.Listen(ctx, w.HandleCommand)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Log.Warn("⚠️ OmniPulse shutting down: system signal received.")
		cancel()
	}()

	// First cycle on startup, then on every market tick.
	w.ScheduleAnalysis()

	srvErr := server.New(board, w, hub).ListenAndServe(ctx, cfg.HTTPAddr)
	cancel()
	sched.Stop()
	w.Wait()
	if srvErr != nil {
		logger.Log.WithError(srvErr).Fatal("🛑 Dashboard server stopped")
	}
	logger.Log.Info("🛑 OmniPulse stopped")
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
