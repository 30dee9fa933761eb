package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"omni_pulse/internal/config"
	"omni_pulse/internal/logger"
	"omni_pulse/internal/omni"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Configuration rejected")
	}
	if err := logger.Setup(cfg.Log.Level, "", 0, 0); err != nil {
		logger.Log.WithError(err).Warn("Logger setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A nil generator keeps the endpoint up and answers API_KEY_MISSING.
	var gen omni.Generator
	if cfg.Gemini.APIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY not set. Every analysis request will report a missing key.")
	} else {
		g, err := omni.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Log.WithError(err).Fatal("Gemini client failed")
		}
		gen = g
	}

	mux := http.NewServeMux()
	mux.Handle(omni.Route, omni.NewHandler(gen, omni.Options{
		AccessKey: cfg.Omni.AccessKey,
		RPM:       cfg.Omni.RPM,
		Burst:     cfg.Omni.Burst,
		NewsLimit: cfg.Intelligence.NewsLimit,
	}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.Omni.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Grounded generations routinely take tens of seconds.
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("Shutdown failed")
		}
	}()

	logger.Log.WithField("model", cfg.Gemini.Model).Infof("Analysis backend listening on %s%s", cfg.Omni.HTTPAddr, omni.Route)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("Analysis backend stopped")
	}
	logger.Log.Info("Analysis backend stopped")
}
