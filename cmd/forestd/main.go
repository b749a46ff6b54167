// Command forestd fits an interval forest and serves it over HTTP. Build
// progress is streamed to WebSocket clients while the fit runs; predictions,
// model info, health, and Prometheus metrics are served afterwards.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"intervalforest/internal/cfg"
	"intervalforest/internal/dataset"
	"intervalforest/internal/forest"
	"intervalforest/internal/metrics"
	"intervalforest/internal/serve"
	"intervalforest/internal/series"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batch, targets := loadData(c)

	forestCfg, err := c.ForestConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid forest config")
	}
	m := metrics.New()
	forestCfg.Tracker = metrics.NewForestTracker(m)

	// The server is built around the forest, so progress events go through
	// an indirection assigned once both exist.
	var srv *serve.Server
	forestCfg.OnProgress = func(p forest.Progress) {
		if srv != nil {
			srv.OnProgress()(p)
		}
	}

	f, err := forest.New(forestCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("forest construction failed")
	}
	srv = serve.New(f, c.ListenPort, prometheus.DefaultGatherer)

	// Fit in the background so progress streaming is live from the start.
	go func() {
		if err := f.Fit(ctx, batch, targets); err != nil {
			m.FitFailures.Inc()
			log.Error().Err(err).Msg("fit failed; serving will report unfitted")
			return
		}
		m.FitsTotal.Inc()
	}()

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func loadData(c cfg.Settings) (series.Batch, []float64) {
	path := c.DatasetPath
	if path == "" && c.DatasetURL != "" {
		downloaded, err := dataset.Download(c.DatasetURL, c.DataPath)
		if err != nil {
			log.Fatal().Err(err).Msg("dataset download failed")
		}
		path = downloaded
	}
	if path == "" {
		log.Info().Msg("no dataset configured, using synthetic demo data")
		batch, targets := dataset.Synthetic(100, 1, 60, 42)
		return batch, targets
	}
	batch, targets, err := dataset.LoadCSV(path)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}
	return batch, targets
}
