// Command forest fits an interval forest on a dataset, reports the training
// score, and appends the run to the local run history.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"intervalforest/internal/cfg"
	"intervalforest/internal/dataset"
	"intervalforest/internal/forest"
	"intervalforest/internal/metrics"
	"intervalforest/internal/runstore"
	"intervalforest/internal/series"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Warn().Msg("interrupt received, finishing current batch")
		cancel()
	}()

	batch, targets := loadData(c)

	forestCfg, err := c.ForestConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid forest config")
	}
	m := metrics.New()
	forestCfg.Tracker = metrics.NewForestTracker(m)

	f, err := forest.New(forestCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("forest construction failed")
	}

	start := time.Now()
	if err := f.Fit(ctx, batch, targets); err != nil {
		m.FitFailures.Inc()
		log.Fatal().Err(err).Msg("fit failed")
	}
	m.FitsTotal.Inc()

	preds, err := f.Predict(batch)
	if err != nil {
		log.Fatal().Err(err).Msg("train predict failed")
	}
	score := rSquared(targets, preds)
	info, _ := f.ModelInfo()

	log.Info().
		Int("members", info.NMembers).
		Int("total_intervals", info.TotalIntervals).
		Float64("train_r2", score).
		Dur("elapsed", time.Since(start)).
		Msg("fit complete")

	if c.DataPath != "" {
		storeRun(c, info, score)
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

func storeRun(c cfg.Settings, info forest.Geometry, score float64) {
	store, err := runstore.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("run store unavailable")
		return
	}
	defer store.Close()

	rec := runstore.Record{
		Dataset:        c.DatasetName,
		Timestamp:      time.Now(),
		Members:        info.NMembers,
		TotalIntervals: info.TotalIntervals,
		Seed:           info.Seed,
		BuildDuration:  info.BuildDuration,
		TrainScore:     score,
		Config:         c.NIntervals + "/" + c.AttSubsampleSize,
	}
	if err := store.StoreRun(rec); err != nil {
		log.Warn().Err(err).Msg("failed to store run record")
	}
}

func rSquared(y, preds []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		d := v - preds[i]
		ssRes += d * d
		t := v - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
