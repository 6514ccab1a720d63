package main

import (
	"context"
	"fmt"
	"time"

	"github.com/weaponry/snapwatch/internal/chunkstore"
	"github.com/weaponry/snapwatch/internal/collector"
	"github.com/weaponry/snapwatch/internal/config"
	"github.com/weaponry/snapwatch/internal/log"
	"github.com/weaponry/snapwatch/internal/logtail"
	"github.com/weaponry/snapwatch/internal/pgstore"
	"github.com/weaponry/snapwatch/internal/provider"
)

// run wires a pgstore.Pool, an optional logtail.Tailer, a
// collector.Collector, a chunkstore.Store and a provider.LiveProvider
// into one tick loop (spec §4.4.3, §5). It blocks until ctx is
// canceled, flushing the pending chunk before returning.
func run(ctx context.Context, cfg *config.Config) error {
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSNTemplate(), cfg.Postgres.DBName)
	if err != nil {
		return fmt.Errorf("run: connect postgres: %w", err)
	}
	defer pool.Close(ctx)

	var tailer *logtail.Tailer
	if cfg.LogTailer.Enabled {
		format := logtail.FormatStderr
		if cfg.LogTailer.Format == "csvlog" {
			format = logtail.FormatCSVLog
		}
		tailer, err = logtail.New(logtail.Config{Path: cfg.LogTailer.Path, Format: format, PollInterval: cfg.LogTailer.PollPeriod})
		if err != nil {
			log.Warnf("run: log tailer disabled, cannot open %s: %s", cfg.LogTailer.Path, err)
			tailer = nil
		} else {
			go tailer.Run(ctx)
		}
	}

	store, err := chunkstore.NewStore(cfg.ChunkStore.RootDir)
	if err != nil {
		return fmt.Errorf("run: open chunk store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("run: final chunk store flush: %s", err)
		}
	}()

	col := collector.New(collector.Config{
		Host: collector.HostConfig{ForceCgroup: cfg.ForceCgroup, Filters: cfg.Filters},
		Pg:   collector.DefaultPgConfig(),
	}, pool, tailer)

	live := provider.NewLive(col, store)

	rotationPolicy := chunkstore.RotationPolicy{
		MaxAgeDays: cfg.ChunkStore.MaxAgeDays,
		MaxBytes:   cfg.ChunkStore.MaxBytes,
	}

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	rotateTicker := time.NewTicker(time.Hour)
	defer rotateTicker.Stop()

	log.Infof("snapwatchd: collecting every %s into %s", cfg.TickInterval, cfg.ChunkStore.RootDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, _, err := live.Advance(ctx); err != nil {
				log.Warnf("run: collector tick: %s", err)
			}
		case <-rotateTicker.C:
			result, err := store.Rotate(rotationPolicy, time.Now())
			if err != nil {
				log.Warnf("run: rotate chunk store: %s", err)
				continue
			}
			if result.FilesRemovedByAge+result.FilesRemovedBySize > 0 {
				log.Infof("run: rotation removed %d old + %d oversized chunks, freed %d bytes",
					result.FilesRemovedByAge, result.FilesRemovedBySize, result.BytesFreed)
			}
		}
	}
}
