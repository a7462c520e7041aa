// Command trackviz loads vessel track files, fuses the configured gridded
// wind field onto them, and serves the fused trajectory over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Continy/ShipTrackViz/internal/adapter/httpapi"
	kafkaadapter "github.com/Continy/ShipTrackViz/internal/adapter/kafka"
	"github.com/Continy/ShipTrackViz/internal/adapter/llm"
	"github.com/Continy/ShipTrackViz/internal/adapter/netcdf"
	"github.com/Continy/ShipTrackViz/internal/config"
	"github.com/Continy/ShipTrackViz/internal/observability"
	"github.com/Continy/ShipTrackViz/internal/schema"
	"github.com/Continy/ShipTrackViz/internal/track"
	"github.com/Continy/ShipTrackViz/internal/wind"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traj, err := buildTrajectory(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("trajectory load failed", "error", err)
		os.Exit(1)
	}
	logger.Info("trajectory loaded", "sources", len(cfg.SourcePaths), "points", traj.Len())

	if cfg.GridPath != "" {
		if err := fuseWind(traj, cfg, logger, metrics); err != nil {
			logger.Error("wind fusion failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("no grid configured, skipping wind fusion")
	}

	store := httpapi.NewStore(clockwork.NewRealClock())
	store.Replace(traj)

	if len(cfg.KafkaBrokers) > 0 {
		if err := publishFused(ctx, cfg, traj, logger); err != nil {
			logger.Error("kafka publish failed", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, store, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// buildTrajectory loads every configured source as a chunk and appends them
// in order onto one trajectory.
func buildTrajectory(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*track.Trajectory, error) {
	client := llm.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMTimeout, metrics, logger)
	inferrer := llm.NewCachedInferrer(client, cfg.LLMCacheSize, metrics)
	cache := schema.NewCache(inferrer, logger, metrics)

	opts := []track.ChunkOption{
		track.WithEncoding(cfg.SourceEncoding),
		track.WithChunkLogger(logger),
	}
	if cfg.ForceSchema {
		opts = append(opts, track.WithForceSchema())
	}
	if cfg.RowLimit > 0 {
		opts = append(opts, track.WithRowRange(0, cfg.RowLimit))
	}

	traj, err := track.New(track.WithLogger(logger), track.WithPoints(nil))
	if err != nil {
		return nil, err
	}
	for _, path := range cfg.SourcePaths {
		chunk, err := track.NewChunk(ctx, path, cache, opts...)
		if err != nil {
			return nil, err
		}
		if err := traj.AppendChunk(chunk); err != nil {
			return nil, err
		}
		metrics.ChunksLoaded.Inc()
		metrics.PointsMaterialized.Add(float64(chunk.Len()))
		logger.Info("source appended", "path", path, "rows", chunk.Len())
	}
	return traj, nil
}

// fuseWind loads the NetCDF grid and imports the wind fields onto the trajectory.
func fuseWind(traj *track.Trajectory, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ds, err := netcdf.LoadDataset(cfg.GridPath, logger)
	if err != nil {
		return err
	}
	fusion := wind.NewFusion(ds, logger, progressLogger{logger})

	start := time.Now()
	stats, err := fusion.ImportWind(traj, cfg.AdoptSurfaceWind)
	if err != nil {
		return err
	}
	metrics.FusionDuration.Observe(time.Since(start).Seconds())
	metrics.SamplesInterpolated.Add(float64(stats.Samples))
	metrics.InterpolationMisses.Add(float64(stats.Misses))

	logger.Info("wind fusion complete", "fields", stats.Fields, "samples", stats.Samples, "misses", stats.Misses)
	return nil
}

// progressLogger reports bulk-import progress at debug level.
type progressLogger struct {
	logger *slog.Logger
}

func (p progressLogger) Progress(field string, done, total int) {
	p.logger.Debug("interpolation progress", "field", field, "done", done, "total", total)
}

// publishFused exports the fused trajectory to the configured Kafka sink.
func publishFused(ctx context.Context, cfg *config.Config, traj *track.Trajectory, logger *slog.Logger) error {
	writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
	defer writer.Close() //nolint:errcheck // close error is uninteresting after publish

	source := "trajectory"
	if len(cfg.SourcePaths) == 1 {
		source = filepath.Base(cfg.SourcePaths[0])
	}
	return writer.PublishTrajectory(ctx, source, traj)
}
