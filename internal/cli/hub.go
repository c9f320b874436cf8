package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/toolhub/internal/config"
	"github.com/harun/toolhub/internal/logger"
	"github.com/harun/toolhub/internal/metrics"
	"github.com/harun/toolhub/internal/tracing"
	"github.com/harun/toolhub/pkg/nativetools"
	"github.com/harun/toolhub/pkg/plugin"
	"github.com/harun/toolhub/pkg/remote"
	"github.com/harun/toolhub/pkg/toolhub"
)

// buildHub constructs a hub from configuration: native tools first,
// then plugins from the plugin directory, then remote endpoints.
func buildHub(ctx context.Context) (*toolhub.Hub, *config.Config, func(), error) {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.Config{
		Level:   logLevel,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
		File:    cfg.Logging.File,
	}
	if cfg.Logging.Level != "" && logLevel == "info" {
		logCfg.Level = cfg.Logging.Level
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	timeouts := config.NewCachedTimeout(loader)
	watcher, err := config.NewWatcher(loader, timeouts.Invalidate)
	if err != nil {
		log.Debug().Err(err).Msg("Config watcher unavailable, relying on cache TTL")
	}

	if err := tracing.Init("toolhub"); err != nil {
		log.Debug().Err(err).Msg("Tracing unavailable")
	}

	m := metrics.NewMetrics()
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: m.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Str("listen", cfg.Metrics.Listen).Msg("Metrics endpoint stopped")
			}
		}()
	}

	hub := toolhub.New(
		toolhub.WithTimeoutSource(timeouts),
		toolhub.WithMetrics(m),
		toolhub.WithTracer(tracing.NewPhaseTracer()),
	)

	if err := nativetools.RegisterAll(hub, nativetools.Options{WorkspaceRoot: cfg.DataDir}); err != nil {
		return nil, nil, nil, err
	}

	var loaded []*plugin.LoadedPlugin
	if cfg.Tools.PluginDir != "" {
		paths, _ := filepath.Glob(filepath.Join(cfg.Tools.PluginDir, "*"))
		sort.Strings(paths)
		for _, path := range paths {
			p, err := plugin.Load(ctx, path)
			if err != nil {
				log.Warn().Str("path", path).Err(err).Msg("Skipping plugin")
				continue
			}
			if err := p.RegisterTools(hub); err != nil {
				log.Warn().Str("path", path).Err(err).Msg("Failed to register plugin tools")
				p.Close()
				continue
			}
			loaded = append(loaded, p)
		}
	}

	for name, endpoint := range cfg.Tools.RemoteEndpoints {
		if err := remote.Register(hub, name, "", endpoint); err != nil {
			log.Warn().Str("tool", name).Err(err).Msg("Failed to register remote endpoint")
		}
	}

	cleanup := func() {
		for _, p := range loaded {
			p.Close()
		}
		if watcher != nil {
			watcher.Close()
		}
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			metricsSrv.Shutdown(shutdownCtx)
			cancel()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		tracing.Shutdown(shutdownCtx)
		cancel()
		lg.Close()
	}
	return hub, cfg, cleanup, nil
}
