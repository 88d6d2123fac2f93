package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/DawPlus/healing-server-sub000/internal/bridge"
	"github.com/DawPlus/healing-server-sub000/internal/bus"
	"github.com/DawPlus/healing-server-sub000/internal/config"
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/logbook"
	"github.com/DawPlus/healing-server-sub000/internal/logging"
	"github.com/DawPlus/healing-server-sub000/internal/metrics"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// runtime is everything one invocation needs, wired from config.
type runtime struct {
	cfg      *config.Config
	log      *logging.Logger
	logger   zerolog.Logger
	logbook  *logbook.Logbook
	gatherer *prometheus.Registry
	metrics  *metrics.Metrics
	orch     *bridge.Orchestrator
}

type runtimeOptions struct {
	// logWriter replaces the log file, mainly for tests.
	logWriter io.Writer
	now       time.Time
}

func newRuntime(dir string, opts runtimeOptions) (*runtime, error) {
	if err := config.InitDataDir(dir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogsDir(), logging.Options{
		Level:  cfg.Env.LogLevel,
		Format: cfg.Env.LogFormat,
		Writer: opts.logWriter,
	})
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, logger: log.Named("healing")}

	rt.logbook, err = logbook.New(filepath.Join(cfg.LogsDir(), "journal.log"))
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("logbook: %w", err)
	}

	rt.gatherer = prometheus.NewRegistry()
	rt.gatherer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics = metrics.New(rt.gatherer)

	tables, err := cfg.FieldTables()
	if err != nil {
		rt.close()
		return nil, err
	}
	ids := cfg.ModuleIDs()
	registry := module.NewRegistry(
		module.RegistryWithFingerprintPolicy(cfg.FingerprintPolicy()),
		module.RegistryWithObserver(rt.metrics.SetRegistered),
	)
	b, err := bus.New(ids,
		bus.WithLogger(log.Named("bus")),
		bus.WithTopicPrefix(cfg.Project.TopicPrefix),
	)
	if err != nil {
		rt.close()
		return nil, err
	}
	now := opts.now
	if now.IsZero() {
		now = time.Now()
	}
	store := roster.NewStore(cfg.Agencies(), now)
	rt.orch, err = bridge.New(store, registry, b, fieldmap.New(tables),
		bridge.WithModules(ids...),
		bridge.WithLogger(log.Named("bridge")),
		bridge.WithMetrics(rt.metrics),
		bridge.WithLogbook(rt.logbook),
	)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.logger.Info().
		Str("project", dir).
		Strs("modules", cfg.Project.Modules).
		Str("fingerprint_policy", cfg.Project.FingerprintPolicy).
		Msg("runtime ready")
	return rt, nil
}

func (rt *runtime) statePath() string {
	return filepath.Join(rt.cfg.StateDir(), "roster.yaml")
}

// serveMetrics starts /metrics on addr. The returned stop func is a no-op
// when addr is empty.
func (rt *runtime) serveMetrics(addr string) func() {
	if addr == "" {
		addr = rt.cfg.Env.MetricsAddr
	}
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(rt.gatherer))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	rt.logger.Info().Str("addr", addr).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (rt *runtime) close() {
	if rt.log != nil {
		_ = rt.log.Close()
	}
}
