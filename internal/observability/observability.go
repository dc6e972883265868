package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/office-pools/internal/config"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

// Shutdown stops the started backends in reverse order and joins their errors.
type Shutdown func(ctx context.Context) error

type stopper struct {
	name string
	stop func(ctx context.Context) error
}

// Setup starts tracing (Uptrace), continuous profiling (Pyroscope) and the pprof listener, each
// only when enabled in cfg. On error the already started backends are stopped before returning.
func Setup(cfg config.Config, logger *logging.Logger) (Shutdown, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var started []stopper
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(started) - 1; i >= 0; i-- {
			if err := started[i].stop(ctx); err != nil {
				errs = append(errs, err)
				logger.Error("stop observability backend", "backend", started[i].name, "error", err)
			}
		}
		return errors.Join(errs...)
	}

	if s, ok := startUptrace(cfg, logger); ok {
		started = append(started, s)
	}
	s, ok, err := startPyroscope(cfg, logger)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	if ok {
		started = append(started, s)
	}
	if s, ok := startPprof(cfg, logger); ok {
		started = append(started, s)
	}

	return shutdown, nil
}

func startUptrace(cfg config.Config, logger *logging.Logger) (stopper, bool) {
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled)
		return stopper{}, false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv)
	return stopper{name: "uptrace", stop: uptrace.Shutdown}, true
}

func startPyroscope(cfg config.Config, logger *logging.Logger) (stopper, bool, error) {
	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled")
		return stopper{}, false, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              map[string]string{"env": cfg.AppEnv, "service": cfg.ServiceName},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
		},
	})
	if err != nil {
		return stopper{}, false, err
	}

	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return stopper{name: "pyroscope", stop: func(context.Context) error { return profiler.Stop() }}, true, nil
}

// startPprof serves net/http/pprof on its own listener, away from the public router.
func startPprof(cfg config.Config, logger *logging.Logger) (stopper, bool) {
	if !cfg.PprofEnabled {
		return stopper{}, false
	}

	srv := &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           pprofMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	return stopper{name: "pprof", stop: srv.Shutdown}, true
}

func pprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	return mux
}
