package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mpvd/internal/common/fsutil"
	"mpvd/internal/config"
	"mpvd/internal/engine/libmpv"
	"mpvd/internal/httpapi"
	"mpvd/internal/library"
	"mpvd/internal/manager"
	"mpvd/internal/surface"
)

const shutdownGrace = 15 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  mpvd serve --addr :8080 --media-dir ~/Videos\n  mpvd serve --config /etc/mpvd.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			applyDefaults(&cfg)
			return serve(cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", os.Getenv("MPVD_CONFIG"), "Config file (.yaml, .json or .toml)")
	f.String("addr", envOr("MPVD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	f.String("libmpv", os.Getenv("MPVD_LIBMPV"), "Path to the libmpv shared library")
	f.String("media-dir", "", "Directory listed by GET /media")
	f.Duration("poll-timeout", 0, "Bridge wait bound (default 1s)")
	f.Duration("teardown-timeout", 0, "Teardown bound before native resources are leaked (default 10s)")
	f.String("engine-log-level", "", "libmpv log level forwarded as log-message events (no disables)")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: console|json")
	f.String("cors-origins", "", "Comma-separated allowed CORS origins; empty disables CORS")
	f.Int64("max-body-bytes", 0, "Maximum JSON request body size (default 1 MiB)")
	return cmd
}

func serve(cfg config.Config) error {
	log := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	eng, err := openEngine(cfg.LibmpvPath)
	if err != nil {
		return err
	}
	log.Info().Str("libmpv", eng.Path()).Str("version", eng.Version()).Msg("engine loaded")

	defaults, err := defaultOptions(cfg.DefaultOptions)
	if err != nil {
		return err
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Engine:          eng,
		Surfaces:        surface.NewWindowEmbedder(&log),
		PollTimeout:     cfg.PollTimeout(),
		TeardownTimeout: cfg.TeardownTimeout(),
		EngineLogLevel:  cfg.EngineLogLevel,
		DefaultOptions:  defaults,
		Logger:          &log,
	})

	var media httpapi.MediaLister
	if cfg.MediaDir != "" {
		dir, err := fsutil.ResolveDir(cfg.MediaDir)
		if err != nil {
			return fmt.Errorf("media dir: %w", err)
		}
		media = library.Dir{Path: dir}
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr, media),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("media_dir", cfg.MediaDir).Msg("mpvd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// End event streams first so Shutdown does not wait on them.
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("instances still tearing down at exit")
	}
	st := mgr.Status()
	log.Info().Uint64("destroyed", st.DestroyedTotal).Uint64("leaked", st.LeakedTotal).Msg("stopped")
	return nil
}

func openEngine(path string) (*libmpv.Engine, error) {
	eng, err := libmpv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load libmpv: %w", err)
	}
	return eng, nil
}

func defaultOptions(opts []config.Option) ([]manager.Option, error) {
	out := make([]manager.Option, 0, len(opts))
	for _, o := range opts {
		v, err := manager.ValueOf(o.Value)
		if err != nil {
			return nil, fmt.Errorf("default option %s: %w", o.Name, err)
		}
		out = append(out, manager.Option{Name: o.Name, Value: v})
	}
	return out, nil
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var out zerolog.Logger
	if format == "json" {
		out = zerolog.New(w)
	} else {
		out = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	return out.Level(lvl).With().Timestamp().Logger()
}
