package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"screend/internal/config"
	"screend/internal/httpapi"
	"screend/internal/pipeline"
	"screend/internal/raster"
	"screend/internal/registry"
	"screend/internal/watcher"
)

const version = "0.3.0"

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "screend",
		Short:         "Render-and-broadcast daemon for tenant display screens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "screend", version)
		},
	}
}

// newCheckCmd probes the environment without starting the server: rasterizer
// binary discovery plus a tenant directory scan.
func newCheckCmd() *cobra.Command {
	var dataDir, rasterBin string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify rasterizer binary and tenant layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := raster.SanityCheck(rasterBin)
			if !rep.BinFound {
				return fmt.Errorf("rasterizer not available: %s", rep.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rasterizer:", rep.BinPath)
			tenants, err := registry.LoadDir(dataDir)
			if err != nil {
				return fmt.Errorf("scan tenants: %w", err)
			}
			for _, tn := range tenants {
				state := "no source"
				if tn.HasSource {
					state = "source present"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tenant %s: %s\n", tn.ID, state)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tenant(s) found\n", len(tenants))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", envStr("SCREEND_DATA_DIR", "./data"), "Directory holding one subdirectory per tenant")
	cmd.Flags().StringVar(&rasterBin, "raster-bin", envStr("SCREEND_RASTER_BIN", ""), "Path to the pdftoppm binary (empty=auto-discover)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		cfgPath  string
		logLevel string
		logJSON  bool
	)
	cfg := config.Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the render pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config file values fill in anything the flags left unset.
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", cfgPath, err)
				}
				mergeConfig(cmd, &cfg, fileCfg)
			}
			applyDefaults(&cfg)
			return serve(cfg, logLevel, logJSON)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", envStr("SCREEND_CONFIG", ""), "Config file (.yaml/.json/.toml), flags take precedence")
	f.StringVar(&cfg.Addr, "addr", envStr("SCREEND_ADDR", ""), "HTTP listen address, e.g. :8080")
	f.StringVar(&cfg.DataDir, "data-dir", envStr("SCREEND_DATA_DIR", ""), "Directory holding one subdirectory per tenant")
	f.StringVar(&cfg.RasterBin, "raster-bin", envStr("SCREEND_RASTER_BIN", ""), "Path to the pdftoppm binary (empty=auto-discover)")
	f.IntVar(&cfg.DebounceMs, "debounce-ms", 0, "Debounce window for change notifications in ms")
	f.IntVar(&cfg.RenderTimeoutSec, "render-timeout-sec", 0, "Per-render timeout in seconds")
	f.IntVar(&cfg.HeartbeatSec, "heartbeat-sec", 0, "SSE heartbeat interval in seconds")
	f.IntVar(&cfg.EngineSlots, "engine-slots", 0, "Concurrent rasterizations allowed across all tenants")
	f.IntVar(&cfg.Width, "width", 0, "Rendered screen width in px")
	f.IntVar(&cfg.Height, "height", 0, "Rendered screen height in px")
	f.StringVar(&cfg.Background, "background", "", "Background color for transparent regions")
	f.BoolVar(&cfg.CORSEnabled, "cors", false, "Enable permissive CORS headers")
	f.StringVar(&cfg.CORSOrigins, "cors-origins", "", "Comma-separated allowed origins (implies --cors)")
	f.StringVar(&logLevel, "log-level", envStr("SCREEND_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	f.BoolVar(&logJSON, "log-json", false, "Emit JSON logs instead of console output")
	return cmd
}

// mergeConfig copies file values into cfg for every field whose flag was not
// set on the command line.
func mergeConfig(cmd *cobra.Command, cfg *config.Config, file config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if !set("addr") && file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if !set("data-dir") && file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if !set("raster-bin") && file.RasterBin != "" {
		cfg.RasterBin = file.RasterBin
	}
	if !set("debounce-ms") && file.DebounceMs != 0 {
		cfg.DebounceMs = file.DebounceMs
	}
	if !set("render-timeout-sec") && file.RenderTimeoutSec != 0 {
		cfg.RenderTimeoutSec = file.RenderTimeoutSec
	}
	if !set("heartbeat-sec") && file.HeartbeatSec != 0 {
		cfg.HeartbeatSec = file.HeartbeatSec
	}
	if !set("engine-slots") && file.EngineSlots != 0 {
		cfg.EngineSlots = file.EngineSlots
	}
	if !set("width") && file.Width != 0 {
		cfg.Width = file.Width
	}
	if !set("height") && file.Height != 0 {
		cfg.Height = file.Height
	}
	if !set("background") && file.Background != "" {
		cfg.Background = file.Background
	}
	if !set("cors") && file.CORSEnabled {
		cfg.CORSEnabled = true
	}
	if !set("cors-origins") && file.CORSOrigins != "" {
		cfg.CORSOrigins = file.CORSOrigins
	}
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.HeartbeatSec <= 0 {
		cfg.HeartbeatSec = 25
	}
	if cfg.CORSOrigins != "" {
		cfg.CORSEnabled = true
	}
}

func newLogger(level string, jsonOut bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if jsonOut {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

func serve(cfg config.Config, logLevel string, logJSON bool) error {
	log := newLogger(logLevel, logJSON)

	rep := raster.SanityCheck(cfg.RasterBin)
	if rep.BinFound {
		log.Info().Str("bin", rep.BinPath).Msg("rasterizer found")
	} else {
		log.Warn().Str("error", rep.Error).Msg("rasterizer not found, renders will fail until installed")
	}

	tenants, err := registry.LoadDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("scan tenants: %w", err)
	}
	if len(tenants) == 0 {
		log.Warn().Str("dir", cfg.DataDir).Msg("no tenants found")
	}

	pipe := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Tenants:       tenants,
		Rasterizer:    raster.NewCommand(cfg.RasterBin),
		Debounce:      time.Duration(cfg.DebounceMs) * time.Millisecond,
		RenderTimeout: time.Duration(cfg.RenderTimeoutSec) * time.Second,
		EngineSlots:   cfg.EngineSlots,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Background:    cfg.Background,
		Logger:        log.With().Str("component", "pipeline").Logger(),
		Publisher:     &pipeline.LogPublisher{Log: log.With().Str("component", "events").Logger()},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := watcher.New(log.With().Str("component", "watcher").Logger(), pipe, tenants)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("watcher stopped")
		}
	}()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetHeartbeatInterval(time.Duration(cfg.HeartbeatSec) * time.Second)
	httpapi.SetCORSOptions(cfg.CORSEnabled, splitOrigins(cfg.CORSOrigins))

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(pipe)}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Int("tenants", len(tenants)).Msg("screend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
