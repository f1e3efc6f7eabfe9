package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	flag "github.com/spf13/pflag"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/ack"
	"github.com/ciops/alertdesk/server/internal/api"
	"github.com/ciops/alertdesk/server/internal/auth"
	"github.com/ciops/alertdesk/server/internal/config"
	"github.com/ciops/alertdesk/server/internal/ingest"
	"github.com/ciops/alertdesk/server/internal/journal"
	"github.com/ciops/alertdesk/server/internal/metrics"
	"github.com/ciops/alertdesk/server/internal/notify"
	"github.com/ciops/alertdesk/server/internal/probe"
	"github.com/ciops/alertdesk/server/internal/store"
	"github.com/ciops/alertdesk/server/internal/ws"
)

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	logLevel := flag.String("log-level", "info", "log level: debug | info | warn | error")
	uiDir := flag.String("ui-dir", "", "serve the dashboard static files from this directory; leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	slog.Info("alertdesk-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	loc, _ := cfg.Notifications.Location() // validated by Load

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"source", cfg.Source.Type,
		"poll_interval", cfg.Source.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	st := store.New()
	reg.MustRegister(metrics.NewCollector(st))

	// Readiness probe: NOT_SERVING until the first successful ingestion.
	var hp *probe.Probe
	if cfg.Server.GRPCPort > 0 {
		hp = probe.New()
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC health probe listening", "port", cfg.Server.GRPCPort)
			if err := hp.Serve(lis); err != nil {
				slog.Error("gRPC health probe stopped", "err", err)
			}
		}()
	}

	src, err := ingest.New(cfg.Source)
	if err != nil {
		slog.Error("failed to build alert source", "err", err)
		os.Exit(1)
	}
	poller := ingest.NewPoller(src, st, cfg.Source.Interval, cfg.Source.Timeout,
		ingest.WithRecorder(recorder),
		ingest.WithOnLoad(func(int) {
			if hp != nil {
				hp.Ready()
			}
		}),
	)
	go poller.Run(ctx)

	bindings := notify.NewBindings()
	registerBindings(bindings, cfg.Notifications)
	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) {
			registerBindings(bindings, c.Notifications)
		})
		if err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	// Dashboard stream: snapshot on change and every stream interval.
	hub := ws.New(func() any { return api.BuildSnapshot(st, poller) }, cfg.Server.StreamInterval)
	go hub.Run(ctx, st.Subscribe())

	notes := journal.New(cfg.Journal.Size)
	dispatcher := notify.NewDispatcher(bindings, cfg.Notifications.Timeout, loc)
	// Deliveries outlive the signal context; Shutdown drains them below.
	tracker := ack.New(context.Background(), st, dispatcher,
		ack.WithJournal(notes),
		ack.WithRecorder(recorder),
		ack.WithOutcomeHook(func(o types.NotificationOutcome) {
			hub.Publish(ws.EventNotification, o)
		}),
	)

	apiHandler := api.New(api.Deps{
		Alerts:   st,
		Tracker:  tracker,
		Bindings: bindings,
		Journal:  notes,
		Ingest:   poller,
	})
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but the key is empty; mutating endpoints are open", "key_env", cfg.Server.Auth.KeyEnv)
	}
	requireKey := auth.RequireAPIKey(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())
	corsMW := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", cfg.Server.Auth.EffectiveHeader()},
		Debug:          *logLevel == "debug",
	})

	// Combined HTTP server: REST API, /metrics and the stream on HTTPPort.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", corsMW.Handler(requireKey(apiHandler)))
	httpMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	httpMux.Handle("/ws/stream", hub)

	// Optional: serve the pre-built dashboard from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("alertdesk-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if hp != nil {
		hp.NotReady()
		hp.Stop(shutdownCtx)
	}
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	if err := tracker.Shutdown(shutdownCtx); err != nil {
		slog.Warn("notification deliveries aborted at shutdown", "err", err)
	}
}

// registerBindings applies the configured webhooks on top of the current
// bindings. Bindings added at runtime through the API are left alone.
func registerBindings(b *notify.Bindings, n config.NotificationsConfig) {
	if u := n.Default.ResolveURL(); u != "" {
		if err := b.SetDefault(u); err != nil {
			slog.Warn("default webhook rejected", "err", err)
		}
	}
	for _, w := range n.Webhooks {
		u := w.ResolveURL()
		if u == "" {
			slog.Warn("webhook has no URL", "team", w.Team, "url_env", w.URLEnv)
			continue
		}
		if err := b.Set(w.Team, u); err != nil {
			slog.Warn("webhook rejected", "team", w.Team, "err", err)
			continue
		}
		slog.Info("webhook registered", "team", w.Team, "endpoint", notify.Redact(u))
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
