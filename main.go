// Command chatfilter is the main entrypoint for the chat filtering
// service. It:
//   - Loads configuration and initializes structured logging.
//   - Restores the pattern registries and custom highlights from their
//     persisted stores.
//   - Connects to Twitch chat and classifies every incoming message
//     (ignore, filter, catch, annotate).
//   - Reads slash commands from stdin to manage patterns and styles.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/chatfilter/chat"
	"github.com/onnwee/chatfilter/command"
	"github.com/onnwee/chatfilter/config"
	"github.com/onnwee/chatfilter/db"
	"github.com/onnwee/chatfilter/pipeline"
	"github.com/onnwee/chatfilter/prefs"
	"github.com/onnwee/chatfilter/server"
	"github.com/onnwee/chatfilter/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chatfilter", command.Version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Persisted stores
	if err := os.MkdirAll(filepath.Dir(cfg.ConfigPath), 0o755); err != nil {
		slog.Error("failed to create data dir", slog.Any("err", err))
		os.Exit(1)
	}
	settings, err := prefs.Open(cfg.ConfigPath)
	if err != nil {
		slog.Error("failed to open settings", slog.Any("err", err))
		os.Exit(1)
	}
	highlights := prefs.NewHighlightStore(cfg.HighlightPath)

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional caught-message archive
	var archiver pipeline.Archiver
	if cfg.DBDsn != "" {
		archive, err := db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open archive db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				slog.Error("failed to close archive db", slog.Any("err", err))
			}
		}()
		if err := archive.Migrate(ctx); err != nil {
			slog.Error("archive migration failed", slog.Any("err", err))
			os.Exit(1)
		}
		archiver = archive
	} else {
		slog.Info("caught-message archive disabled (DB_DSN empty)")
	}

	// Chat host + pipeline
	client := chat.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken, cfg.TwitchChannel, os.Stdout)
	pipe := pipeline.New(pipeline.Options{
		Host:            client,
		Settings:        settings,
		Highlights:      highlights,
		Archiver:        archiver,
		IgnoredCapacity: cfg.IgnoredCapacity,
		CaughtCapacity:  cfg.CaughtCapacity,
		RedirectSurface: cfg.RedirectSurface,
		SurfaceTimeout:  cfg.SurfaceTimeout,
		Focus:           cfg.SurfaceFocus,
	})
	pipe.Load()
	slog.Info("pipeline restored",
		slog.Int("ignored", pipe.Ignored.Len()),
		slog.Int("catchers", pipe.Catchers.Len()),
		slog.Int("filters", pipe.Filters.Len()),
		slog.Int("nick_filters", pipe.NickFilters.Len()),
		slog.Int("customs", pipe.Customs.Len()))

	if cfg.TwitchChannel != "" {
		go func() {
			if err := client.Start(ctx, pipe); err != nil {
				slog.Error("chat connection failed", slog.Any("err", err))
				stop()
			}
		}()
	} else {
		slog.Info("chat disabled (TWITCH_CHANNEL empty); command surface only")
	}

	// Stdin command loop. Non-command lines go to the channel.
	dispatcher := command.NewDispatcher(pipe, func(line string) {
		fmt.Fprintln(os.Stdout, line)
	}, nil)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			handled, err := dispatcher.Dispatch(ctx, line)
			switch {
			case err != nil:
				fmt.Fprintln(os.Stdout, "error: "+err.Error())
			case !handled && !strings.HasPrefix(line, "/"):
				client.Say(line)
			case !handled:
				fmt.Fprintln(os.Stdout, "unknown command, try /xtools")
			}
		}
	}()

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, pipe, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
