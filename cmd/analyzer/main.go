// Analyzer is the speech-analysis sidecar for callpoint. It exposes a single
// endpoint that takes a call recording, transcribes it, classifies the
// emergency, and geocodes the spoken address.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/httpserver"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/callpoint/internal/analyzer"
	vc "github.com/linnemanlabs/callpoint/internal/cfg"
	"github.com/linnemanlabs/callpoint/internal/geocode"
)

const appName = "callpoint"
const component = "analyzer"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component
	vi := v.Get()

	var (
		appCfg  vc.AnalyzerConfig
		httpCfg httpserver.Config
		logCfg  log.Config
	)
	appCfg.RegisterFlags(flag.CommandLine)
	httpCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)

	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	flag.Parse()
	if showVersion {
		fmt.Printf("%s (%s) %s (commit=%s, go=%s)\n", vi.AppName, vi.Component, vi.Version, vi.Commit, vi.GoVersion)
		return nil
	}

	cfg.FillFromEnv(flag.CommandLine, "CALLPOINT_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(appCfg.Validate(), httpCfg.Validate(), logCfg.Validate()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing analyzer",
		"version", vi.Version,
		"http_port", appCfg.HTTPPort,
		"transcriber_endpoint", appCfg.TranscriberEndpoint,
		"claude_model", appCfg.ClaudeModel,
	)

	transcriber := analyzer.NewHTTPTranscriber(appCfg.TranscriberEndpoint)
	classifier := analyzer.NewClaudeClassifier(appCfg.ClaudeAPIKey, appCfg.ClaudeModel)
	geocoder := geocode.New(appCfg.GeocodeEndpoint, appCfg.GeocodeAPIKey)

	api := analyzer.New(L, transcriber, classifier, geocoder)

	r := chi.NewRouter()
	r.Use(httpmw.AnnotateHTTPRoute)
	r.Use(httpmw.AccessLog())
	api.RegisterRoutes(r)

	h := httpmw.Recover(L, nil)(httpmw.WithLogger(L)(httpmw.RequestID("X-Request-Id")(r)))

	httpOpts, err := httpCfg.ToOptions()
	if err != nil {
		L.Error(ctx, err, "invalid http config")
		return err
	}

	httpStop, err := httpserver.Start(ctx, fmt.Sprintf(":%d", appCfg.HTTPPort), h, L, httpOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start analyzer http listener")
		return err
	}
	defer func() {
		if err := httpStop(context.Background()); err != nil {
			L.Error(ctx, err, "failed to stop analyzer http listener")
		}
	}()

	<-ctx.Done()
	L.Info(context.Background(), "shutdown signal received")
	return nil
}
