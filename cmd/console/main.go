// Console is the operator-facing companion to the callpoint server. It keeps a
// local reconciled view of incidents, polls submitted jobs until analysis
// lands, and performs confirm, keep, discard, and manual-placement actions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	vc "github.com/linnemanlabs/callpoint/internal/cfg"
	"github.com/linnemanlabs/callpoint/internal/console"
	"github.com/linnemanlabs/callpoint/internal/geocode"
)

const appName = "callpoint"
const component = "console"

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
		appCfg vc.ConsoleConfig
		logCfg log.Config
	)
	appCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)

	var (
		showVersion bool
		submitPath  string
		confirmID   string
		keepID      string
		deleteID    string
		placeCoords string
		placeAddr   string
	)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.StringVar(&submitPath, "submit", "", "Submit an audio recording and poll the job until analysis completes")
	flag.StringVar(&confirmID, "confirm", "", "Confirm the incident with the given id")
	flag.StringVar(&keepID, "keep", "", "Keep the incident with the given id on the board (clears confirmation)")
	flag.StringVar(&deleteID, "delete", "", "Discard the incident with the given id")
	flag.StringVar(&placeCoords, "place", "", "Manually place an incident at \"lat,lng\"")
	flag.StringVar(&placeAddr, "address", "", "Manually place an incident at a street address (geocoded)")

	flag.Parse()
	if showVersion {
		fmt.Printf("%s (%s) %s (commit=%s, go=%s)\n", vi.AppName, vi.Component, vi.Version, vi.Commit, vi.GoVersion)
		return nil
	}

	cfg.FillFromEnv(flag.CommandLine, "CALLPOINT_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(appCfg.Validate(), logCfg.Validate()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	client := console.NewClient(appCfg.ServerURL)
	view := console.NewView()

	var geocoder console.Geocoder
	if appCfg.GeocodeAPIKey != "" {
		geocoder = geocode.New(appCfg.GeocodeEndpoint, appCfg.GeocodeAPIKey)
	}

	ops := console.New(client, view, geocoder, L)
	poller := console.NewPoller(client, view, L, appCfg.PollInterval, appCfg.PollMaxAttempts)

	// One-shot action flags run a single operation and exit. Without any,
	// the console reconciles and prints the board until interrupted.
	switch {
	case submitPath != "":
		return submitAndWait(ctx, client, poller, view, submitPath)
	case confirmID != "":
		rec, err := ops.Confirm(ctx, confirmID)
		if err != nil {
			return fmt.Errorf("confirm %s: %w", confirmID, err)
		}
		return printJSON(rec)
	case keepID != "":
		ops.Keep(keepID)
		return printRecord(view, keepID)
	case deleteID != "":
		ops.Delete(ctx, deleteID)
		L.Info(ctx, "incident discarded", "id", deleteID)
		return nil
	case placeCoords != "" || placeAddr != "":
		return placeManual(ctx, ops, placeCoords, placeAddr)
	default:
		return watch(ctx, poller, view)
	}
}

// submitAndWait uploads one recording and blocks until its analysis arrives
// or polling gives up.
func submitAndWait(ctx context.Context, client *console.Client, poller *console.Poller, view *console.View, path string) error {
	audio, err := os.ReadFile(path) //nolint:gosec // G304: path is an operator-supplied cmdline flag
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}

	id, err := client.SubmitCall(ctx, audio, filepath.Base(path), "")
	if err != nil {
		return fmt.Errorf("submit recording: %w", err)
	}
	fmt.Println("submitted:", id)

	if err := poller.PollJob(ctx, id); err != nil {
		if !errors.Is(err, console.ErrPollTimeout) {
			return fmt.Errorf("poll %s: %w", id, err)
		}
		fmt.Println("analysis still pending after final attempt, record kept as timed_out")
	}
	return printRecord(view, id)
}

// placeManual creates an operator-placed incident from either explicit
// coordinates or a geocodable address.
func placeManual(ctx context.Context, ops *console.Console, coords, addr string) error {
	placement := console.ManualPlacement{Address: addr}
	if coords != "" {
		latStr, lngStr, ok := strings.Cut(coords, ",")
		if !ok {
			return fmt.Errorf("invalid -place value %q, want \"lat,lng\"", coords)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: %w", latStr, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: %w", lngStr, err)
		}
		placement.Lat = &lat
		placement.Lng = &lng
	}

	rec, err := ops.PlaceManual(ctx, placement)
	if err != nil {
		return fmt.Errorf("manual placement: %w", err)
	}
	fmt.Println("placed:", rec.ID)
	return printJSON(rec)
}

// watch periodically reconciles the local view against the server and prints
// a board snapshot until interrupted.
func watch(ctx context.Context, poller *console.Poller, view *console.View) error {
	go poller.Run(ctx)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printBoard(view)
		}
	}
}

func printBoard(view *console.View) {
	records := view.Records()
	fmt.Printf("--- %s / %d incident(s) ---\n", time.Now().Format(time.TimeOnly), len(records))
	for _, rec := range records {
		loc := "-"
		if rec.Location != nil {
			loc = fmt.Sprintf("%.5f,%.5f %s", rec.Location.Lat, rec.Location.Lng, rec.Location.Address)
		}
		fmt.Printf("%-32s %-20s %-14s %s\n", rec.ID, rec.Status, valueOr(rec.EmergencyType, "-"), loc)
	}
}

func printRecord(view *console.View, id string) error {
	rec, ok := view.Get(id)
	if !ok {
		return fmt.Errorf("incident %s not in local view", id)
	}
	return printJSON(rec)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
