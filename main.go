// ABOUTME: Entry point for the baresip gst bridge host
// ABOUTME: Cobra commands to run the loopback host and list audio devices
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/deepsentinel/baresip/internal/app"
	"github.com/deepsentinel/baresip/internal/config"
	"github.com/deepsentinel/baresip/internal/ui"
	"github.com/deepsentinel/baresip/internal/version"
	"github.com/deepsentinel/baresip/pkg/audio/output"
	"github.com/deepsentinel/baresip/pkg/bridge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "baresip-gst",
		Short:         "Bridge a media pipeline to fixed-ptime audio frames",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./config.yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Loop the capture source into the player",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(config.New(), configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(settings)
		},
	}
	config.AddFlags(runCmd.Flags())

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices(cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(runCmd, devicesCmd, versionCmd)

	// run is the default command
	rootCmd.RunE = runCmd.RunE
	config.AddFlags(rootCmd.Flags())

	return rootCmd
}

func run(settings *config.Settings) error {
	useTUI := !settings.NoTUI

	// Set up logging
	f := &lumberjack.Logger{
		Filename:   settings.Log.File,
		MaxSize:    settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	if settings.Log.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(settings.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	log.Infof("Starting %s", version.String())

	params, err := settings.Params()
	if err != nil {
		return err
	}

	var metrics *bridge.Metrics
	if settings.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		metrics, err = bridge.NewMetrics(registry)
		if err != nil {
			return err
		}
		srv := serveMetrics(settings.Metrics.Listen, registry)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		go func() { _, _ = tuiProg.Run() }()
		defer tuiProg.Quit()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	host := app.New(app.Config{
		Params:    params,
		Source:    settings.Audio.Source,
		Player:    settings.Audio.Player,
		Immediate: settings.Audio.Immediate,
		Realtime:  settings.Audio.Realtime,
		Queue:     settings.QueueConfig(params),
		Metrics:   metrics,
		Log:       log.WithField("component", "host"),
		OnError: func(err error) {
			updateTUI(ui.StatusMsg{Error: err.Error()})
		},
	})
	if err := host.Start(); err != nil {
		return err
	}

	updateTUI(ui.StatusMsg{
		Format:     params.Format.String(),
		SampleRate: params.SampleRate,
		Channels:   params.Channels,
		Ptime:      params.Ptime,
		Source:     settings.Audio.Source,
		Player:     settings.Audio.Player,
	})

	done := make(chan struct{})
	defer close(done)

	if volumeCtrl != nil {
		go handleVolumeControl(host, volumeCtrl, done)
	}
	if tuiProg != nil {
		go statsUpdateLoop(host, updateTUI, done)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var quit <-chan ui.QuitMsg
	if volumeCtrl != nil {
		quit = volumeCtrl.Quit
	}

	select {
	case <-quit:
		log.Info("Received quit signal from TUI")
	case <-sigChan:
		log.Info("Shutdown signal received")
	case <-host.Finished():
		log.Info("Stream finished")
	}

	if err := host.Stop(); err != nil {
		log.WithError(err).Warn("Error closing streams")
	}

	st := host.Status()
	log.Infof("Stopped: %d frames captured, %d pushed, %d loop drops", st.Capture.Frames, st.Playback.Pushes, st.LoopDropped)
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(host *app.Host, volumeCtrl *ui.VolumeControl, done <-chan struct{}) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Infof("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			if !host.SetVolume(vol.Volume, vol.Muted) {
				log.Debug("Player has no software volume")
			}
		case <-done:
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with stream statistics
func statsUpdateLoop(host *app.Host, updateTUI func(ui.StatusMsg), done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	for {
		select {
		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			updateTUI(ui.StatusMsg{
				Goroutines: runtime.NumGoroutine(),
				MemAlloc:   m.Alloc,
				MemSys:     m.Sys,
			})

		case <-ticker.C:
			st := host.Status()
			updateTUI(ui.StatusMsg{
				Title:    st.Title,
				Capture:  directionStatus(st.Capture),
				Playback: directionStatus(st.Playback),
			})

		case <-done:
			return
		}
	}
}

func directionStatus(st bridge.Stats) *ui.DirectionStatus {
	return &ui.DirectionStatus{
		State:     st.State.String(),
		Frames:    st.Frames,
		Pushes:    st.Pushes,
		Dropped:   st.Dropped,
		Underruns: st.Underruns,
		Failures:  st.PushFailures,
		Buffered:  st.Buffered,
	}
}

func listDevices(w io.Writer) error {
	devices, err := output.ListDevices()
	if err != nil {
		return err
	}

	for _, d := range devices {
		kind := "capture "
		if d.Playback {
			kind = "playback"
		}
		def := ""
		if d.Default {
			def = " (default)"
		}
		fmt.Fprintf(w, "%s  %s%s\n", kind, d.Name, def)
	}
	return nil
}
