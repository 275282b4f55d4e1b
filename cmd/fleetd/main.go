package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/skycoord/fleet/internal/api"
	"github.com/skycoord/fleet/internal/cache"
	"github.com/skycoord/fleet/internal/config"
	"github.com/skycoord/fleet/internal/coord"
	"github.com/skycoord/fleet/internal/dispatcher"
	"github.com/skycoord/fleet/internal/flight"
	"github.com/skycoord/fleet/internal/handlers"
	"github.com/skycoord/fleet/internal/influx"
	"github.com/skycoord/fleet/internal/logging"
	"github.com/skycoord/fleet/internal/monitor"
	"github.com/skycoord/fleet/internal/obstacle"
	"github.com/skycoord/fleet/internal/otel"
	"github.com/skycoord/fleet/internal/parser"
	"github.com/skycoord/fleet/internal/storage"
	"github.com/skycoord/fleet/internal/weather"
	"github.com/skycoord/fleet/pkg/core"
)

// set by the linker at build time
var (
	CurrentVersion = "dev"
	BuildDate      = "unknown"
)

var (
	sessionStart time.Time
	sessionName  string

	LogManager   *logging.SlogManager
	Logger       *slog.Logger
	ZLogger      zerolog.Logger
	OTelProvider *otel.Provider

	VehicleCache    *cache.VehicleCache
	Coordinator     *coord.Coordinator
	WeatherService  *weather.Service
	ObstacleTracker *obstacle.Tracker
	InfluxManager   *influx.Manager
	StorageBackend  storage.Backend
	HandlerService  *handlers.Service
	MonitorService  *monitor.Service
	EventDispatcher *dispatcher.Dispatcher
)

func setup(configDir string) error {
	sessionStart = time.Now()

	// bootstrap logger so config errors are visible before the log
	// file exists
	LogManager = logging.NewSlogManager()
	LogManager.Setup(nil, "info", nil)
	Logger = LogManager.Logger()

	if err := config.Load(configDir); err != nil {
		return err
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("error creating logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, "fleetd", sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	otelCfg := config.GetOTelConfig()
	OTelProvider, err = otel.New(otel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("error creating otel provider: %w", err)
	}

	LogManager.Setup(logFile, config.GetString("logLevel"), OTelProvider.LoggerProvider())
	Logger = LogManager.Logger()

	ZLogger = zerolog.New(zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly},
		logFile,
	)).With().Timestamp().Logger()

	sessionName = config.GetString("session.name")
	if sessionName == "" {
		sessionName = fmt.Sprintf("fleet_%s", sessionStart.Format("20060102_150405"))
	}
	LogManager.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{slog.String("session", sessionName)}
	})

	Logger.Info("fleetd starting",
		"version", CurrentVersion,
		"buildDate", BuildDate,
		"session", sessionName,
	)
	return nil
}

func coordinatorConfig() coord.Config {
	fc := config.GetFleetConfig()
	fl := config.GetFlightConfig()
	return coord.Config{
		MaxFleetSize:     fc.MaxSize,
		HeartbeatTimeout: fc.HeartbeatTimeout,
		MinSeparation:    fc.MinSeparation,
		EventBuffer:      fc.EventBuffer,
		Limits: flight.Limits{
			MinAltitude:      fl.MinAltitude,
			MaxAltitude:      fl.MaxAltitude,
			SafeBattery:      fl.SafeBattery,
			EmergencyBattery: fl.EmergencyBattery,
		},
	}
}

func weatherThresholds() weather.Thresholds {
	wc := config.GetWeatherConfig()
	return weather.Thresholds{
		MaxWindSpeed:     wc.MaxWindSpeed,
		MaxGustSpeed:     wc.MaxGustSpeed,
		MinVisibility:    wc.MinVisibility,
		MaxPrecipitation: wc.MaxPrecipitation,
	}
}

func obstacleParams() obstacle.Params {
	oc := config.GetObstacleConfig()
	p := obstacle.DefaultParams()
	p.DetectionRange = oc.DetectionRange
	p.CriticalDistance = oc.CriticalDistance
	p.WarningDistance = oc.WarningDistance
	return p
}

func serve() error {
	var err error
	EventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(ZLogger))
	if err != nil {
		return fmt.Errorf("error creating dispatcher: %w", err)
	}

	VehicleCache = cache.NewVehicleCache()
	WeatherService = weather.NewService(weatherThresholds(), Logger)
	ObstacleTracker = obstacle.NewTracker(obstacleParams(), Logger)
	Coordinator = coord.New(coordinatorConfig(), Logger)

	if config.GetBool("influx.enabled") {
		InfluxManager = influx.NewManager(ZLogger,
			filepath.Join(config.GetString("logsDir"), "influx_backup.gz"))
		if err := InfluxManager.Connect(); err != nil {
			Logger.Warn("influxdb unavailable, metrics go to backup file", "error", err)
		}
	}

	StorageBackend, err = createStorageBackend()
	if err != nil {
		return fmt.Errorf("error creating storage backend: %w", err)
	}
	if err := StorageBackend.Init(); err != nil {
		return fmt.Errorf("error initializing storage backend: %w", err)
	}
	session := &core.Session{
		Name:      sessionName,
		Version:   CurrentVersion,
		StartedAt: sessionStart,
	}
	if err := StorageBackend.StartSession(session); err != nil {
		return fmt.Errorf("error starting session: %w", err)
	}

	HandlerService = handlers.NewService(handlers.Dependencies{
		Coordinator: Coordinator,
		Parser:      parser.NewParser(Logger),
		Cache:       VehicleCache,
		Weather:     WeatherService,
		Obstacles:   ObstacleTracker,
		Influx:      InfluxManager,
		LogManager:  LogManager,
	})
	HandlerService.SetBackend(StorageBackend)
	HandlerService.RegisterHandlers(EventDispatcher)

	fc := config.GetFleetConfig()
	MonitorService = monitor.NewService(monitor.Dependencies{
		Coordinator:      Coordinator,
		Backend:          StorageBackend,
		Influx:           InfluxManager,
		LogManager:       LogManager,
		SweepInterval:    config.GetDuration("monitor.sweepInterval"),
		HeartbeatTimeout: fc.HeartbeatTimeout,
		StatusDir:        config.GetString("logsDir"),
	})
	if err := MonitorService.Start(); err != nil {
		return fmt.Errorf("error starting monitor: %w", err)
	}

	// pump coordinator events to the history backend; ends when the
	// coordinator closes its event channel
	go func() {
		for ev := range Coordinator.Events() {
			ev := ev
			if err := StorageBackend.RecordFleetEvent(&ev); err != nil {
				Logger.Error("recording fleet event", "kind", ev.Kind, "error", err)
			}
		}
	}()

	weatherDone := make(chan struct{})
	if config.GetBool("api.enabled") {
		go pollWeather(weatherDone)
	}
	defer close(weatherDone)

	var ingest *ingestServer
	if config.GetBool("ingest.enabled") {
		ingest = newIngestServer(config.GetString("ingest.listenAddr"), EventDispatcher, Logger)
		go func() {
			if err := ingest.Start(); err != nil {
				Logger.Error("ingest server stopped", "error", err)
			}
		}()
	}

	Logger.Info("fleetd running", "ingest", config.GetString("ingest.listenAddr"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	Logger.Info("shutting down", "signal", sig.String())

	return shutdown(ingest)
}

func shutdown(ingest *ingestServer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	MonitorService.Stop()
	if ingest != nil {
		if err := ingest.Shutdown(ctx); err != nil {
			Logger.Error("stopping ingest server", "error", err)
		}
	}
	// drain telemetry and feed queues before the session closes
	EventDispatcher.Close()

	vehicleCount := len(Coordinator.ListVehicles())
	Coordinator.Close()

	if err := StorageBackend.EndSession(); err != nil {
		Logger.Error("ending session", "error", err)
	}
	uploadFlightLog(vehicleCount)
	if err := StorageBackend.Close(); err != nil {
		Logger.Error("closing storage backend", "error", err)
	}

	if InfluxManager != nil {
		if InfluxManager.IsValid {
			for _, w := range InfluxManager.Writers {
				w.Flush()
			}
			InfluxManager.Client.Close()
		}
		if InfluxManager.BackupWriter != nil {
			InfluxManager.BackupWriter.Close()
		}
	}

	if err := LogManager.Flush(ctx); err != nil {
		Logger.Error("flushing logs", "error", err)
	}
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Error("shutting down otel provider", "error", err)
	}

	Logger.Info("fleetd stopped", "uptime", time.Since(sessionStart).String())
	return nil
}

// pollWeather fetches observations for the home position from the ops
// server and feeds them to the weather service, so pre-flight gates
// work even when no ground station pushes :WEATHER: frames.
func pollWeather(done <-chan struct{}) {
	client := api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
	lat := viper.GetFloat64("weather.homeLat")
	lon := viper.GetFloat64("weather.homeLon")

	ticker := time.NewTicker(config.GetDuration("weather.pollInterval"))
	defer ticker.Stop()

	fetch := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		obs, err := client.FetchWeather(ctx, lat, lon)
		if err != nil {
			Logger.Warn("weather fetch failed", "error", err)
			return
		}
		WeatherService.Observe(obs)
		if StorageBackend != nil {
			if err := StorageBackend.RecordWeather(&obs); err != nil {
				Logger.Error("recording weather", "error", err)
			}
		}
	}

	fetch()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			fetch()
		}
	}
}

// uploadFlightLog sends the exported session log to the ops server
// when one was produced and the api is configured.
func uploadFlightLog(vehicleCount int) {
	if !config.GetBool("api.enabled") {
		return
	}
	exportable, ok := StorageBackend.(storage.Exportable)
	if !ok {
		return
	}
	path := exportable.GetExportedFilePath()
	if path == "" {
		return
	}

	client := api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		Logger.Error("ops server unreachable, keeping local flight log",
			"path", path, "error", err)
		return
	}
	err := client.Upload(path, storage.UploadMetadata{
		SessionName:  sessionName,
		Version:      CurrentVersion,
		Duration:     time.Since(sessionStart).Seconds(),
		VehicleCount: vehicleCount,
	})
	if err != nil {
		Logger.Error("uploading flight log", "path", path, "error", err)
		return
	}
	Logger.Info("flight log uploaded", "path", path)
}

func main() {
	configDir := os.Getenv("FLEETD_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	args := os.Args[1:]
	if len(args) > 0 && strings.ToLower(args[0]) == "version" {
		fmt.Printf("fleetd %s (built %s)\n", CurrentVersion, BuildDate)
		return
	}

	if err := setup(configDir); err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		if err := serve(); err != nil {
			Logger.Error("fatal", "error", err)
			os.Exit(1)
		}
		return
	}

	switch strings.ToLower(args[0]) {
	case "serve":
		if err := serve(); err != nil {
			Logger.Error("fatal", "error", err)
			os.Exit(1)
		}
	case "setupdb":
		if err := setupDB(); err != nil {
			Logger.Error("database setup failed", "error", err)
			os.Exit(1)
		}
		Logger.Info("database setup complete")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (try: serve, setupdb, version)\n", args[0])
		os.Exit(2)
	}
}
