// NeuroAIR Core - voice and emotion control for NeuroAIR scent devices.
//
// This is the main entry point. It wires the dispatcher, device controller,
// platform adapters and infrastructure (SQLite history, MQTT, InfluxDB,
// HTTP API) and runs until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nerrad567/neuroair-core/internal/api"
	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/driver"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/config"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/database"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/logging"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/neuroair-core/internal/platform"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
	"github.com/nerrad567/neuroair-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyPruneInterval is how often old dispatch history is deleted.
const historyPruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting NeuroAIR Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("reading .env failed", "error", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).ForDevice(cfg.Device.ID)
	log.Info("configuration loaded",
		"path", configPath,
		"driver", cfg.Device.Driver,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	historyRepo := history.NewSQLiteRepository(db.DB)

	mqttClient, err := connectMQTT(cfg, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("building profile catalog: %w", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("building command registry: %w", err)
	}
	if err := registry.CheckProfiles(catalog); err != nil {
		log.Warn("command bindings name missing profiles", "error", err)
	}
	resolver, err := scent.NewResolver(catalog)
	if err != nil {
		return fmt.Errorf("building emotion resolver: %w", err)
	}

	ctrl := device.NewController(device.Config{
		DeviceID:   cfg.Device.ID,
		SleepDelay: cfg.Device.SleepDelay,
	}, catalog, newDriver(cfg, mqttClient, log))
	ctrl.SetLogger(log.Component("device"))

	if mqttClient != nil {
		states := driver.NewStatePublisher(mqttClient)
		states.SetLogger(log.Component("state"))
		ctrl.AddObserver(states)
		go states.Run(ctx)
	}
	if influxClient != nil {
		ctrl.AddObserver(influxClient)
	}

	dispatcher, err := dispatch.New(dispatch.Config{Threshold: cfg.Device.EmotionThreshold}, registry, resolver, ctrl)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	dispatcher.SetLogger(log.Component("dispatch"))
	dispatcher.SetHistory(historyRepo)
	if influxClient != nil {
		dispatcher.SetMetrics(influxClient)
	}

	if mqttClient != nil {
		dispatcher.AddListener(func(ev dispatch.Event) {
			if pubErr := mqttClient.PublishJSON(mqtt.Topics{}.Outcome(ev.DeviceID), ev, false); pubErr != nil {
				log.Warn("publishing dispatch outcome failed", "error", pubErr)
			}
		})
		topic := mqtt.Topics{}.Recognition(cfg.Device.ID)
		if subErr := mqttClient.Subscribe(topic, 1, dispatcher.HandleRecognition); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
		log.Info("listening for recognition results", "topic", topic)
	}

	recognizer := newRecognizer(cfg, log)
	core := platform.NewCore(dispatcher, ctrl)
	platforms := newPlatforms(cfg, core, recognizer, log)

	var issuer *auth.Issuer
	if cfg.Security.AuthEnabled {
		issuer, err = auth.NewIssuer(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.GetLinkTokenTTL())
		if err != nil {
			return fmt.Errorf("creating token issuer: %w", err)
		}
	}

	deps := api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log.Component("api"),
		Dispatcher: dispatcher,
		Controller: ctrl,
		Issuer:     issuer,
		History:    historyRepo,
		Platforms:  platforms,
		Recognizer: recognizer,
		Version:    version,
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if cfg.Database.HistoryRetention > 0 {
		go pruneHistory(ctx, historyRepo, cfg.Database.HistoryRetention, log)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"platforms", len(platforms),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	if influxClient != nil {
		influxClient.Flush()
	}
	log.Info("NeuroAIR Core stopped")
	return nil
}

// getConfigPath returns NEUROAIR_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("NEUROAIR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects when the MQTT driver is selected. The log driver
// runs without a broker and returns a nil client.
func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	if cfg.Device.Driver != config.DriverMQTT {
		log.Info("MQTT disabled", "driver", cfg.Device.Driver)
		return nil, nil
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client, nil
}

func newDriver(cfg *config.Config, client *mqtt.Client, log *logging.Logger) device.Driver {
	if client != nil {
		return driver.NewMQTTDriver(client)
	}
	return driver.NewLogDriver(log.Component("driver"))
}

// newRecognizer returns nil when no audio processor is configured.
func newRecognizer(cfg *config.Config, log *logging.Logger) platform.Recognizer {
	if cfg.Speech.URL == "" {
		log.Info("audio recognition disabled")
		return nil
	}

	header := http.Header{}
	if token := os.Getenv("NEUROAIR_SPEECH_TOKEN"); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	client := speech.NewClient(speech.ClientConfig{
		URL:            cfg.Speech.URL,
		Language:       cfg.Speech.Language,
		SessionTimeout: cfg.GetSpeechTimeout(),
		Header:         header,
	})
	client.SetLogger(log.Component("speech"))
	log.Info("audio recognition enabled", "url", cfg.Speech.URL)

	return platform.RecognizerFunc(func(ctx context.Context, audio io.Reader) (speech.Stream, error) {
		return client.Recognize(ctx, audio)
	})
}

func newPlatforms(cfg *config.Config, core *platform.Core, recognizer platform.Recognizer, log *logging.Logger) []platform.Adapter {
	opts := platform.Options{
		TextConfidence: cfg.Platforms.TextConfidence,
		Recognizer:     recognizer,
		Logger:         log.Component("platform"),
	}

	var adapters []platform.Adapter
	if cfg.Platforms.Yandex.Enabled {
		adapters = append(adapters, platform.NewYandex(core, opts))
	}
	if cfg.Platforms.Google.Enabled {
		adapters = append(adapters, platform.NewGoogle(core, platform.GoogleDeviceInfo{
			Name:        cfg.Device.Name,
			RoomHint:    cfg.Device.RoomHint,
			AgentUserID: cfg.Platforms.Google.AgentUserID,
			SWVersion:   version,
		}, opts))
	}
	if cfg.Platforms.HomeAssistant.Enabled {
		adapters = append(adapters, platform.NewHomeAssistant(core, cfg.Device.Name, opts))
	}
	for _, a := range adapters {
		log.Info("platform adapter enabled", "platform", a.Name())
	}
	return adapters
}

// pruneHistory deletes dispatch history older than retention once an hour.
func pruneHistory(ctx context.Context, repo *history.SQLiteRepository, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Prune(ctx, retention)
			if err != nil {
				log.Warn("pruning dispatch history failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("pruned dispatch history", "deleted", n)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
