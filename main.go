package main

import (
	"log/slog"
	"os"
	"sync"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/lightnode/cmd"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Node settings
	NodeName string `help:"Node name used in NATS subjects" default:"lightnode" toml:"node.name" env:"NODE_NAME"`

	// Strip settings
	StripChannels  int    `help:"Number of strip channels" default:"1" toml:"strip.channels" env:"STRIP_CHANNELS"`
	StripLeds      int    `help:"LEDs per channel" default:"150" toml:"strip.leds" env:"STRIP_LEDS"`
	StripSinks     string `help:"Comma separated frame sinks (memory, opc, spi, preview)" default:"memory" toml:"strip.sinks" env:"STRIP_SINKS"`
	StripWireOrder string `help:"Byte order on the wire (rgb, grb, brg, ...)" default:"grb" toml:"strip.wire_order" env:"STRIP_WIRE_ORDER"`
	StripOpcAddr   string `help:"OPC server address" default:"127.0.0.1:7890" toml:"strip.opc_addr" env:"STRIP_OPC_ADDR"`
	StripSpiPorts  string `help:"Comma separated SPI ports, one per channel" default:"" toml:"strip.spi_ports" env:"STRIP_SPI_PORTS"`

	// Display settings
	DisplayIntro         bool `help:"Show the sparkle intro at start" default:"true" toml:"display.intro" env:"DISPLAY_INTRO"`
	DisplayPowerOnAtBoot bool `help:"Turn the strip on at start" default:"false" toml:"display.power_on_at_boot" env:"DISPLAY_POWER_ON_AT_BOOT"`
	DisplayQueueSize     int  `help:"Command queue size" default:"64" toml:"display.queue_size" env:"DISPLAY_QUEUE_SIZE"`
	DisplayWatchTuning   bool `help:"Reload the [tuning] table when the config file changes" default:"true" toml:"display.watch_tuning" env:"DISPLAY_WATCH_TUNING"`

	// NATS settings
	NatsEnabled     bool   `help:"Enable the NATS bridge" default:"true" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsURL         string `help:"NATS server URL" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`
	NatsEmbedded    bool   `help:"Run an embedded NATS server" default:"false" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsHost        string `help:"Embedded NATS server host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NatsPort        int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NatsUser        string `help:"NATS user the bridge connects as; the node account on an embedded server" default:"" toml:"nats.user" env:"NATS_USER"`
	NatsPassword    string `help:"Password of the NATS user" default:"" toml:"nats.password" env:"NATS_PASSWORD"`
	NatsControllers string `help:"Comma separated user:password pairs allowed to send commands (embedded server)" default:"" toml:"nats.controllers" env:"NATS_CONTROLLERS"`
	NatsObservers   string `help:"Comma separated user:password pairs allowed to watch state (embedded server)" default:"" toml:"nats.observers" env:"NATS_OBSERVERS"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Mirror the strip state on a board LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesMetrics    bool `help:"Serve Prometheus metrics" default:"true" toml:"features.metrics_enabled" env:"FEATURES_METRICS"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDisplay string `help:"Display logging level" default:"info" toml:"logging.display" env:"LOGGING_DISPLAY"`
	LoggingEffects string `help:"Effects logging level" default:"info" toml:"logging.effects" env:"LOGGING_EFFECTS"`
	LoggingStrip   string `help:"Strip logging level" default:"info" toml:"logging.strip" env:"LOGGING_STRIP"`
	LoggingNats    string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig  string `help:"Config logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"display": opts.LoggingDisplay,
				"effects": opts.LoggingEffects,
				"strip":   opts.LoggingStrip,
				"nats":    opts.LoggingNats,
				"api":     opts.LoggingAPI,
				"config":  opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger("main")

		// Hardware is opened in OnStart so subcommands never touch it.
		var mu sync.Mutex
		var svc *service

		hooks.OnStart(func() {
			logger.Info("Starting lightnode", "version", version.String(), "node", opts.NodeName)
			s, err := newService(opts, logger)
			if err != nil {
				logger.Error("Failed to initialize", "error", err)
				os.Exit(1)
			}
			mu.Lock()
			svc = s
			mu.Unlock()

			if startErr := s.run(); startErr != nil {
				logger.Error("Failed to start", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			mu.Lock()
			s := svc
			mu.Unlock()
			if s != nil {
				s.stop()
			}
		})
	})

	cli.Root().Use = "lightnode"
	cli.Root().Short = "LED strip effect engine"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateSnoopCmd())
	cli.Root().AddCommand(cmd.CreatePaletteCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}
