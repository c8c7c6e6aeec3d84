package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/api"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/nats"
	"github.com/smazurov/lightnode/internal/strip"
	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/smazurov/lightnode/internal/version"
)

// service holds every component of a running node.
type service struct {
	opts   *Options
	logger *slog.Logger

	eventBus   *events.Bus
	channels   []*strip.Channel
	runner     *display.Runner
	recorder   *metrics.Recorder
	watcher    *config.Watcher[display.Tuning]
	natsServer *nats.Server
	bridge     *nats.Bridge
	leds       *led.Manager
	server     *api.Server
	notifier   *systemd.Notifier

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newService(opts *Options, logger *slog.Logger) (*service, error) {
	s := &service{
		opts:     opts,
		logger:   logger,
		eventBus: events.New(),
		notifier: systemd.NewNotifier(logger),
	}

	sink, err := buildSink(opts)
	if err != nil {
		return nil, fmt.Errorf("open frame sinks: %w", err)
	}
	s.channels = make([]*strip.Channel, opts.StripChannels)
	for i := range s.channels {
		s.channels[i] = strip.NewChannel(i, opts.StripLeds, sink)
	}

	tuning, err := config.LoadTuning(opts.Config)
	if err != nil {
		logger.Warn("Failed to load tuning, using defaults", "error", err)
		tuning = display.DefaultTuning()
	}

	ctrl, err := display.New(s.channels, tuning, display.WithBus(s.eventBus))
	if err != nil {
		_ = strip.CloseAll(s.channels)
		return nil, fmt.Errorf("create display controller: %w", err)
	}

	runnerOpts := []display.RunnerOption{
		display.WithIntro(opts.DisplayIntro),
		display.WithPowerOnAtStart(opts.DisplayPowerOnAtBoot),
		display.WithQueueSize(opts.DisplayQueueSize),
	}
	if opts.FeaturesMetrics {
		s.recorder = metrics.NewRecorder()
		runnerOpts = append(runnerOpts, display.WithRecorder(s.recorder))
	}
	s.runner = display.NewRunner(ctrl, runnerOpts...)

	if opts.DisplayWatchTuning && opts.Config != "" {
		s.watcher = config.NewConfigWatcher(opts.Config, config.LoadTuning, logging.GetLogger("config"))
		s.watcher.OnReload(func(t display.Tuning) {
			s.runner.SubmitTuning(t)
			s.eventBus.Publish(events.TuningReloadedEvent{Path: opts.Config, Timestamp: time.Now()})
		})
	}

	if opts.NatsEnabled {
		if opts.NatsEmbedded {
			users, usersErr := natsUsers(opts)
			if usersErr != nil {
				_ = strip.CloseAll(s.channels)
				return nil, usersErr
			}
			s.natsServer = nats.NewServer(nats.ServerOptions{
				Host:   opts.NatsHost,
				Port:   opts.NatsPort,
				Node:   opts.NodeName,
				Users:  users,
				Logger: logging.GetLogger("nats"),
			})
		}
		natsURL, urlErr := withUserInfo(opts.NatsURL, opts.NatsUser, opts.NatsPassword)
		if urlErr != nil {
			_ = strip.CloseAll(s.channels)
			return nil, urlErr
		}
		discovery := nats.NewDiscoveryMessage(opts.NodeName, version.String(), opts.StripChannels, opts.StripLeds, s.runner.Effects())
		s.bridge = nats.NewBridge(natsURL, opts.NodeName, s.runner, s.eventBus, discovery, logging.GetLogger("nats"))
	}

	if opts.FeaturesLEDControl {
		logger.Info("LED control enabled, initializing")
		ledController, status := led.New(logger)
		s.leds = led.NewManager(ledController, status, s.eventBus, logger)
	}

	apiOpts := &api.Options{
		Node:         opts.NodeName,
		AuthUsername: opts.AuthUsername,
		AuthPassword: opts.AuthPassword,
		Runner:       s.runner,
		EventBus:     s.eventBus,
		LEDs:         s.leds,
		CORSOrigin:   opts.CORSOrigin,
	}
	if s.recorder != nil {
		apiOpts.Metrics = s.recorder
		apiOpts.PrometheusHandler = metrics.Handler()
	}
	s.server = api.NewServer(apiOpts)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// run starts every component and serves HTTP until stop.
func (s *service) run() error {
	if s.natsServer != nil {
		if err := s.natsServer.Start(); err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}
	}

	if s.leds != nil {
		s.leds.Start(s.runner.State().On)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.runner.Run(s.ctx); err != nil {
			s.logger.Warn("Display runner stopped with error", "error", err)
		}
	}()

	if s.bridge != nil {
		if err := s.bridge.Start(); err != nil {
			s.logger.Warn("NATS bridge not connected, serving HTTP only", "url", s.opts.NatsURL, "error", err)
		}
	}

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.logger.Warn("Failed to watch config file", "path", s.opts.Config, "error", err)
		}
	}

	s.notifier.Follow(s.eventBus, s.runner)
	s.notifier.StartWatchdog(ticking(s.recorder))
	s.notifier.Ready()

	s.logger.Info("Starting HTTP server", "port", s.opts.Port)
	if err := s.server.Start(s.opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}

// stop shuts down in dependency order. The runner fades the strip out
// before the bridge publishes the final state.
func (s *service) stop() {
	s.logger.Info("Shutting down")
	s.notifier.Stopping()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Stop(ctx); err != nil {
		s.logger.Error("Error stopping HTTP server", "error", err)
	}

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("Error stopping config watcher", "error", err)
		}
	}

	s.cancel()
	s.wg.Wait()

	if s.bridge != nil {
		s.bridge.Stop()
	}
	if s.natsServer != nil {
		s.natsServer.Stop()
	}
	if s.leds != nil {
		s.leds.Stop()
	}
	if err := strip.CloseAll(s.channels); err != nil {
		s.logger.Warn("Error closing frame sinks", "error", err)
	}
}

// buildSink opens every configured sink. More than one sink is fanned out.
func buildSink(opts *Options) (strip.Sink, error) {
	order, err := strip.ParseWireOrder(opts.StripWireOrder)
	if err != nil {
		return nil, err
	}

	var sinks []strip.Sink
	fail := func(err error) (strip.Sink, error) {
		for _, sink := range sinks {
			_ = sink.Close()
		}
		return nil, err
	}
	for _, name := range splitList(opts.StripSinks) {
		switch name {
		case "memory":
			sinks = append(sinks, strip.NewMemorySink())
		case "opc":
			sinks = append(sinks, strip.NewOPCSink(opts.StripOpcAddr, order, logging.GetLogger("strip")))
		case "spi":
			ports := splitList(opts.StripSpiPorts)
			configs := make([]strip.SPIConfig, opts.StripChannels)
			for i := range configs {
				configs[i] = strip.SPIConfig{NumPixels: opts.StripLeds}
				if i < len(ports) {
					configs[i].Port = ports[i]
				}
			}
			spiSink, spiErr := strip.NewSPISink(configs, order)
			if spiErr != nil {
				return fail(spiErr)
			}
			sinks = append(sinks, spiSink)
		case "preview":
			sinks = append(sinks, strip.NewTerminalSink(os.Stdout, opts.StripChannels, strip.DefaultPreviewWidth))
		default:
			return fail(fmt.Errorf("unknown sink %q", name))
		}
	}

	switch len(sinks) {
	case 0:
		return strip.NewMemorySink(), nil
	case 1:
		return sinks[0], nil
	default:
		return strip.NewMultiSink(sinks...), nil
	}
}

// ticking reports whether the runner completed a tick since the previous
// call. Without a recorder the runner is assumed healthy.
func ticking(rec *metrics.Recorder) func() bool {
	if rec == nil {
		return func() bool { return true }
	}
	var last uint64
	return func() bool {
		var n uint64
		for _, c := range rec.Snapshot().Ticks {
			n += c
		}
		ok := n != last
		last = n
		return ok
	}
}

// natsUsers builds the embedded server accounts. Accounts are optional, but
// once any exist the bridge needs one of its own.
func natsUsers(opts *Options) ([]nats.ServerUser, error) {
	var users []nats.ServerUser
	if opts.NatsUser != "" {
		users = append(users, nats.ServerUser{Name: opts.NatsUser, Password: opts.NatsPassword, Role: nats.RoleNode})
	}
	for _, group := range []struct {
		list string
		role nats.Role
	}{
		{opts.NatsControllers, nats.RoleController},
		{opts.NatsObservers, nats.RoleObserver},
	} {
		for _, pair := range splitList(group.list) {
			name, password, ok := strings.Cut(pair, ":")
			if !ok || name == "" || password == "" {
				return nil, fmt.Errorf("NATS %s entry %q is not user:password", group.role, name)
			}
			users = append(users, nats.ServerUser{Name: name, Password: password, Role: group.role})
		}
	}
	if len(users) > 0 && opts.NatsUser == "" {
		return nil, errors.New("NATS accounts are configured but nats.user is empty")
	}
	return users, nil
}

// withUserInfo puts user and password into a server URL.
func withUserInfo(raw, user, password string) (string, error) {
	if user == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse NATS URL: %w", err)
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
