package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/internal/assistant"
	"github.com/dohr-michael/sidekick/internal/capture"
	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/models"
	"github.com/dohr-michael/sidekick/internal/prompts"
	"github.com/dohr-michael/sidekick/internal/sessions"
	"github.com/dohr-michael/sidekick/internal/storage"
)

// runtime bundles everything a long-lived command needs.
type runtime struct {
	cfg       *config.Config
	bus       *events.Bus
	assistant *assistant.Assistant
	store     sessions.Store
	eventLog  *storage.EventLogger

	cancel    context.CancelFunc
	closeOnce sync.Once
}

type bootOptions struct {
	probe    bool
	eventLog bool
	mode     string
}

// loadConfig reads the config file named by --config and applies --provider.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if p := cmd.String("provider"); p != "" {
		if _, ok := cfg.Models.Providers[p]; !ok {
			return nil, fmt.Errorf("model provider %q not configured", p)
		}
		cfg.Models.Default = p
	}
	return cfg, nil
}

// boot wires the gateway, prompts, capture, persistence and assistant together.
// Requests run on a child of ctx that Shutdown cancels.
func boot(ctx context.Context, cfg *config.Config, opts bootOptions) (*runtime, error) {
	registry := models.NewRegistry(cfg.Models)
	gw, err := registry.Default(ctx)
	if err != nil {
		return nil, fmt.Errorf("init model %q: %w", registry.DefaultName(), err)
	}

	if opts.probe {
		slog.Info("probing model", "model", gw.Name())
		if err := gw.Probe(ctx); err != nil {
			return nil, err
		}
	}

	reg, err := prompts.LoadRegistry(cfg.Prompts.File)
	if err != nil {
		return nil, err
	}
	mode := cfg.Prompts.DefaultMode
	if opts.mode != "" {
		mode = opts.mode
	}
	return assemble(ctx, cfg, gw, reg, mode, capture.New(cfg.Capture), opts)
}

func assemble(ctx context.Context, cfg *config.Config, gw models.Gateway, reg *prompts.Registry, mode string, capturer assistant.Capturer, opts bootOptions) (*runtime, error) {
	ctx, cancel := context.WithCancel(ctx)
	bus := events.NewBus(cfg.Events.BufferSize)
	rt := &runtime{cfg: cfg, bus: bus, cancel: cancel}

	acfg := assistant.Config{
		Gateway:       gw,
		Prompts:       reg,
		Surface:       events.NewPresenter(bus, events.SourceAssistant),
		Capture:       capturer,
		Bus:           bus,
		Mode:          mode,
		MinImageBytes: cfg.Capture.MinImageBytes,
	}
	if !cfg.Sessions.Disabled {
		store := sessions.NewFileStore(cfg.Sessions.Dir)
		rt.store = store
		acfg.Recorder = store
	}

	a, err := assistant.New(ctx, acfg)
	if err != nil {
		cancel()
		bus.Close()
		return nil, err
	}
	rt.assistant = a

	if opts.eventLog {
		rt.eventLog = storage.NewEventLogger(cfg.Events.LogDir, bus)
	}

	slog.Debug("runtime ready", "model", gw.Name(), "mode", a.Mode().Name, "sessions", !cfg.Sessions.Disabled)
	return rt, nil
}

// Close waits for the in-flight request, closes the open session and drains
// the bus. It is safe to call more than once.
func (rt *runtime) Close() {
	rt.closeOnce.Do(func() {
		rt.assistant.Wait()
		rt.assistant.EndSession()
		rt.bus.Close()
		if rt.eventLog != nil {
			rt.eventLog.Close()
		}
		rt.cancel()
	})
}

// Shutdown abandons the in-flight request, then closes. Interactive commands
// use it because quitting the TUI is a key press, not a signal.
func (rt *runtime) Shutdown() {
	rt.cancel()
	rt.Close()
}
