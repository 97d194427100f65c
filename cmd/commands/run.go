package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/clients/tui"
	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/gateway"
	"github.com/dohr-michael/sidekick/internal/heartbeat"
)

// NewRunCommand returns the run subcommand, the interactive assistant.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the assistant in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Initial prompt mode",
			},
			&cli.BoolFlag{
				Name:  "control",
				Usage: "Serve the local control API even if it is disabled in config",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run only the control API, without the TUI",
			},
			&cli.BoolFlag{
				Name:  "skip-probe",
				Usage: "Do not test the model connection at startup",
			},
		},
		Action: runAssistant,
	}
}

func runAssistant(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	headless := cmd.Bool("headless")
	closeLog, err := setupLogging(cfg, cmd.Bool("debug"), !headless)
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := boot(ctx, cfg, bootOptions{
		probe:    !cmd.Bool("skip-probe"),
		eventLog: true,
		mode:     cmd.String("mode"),
	})
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	a := rt.assistant
	var srv *gateway.Server
	addr := ""
	if cfg.Control.Enabled || cmd.Bool("control") || headless {
		srv = gateway.NewServer(a, rt.bus, rt.store, cfg.Control.Host, cfg.Control.Port)
		addr = net.JoinHostPort(cfg.Control.Host, strconv.Itoa(cfg.Control.Port))
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("control server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("control server shutdown", "error", err)
			}
		}()
	}

	hb := heartbeat.NewWriter(config.HeartbeatPath(), addr, func() heartbeat.State {
		return heartbeat.State{Model: a.Model(), Mode: a.Mode().Name, Busy: a.Busy()}
	})
	hb.Start()
	defer hb.Stop()

	if headless {
		slog.Info("sidekick running headless", "addr", addr, "model", a.Model(), "mode", a.Mode().Name)
		<-ctx.Done()
		slog.Info("shutting down")
		return nil
	}

	return tui.Run(ctx, a, rt.bus, tui.Options{SaveDir: cfg.Transcript.Dir})
}
