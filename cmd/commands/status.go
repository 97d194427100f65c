package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a sidekick instance is running",
		Action: func(_ context.Context, _ *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), heartbeatMaxAge)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			switch status {
			case heartbeat.StatusAlive:
				fmt.Printf("Sidekick: ALIVE (PID %d, uptime %s)\n", hb.PID, hb.Uptime)
				fmt.Printf("  model: %s\n  mode:  %s\n", hb.Model, hb.Mode)
				if hb.Busy {
					fmt.Println("  busy:  request in flight")
				}
				if hb.Addr != "" {
					fmt.Printf("  control: %s\n", hb.Addr)
				}
			case heartbeat.StatusStale:
				fmt.Printf("Sidekick: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Println("Sidekick: NOT RUNNING")
			}

			return nil
		},
	}
}
