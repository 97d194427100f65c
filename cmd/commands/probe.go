package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/internal/models"
)

// NewProbeCommand returns the probe subcommand.
func NewProbeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Test credentials and connectivity of the configured models",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Probe every configured provider, not only the default",
			},
		},
		Action: runProbe,
	}
}

func runProbe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, cmd.Bool("debug"), false)
	if err != nil {
		return err
	}
	defer closeLog()

	registry := models.NewRegistry(cfg.Models)
	names := []string{registry.DefaultName()}
	if cmd.Bool("all") {
		names = registry.Names()
	}

	var failed error
	for _, name := range names {
		gw, err := registry.Get(ctx, name)
		if err != nil {
			fmt.Printf("%-12s FAIL  %v\n", name, err)
			failed = err
			continue
		}
		start := time.Now()
		if err := gw.Probe(ctx); err != nil {
			fmt.Printf("%-12s FAIL  %v\n", name, err)
			failed = err
			continue
		}
		fmt.Printf("%-12s OK    %s (%s)\n", name, gw.Name(), time.Since(start).Truncate(time.Millisecond))
	}
	return failed
}
