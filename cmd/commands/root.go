// Package commands implements the sidekick CLI.
package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "sidekick",
		Usage: "Screen and clipboard LLM assistant for the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Model provider to use instead of models.default",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewAskCommand(),
			NewProbeCommand(),
			NewModesCommand(),
			NewTriggerCommand(),
			NewTailCommand(),
			NewStatusCommand(),
			NewSessionsCommand(),
			NewSecretCommand(),
			NewMCPServeCommand(),
		},
		DefaultCommand: "run",
	}
}
