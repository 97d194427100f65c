package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/sidekick/internal/prompts"
)

// NewModesCommand returns the modes subcommand.
func NewModesCommand() *cli.Command {
	return &cli.Command{
		Name:  "modes",
		Usage: "List prompt modes in cycle order",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "Print the effective modes as a modes.yaml template",
			},
		},
		Action: runModes,
	}
}

func runModes(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reg, err := prompts.LoadRegistry(cfg.Prompts.File)
	if err != nil {
		return err
	}

	if cmd.Bool("yaml") {
		f := prompts.File{FollowUp: reg.FollowUp()}
		for i := 0; i < reg.Len(); i++ {
			f.Modes = append(f.Modes, reg.At(i))
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode modes: %w", err)
		}
		return enc.Close()
	}

	def := reg.At(reg.IndexOf(cfg.Prompts.DefaultMode)).Name
	for i, name := range reg.Names() {
		marker := " "
		if name == def {
			marker = "*"
		}
		fmt.Printf("%s %d. %s\n", marker, i+1, name)
	}
	return nil
}
