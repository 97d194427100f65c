package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/secrets"
)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Store provider credentials encrypted in .env",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt a value read from the terminal or stdin and store it",
				ArgsUsage: "<ENV_NAME>",
				Action:    runSecretSet,
			},
		},
	}
}

func runSecretSet(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: sidekick secret set <ENV_NAME>")
	}

	value, err := readSecret(name)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty value for %s", name)
	}

	sealed, err := secrets.Seal(value, secrets.KeyPath())
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", name, err)
	}
	if err := secrets.SetEntry(config.DotenvPath(), name, sealed); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	fmt.Printf("Stored %s (encrypted) in %s\n", name, config.DotenvPath())
	return nil
}

func readSecret(name string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		s, err := readStdin()
		return strings.TrimSpace(s), err
	}
	fmt.Fprintf(os.Stderr, "%s: ", name)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read value: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
