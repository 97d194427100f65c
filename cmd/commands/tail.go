package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/sidekick/clients/ws"
	"github.com/dohr-michael/sidekick/internal/events"
)

// NewTailCommand returns the tail subcommand.
func NewTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Stream the events of a running sidekick",
		Flags: []cli.Flag{
			addrFlag,
			&cli.BoolFlag{
				Name:  "tokens",
				Usage: "Print reply tokens inline instead of one line per event",
			},
		},
		Action: runTail,
	}
}

func runTail(ctx context.Context, cmd *cli.Command) error {
	url, err := controlURL(cmd)
	if err != nil {
		return err
	}
	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to sidekick: %w", err)
	}
	defer client.Close()

	tokens := cmd.Bool("tokens")
	for {
		e, err := client.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if tokens && e.Type == events.EventToken {
			if s, ok := e.Payload["text"].(string); ok {
				fmt.Print(s)
			}
			continue
		}
		fmt.Println(formatEvent(e))
	}
}

func formatEvent(e events.Event) string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.SessionID != "" {
		b.WriteString(" [" + e.SessionID + "]")
	}
	for _, key := range []string{"kind", "mode", "model", "name", "text", "reason", "error", "path"} {
		v, ok := e.Payload[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " %s=%q", key, fmt.Sprint(v))
	}
	return b.String()
}
