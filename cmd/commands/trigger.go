package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/sidekick/clients/ws"
	"github.com/dohr-michael/sidekick/internal/config"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/heartbeat"
)

// heartbeatMaxAge tolerates one missed heartbeat write.
const heartbeatMaxAge = 2*heartbeat.DefaultInterval + 10*time.Second

var addrFlag = &cli.StringFlag{
	Name:  "addr",
	Usage: "Control server address (host:port); defaults to the running instance",
}

// NewTriggerCommand returns the trigger subcommand. It is meant to be bound
// to an OS-level hotkey.
func NewTriggerCommand() *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Usage:     "Trigger a running sidekick (screen, region, clipboard, text, followup, mode)",
		ArgsUsage: "<kind> [text]",
		Flags: []cli.Flag{
			addrFlag,
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Print the streamed reply until the request completes",
			},
		},
		Action: runTrigger,
	}
}

func runTrigger(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.Args().First()
	if kind == "" {
		return fmt.Errorf("usage: sidekick trigger <screen|region|clipboard|text|followup|mode> [text]")
	}
	text := strings.Join(cmd.Args().Tail(), " ")

	url, err := controlURL(cmd)
	if err != nil {
		return err
	}
	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to sidekick: %w", err)
	}
	defer client.Close()

	if kind == "mode" {
		id, err := client.CycleMode()
		if err != nil {
			return err
		}
		resp, err := client.Await(id, nil)
		if err != nil {
			return err
		}
		var out struct {
			Mode string `json:"mode"`
		}
		if err := json.Unmarshal(resp.Payload, &out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		fmt.Printf("Switched to [%s] mode\n", out.Mode)
		return nil
	}

	follow := cmd.Bool("follow")
	done := false
	var reqErr string
	onEvent := func(e events.Event) {
		if !follow || done {
			return
		}
		done, reqErr = printEvent(e)
	}

	id, err := client.Trigger(kind, text)
	if err != nil {
		return err
	}
	if _, err := client.Await(id, onEvent); err != nil {
		return fmt.Errorf("trigger %s: %w", kind, err)
	}
	if !follow {
		fmt.Println("accepted")
		return nil
	}

	for !done {
		e, err := client.ReadEvent()
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		onEvent(e)
	}
	if reqErr != "" {
		return fmt.Errorf("request failed: %s", reqErr)
	}
	return nil
}

// printEvent writes streamed tokens to stdout. It reports whether the event
// ends the request and the request error, if any.
func printEvent(e events.Event) (bool, string) {
	switch e.Type {
	case events.EventToken:
		if s, ok := e.Payload["text"].(string); ok {
			fmt.Print(s)
		}
	case events.EventRequestCompleted:
		fmt.Println()
		s, _ := e.Payload["error"].(string)
		return true, s
	}
	return false, ""
}

// controlURL resolves the WebSocket endpoint: --addr, then the heartbeat of a
// running instance, then the configured control address.
func controlURL(cmd *cli.Command) (string, error) {
	addr := cmd.String("addr")
	if addr == "" {
		status, hb, err := heartbeat.Check(config.HeartbeatPath(), heartbeatMaxAge)
		if err == nil && status == heartbeat.StatusAlive && hb.Addr != "" {
			addr = hb.Addr
		}
	}
	if addr == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return "", err
		}
		addr = net.JoinHostPort(cfg.Control.Host, strconv.Itoa(cfg.Control.Port))
	}
	return "ws://" + addr + "/api/ws", nil
}
