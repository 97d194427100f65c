package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/transcript"
)

// NewAskCommand returns the ask subcommand, a one-shot request printed to stdout.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one request and stream the reply to stdout",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "screen",
				Usage: "Capture the screen instead of sending text",
			},
			&cli.BoolFlag{
				Name:  "region",
				Usage: "Select a screen region to capture",
			},
			&cli.BoolFlag{
				Name:  "clipboard",
				Usage: "Send the clipboard contents",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Prompt mode",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the reply as a markdown transcript",
			},
			&cli.BoolFlag{
				Name:  "probe",
				Usage: "Test the model connection before the request",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	if countSet(cmd, "screen", "region", "clipboard") > 1 {
		return errors.New("--screen, --region and --clipboard are mutually exclusive")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, cmd.Bool("debug"), false)
	if err != nil {
		return err
	}
	defer closeLog()

	text := strings.Join(cmd.Args().Slice(), " ")
	if countSet(cmd, "screen", "region", "clipboard") == 0 && text == "" {
		if text, err = readStdin(); err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("usage: sidekick ask <text> (or pipe text on stdin, or use --screen / --region / --clipboard)")
		}
	}

	rt, err := boot(ctx, cfg, bootOptions{probe: cmd.Bool("probe"), mode: cmd.String("mode")})
	if err != nil {
		return err
	}
	defer rt.Close()

	var (
		out       events.Transcript
		completed *events.RequestCompletedPayload
		rejected  string
	)
	unsub := rt.bus.Subscribe(func(e events.Event) {
		out.Apply(e)
		switch e.Type {
		case events.EventToken:
			if p, ok := events.GetTokenPayload(e); ok {
				fmt.Fprint(os.Stdout, p.Text)
			}
		case events.EventRequestCompleted:
			if p, ok := events.GetRequestCompletedPayload(e); ok {
				completed = &p
			}
		case events.EventTriggerRejected:
			if p, ok := events.ExtractPayload[events.TriggerRejectedPayload](e); ok {
				rejected = p.Reason
			}
		}
	}, events.EventToken, events.EventClear, events.EventRequestCompleted, events.EventTriggerRejected)
	defer unsub()

	a := rt.assistant
	var accepted bool
	switch {
	case cmd.Bool("screen"):
		accepted = a.CaptureScreen()
	case cmd.Bool("region"):
		accepted = a.CaptureRegion()
	case cmd.Bool("clipboard"):
		accepted = a.CaptureClipboard()
	default:
		accepted = a.TriggerText(text)
	}

	// Closing drains the bus, so the subscriber has seen every event after this.
	rt.Close()

	if !accepted {
		return fmt.Errorf("request not accepted: %s", rejected)
	}
	if completed == nil {
		if err := a.LastResult().Err; err != nil {
			return err
		}
		return errors.New("screen capture failed, check the log for details")
	}
	fmt.Fprintln(os.Stdout)
	if completed.Error != "" {
		return errors.New(completed.Error)
	}

	if cmd.Bool("save") {
		path, err := transcript.Save(cfg.Transcript.Dir, completed.Mode, strings.TrimSpace(out.String()), time.Now())
		if err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", path)
	}
	return nil
}

// readStdin returns piped input. An interactive terminal yields "".
func readStdin() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func countSet(cmd *cli.Command, flags ...string) int {
	n := 0
	for _, f := range flags {
		if cmd.Bool(f) {
			n++
		}
	}
	return n
}
