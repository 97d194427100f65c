package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/sidekick/internal/sessions"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Review past conversations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all sessions",
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show messages in a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
		},
		DefaultCommand: "list",
	}
}

func newStore(cmd *cli.Command) (*sessions.FileStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return sessions.NewFileStore(cfg.Sessions.Dir), nil
}

func runSessionsList(_ context.Context, cmd *cli.Command) error {
	store, err := newStore(cmd)
	if err != nil {
		return err
	}

	list, err := store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tKIND\tMODES\tEXCHANGES\tUPDATED\tTITLE")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.Status,
			dash(s.Kind),
			dash(strings.Join(s.Modes, ",")),
			s.Exchanges,
			s.UpdatedAt.Format("2006-01-02 15:04"),
			dash(s.Title),
		)
	}
	return w.Flush()
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: sidekick sessions show <session_id>")
	}

	store, err := newStore(cmd)
	if err != nil {
		return err
	}

	s, err := store.Get(sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	fmt.Printf("%s  (%s, %s, model time %s)\n\n",
		s.Title, s.Model, s.Status, s.ModelTime.Round(time.Millisecond))

	records, err := store.Exchanges(sessionID)
	if err != nil {
		return fmt.Errorf("load exchanges: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No exchanges in this session.")
		return nil
	}

	for _, r := range records {
		fmt.Print(formatRecord(r))
	}
	return nil
}

// formatRecord renders one exchange as a question/answer block.
func formatRecord(r sessions.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s [%s] %s\n", r.Seq, r.At.Format("15:04:05"), r.Mode, r.Kind)
	fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(r.Question, "\n", "\n> "))
	fmt.Fprintf(&b, "%s\n\n", r.Reply)
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
