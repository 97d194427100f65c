package commands

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	sidekickmcp "github.com/dohr-michael/sidekick/internal/mcp"
)

// Version is reported to MCP clients.
var Version = "dev"

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose the assistant as MCP tools over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Initial prompt mode",
			},
		},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP stdio transport; logs stay on stderr.
	closeLog, err := setupLogging(cfg, cmd.Bool("debug"), false)
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := boot(ctx, cfg, bootOptions{eventLog: true, mode: cmd.String("mode")})
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	server := sidekickmcp.NewServer(rt.assistant, rt.assistant.Prompts().Names(), Version)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
