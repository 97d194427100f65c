package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/sidekick/internal/assistant"
	"github.com/dohr-michael/sidekick/internal/prompts"
)

// Tool names.
const (
	ToolAskText      = "ask_text"
	ToolAskScreen    = "ask_screen"
	ToolAskRegion    = "ask_region"
	ToolAskClipboard = "ask_clipboard"
	ToolFollowUp     = "follow_up"
	ToolNextMode     = "next_mode"
)

// ErrNotAccepted is reported when the assistant is busy or the input is empty.
var ErrNotAccepted = errors.New("request not accepted: a request is already running or the input is empty")

// Assistant is the part of *assistant.Assistant the tools drive.
type Assistant interface {
	TriggerText(text string) bool
	TriggerFollowUp(question string) bool
	CaptureScreen() bool
	CaptureRegion() bool
	CaptureClipboard() bool
	Busy() bool
	CycleMode() prompts.Mode
	SetMode(name string) error
	Wait()
	LastResult() assistant.Result
}

type toolArgs struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

type handler func(ctx context.Context, args toolArgs) (string, error)

// NewServer creates an MCP server exposing the assistant tools. modes lists
// the selectable prompt modes.
func NewServer(a Assistant, modes []string, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "sidekick",
		Version: version,
	}, nil)

	for _, t := range tools(a, modes) {
		server.AddTool(toMCPTool(t.def), wrap(t.def.Name, t.run))
		slog.Debug("mcp tool registered", "tool", t.def.Name)
	}
	return server
}

type tool struct {
	def toolSpec
	run handler
}

func tools(a Assistant, modes []string) []tool {
	modeParam := param{
		Type:        "string",
		Description: "Prompt mode to select before asking; the selection persists",
		Enum:        modes,
	}

	return []tool{
		{
			def: toolSpec{
				Name:        ToolAskText,
				Description: "Start a new conversation about a piece of text and return the reply.",
				Params: map[string]param{
					"text": {Type: "string", Description: "Problem statement or question", Required: true},
					"mode": modeParam,
				},
			},
			run: func(_ context.Context, args toolArgs) (string, error) {
				if strings.TrimSpace(args.Text) == "" {
					return "", ErrNotAccepted
				}
				return ask(a, args.Mode, func() bool { return a.TriggerText(args.Text) })
			},
		},
		{
			def: toolSpec{
				Name:        ToolAskScreen,
				Description: "Capture the screen, start a new conversation about it and return the reply.",
				Params:      map[string]param{"mode": modeParam},
			},
			run: func(_ context.Context, args toolArgs) (string, error) {
				return ask(a, args.Mode, a.CaptureScreen)
			},
		},
		{
			def: toolSpec{
				Name:        ToolAskRegion,
				Description: "Let the user select a screen region, start a new conversation about it and return the reply.",
				Params:      map[string]param{"mode": modeParam},
			},
			run: func(_ context.Context, args toolArgs) (string, error) {
				return ask(a, args.Mode, a.CaptureRegion)
			},
		},
		{
			def: toolSpec{
				Name:        ToolAskClipboard,
				Description: "Start a new conversation about the clipboard text and return the reply.",
				Params:      map[string]param{"mode": modeParam},
			},
			run: func(_ context.Context, args toolArgs) (string, error) {
				return ask(a, args.Mode, a.CaptureClipboard)
			},
		},
		{
			def: toolSpec{
				Name:        ToolFollowUp,
				Description: "Ask a follow-up question in the current conversation and return the reply.",
				Params: map[string]param{
					"question": {Type: "string", Description: "Follow-up question", Required: true},
				},
			},
			run: func(_ context.Context, args toolArgs) (string, error) {
				return ask(a, "", func() bool { return a.TriggerFollowUp(args.Question) })
			},
		},
		{
			def: toolSpec{
				Name:        ToolNextMode,
				Description: "Select the next prompt mode and return its name.",
				Params:      map[string]param{},
			},
			run: func(context.Context, toolArgs) (string, error) {
				return a.CycleMode().Name, nil
			},
		},
	}
}

// ask selects mode if given, triggers the request and blocks until it finishes.
// A busy assistant keeps its mode.
func ask(a Assistant, mode string, trigger func() bool) (string, error) {
	if mode != "" {
		if a.Busy() {
			return "", ErrNotAccepted
		}
		if err := a.SetMode(mode); err != nil {
			return "", err
		}
	}
	if !trigger() {
		return "", ErrNotAccepted
	}
	a.Wait()

	res := a.LastResult()
	if res.Err != nil {
		return "", res.Err
	}
	return res.Reply, nil
}

// wrap adapts a handler to the SDK. Tool failures are returned as error
// results so the calling model can see them.
func wrap(name string, run handler) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args toolArgs
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		out, err := run(ctx, args)
		if err != nil {
			slog.Debug("mcp tool error", "tool", name, "error", err)
			return errorResult(err), nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: out}},
		}, nil
	}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}
