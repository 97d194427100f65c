package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/sidekick/internal/assistant"
	"github.com/dohr-michael/sidekick/internal/events"
	"github.com/dohr-michael/sidekick/internal/prompts"
)

type fakeAssistant struct {
	mu     sync.Mutex
	calls  []string
	accept bool
	busy   bool
	result assistant.Result
	mode   string
}

func (f *fakeAssistant) record(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.accept
}

func (f *fakeAssistant) TriggerText(text string) bool    { return f.record("text:" + text) }
func (f *fakeAssistant) TriggerFollowUp(q string) bool   { return f.record("followup:" + q) }
func (f *fakeAssistant) CaptureScreen() bool             { return f.record("screen") }
func (f *fakeAssistant) CaptureRegion() bool             { return f.record("region") }
func (f *fakeAssistant) CaptureClipboard() bool          { return f.record("clipboard") }
func (f *fakeAssistant) Busy() bool                      { return f.busy }
func (f *fakeAssistant) Wait()                           {}
func (f *fakeAssistant) LastResult() assistant.Result    { return f.result }
func (f *fakeAssistant) CycleMode() prompts.Mode         { return prompts.Mode{Name: "Debug"} }

func (f *fakeAssistant) SetMode(name string) error {
	if _, ok := prompts.Default().Get(name); !ok {
		return fmt.Errorf("unknown mode %q", name)
	}
	f.mode = name
	return nil
}

func findTool(t *testing.T, a Assistant, name string) tool {
	t.Helper()
	for _, tl := range tools(a, prompts.Default().Names()) {
		if tl.def.Name == name {
			return tl
		}
	}
	t.Fatalf("tool %q not registered", name)
	return tool{}
}

func call(t *testing.T, tl tool, args string) *mcpsdk.CallToolResult {
	t.Helper()
	req := &mcpsdk.CallToolRequest{Params: &mcpsdk.CallToolParamsRaw{
		Name:      tl.def.Name,
		Arguments: json.RawMessage(args),
	}}
	res, err := wrap(tl.def.Name, tl.run)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text
}

func TestToMCPTool(t *testing.T) {
	ts := toolSpec{
		Name:        "ask_text",
		Description: "Ask",
		Params: map[string]param{
			"text": {Type: "string", Description: "Text", Required: true},
			"mode": {Type: "string", Description: "Mode", Required: true, Enum: []string{"Interview", "Debug"}},
			"note": {Type: "string", Description: "Optional"},
		},
	}

	tl := toMCPTool(ts)
	if tl.Name != "ask_text" || tl.Description != "Ask" {
		t.Errorf("tool = %+v", tl)
	}

	data, err := json.Marshal(tl.InputSchema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if schema.Type != "object" || len(schema.Properties) != 3 {
		t.Errorf("schema = %+v", schema)
	}
	if len(schema.Required) != 2 || schema.Required[0] != "mode" || schema.Required[1] != "text" {
		t.Errorf("required = %v, want [mode text]", schema.Required)
	}
	if enum, _ := schema.Properties["mode"]["enum"].([]any); len(enum) != 2 {
		t.Errorf("mode enum = %v", schema.Properties["mode"]["enum"])
	}
}

func TestToMCPTool_NoRequired(t *testing.T) {
	tl := toMCPTool(toolSpec{Name: "next_mode", Params: map[string]param{}})
	schema := tl.InputSchema.(map[string]any)
	if _, ok := schema["required"]; ok {
		t.Error("schema must omit required when nothing is required")
	}
}

func TestNewServer(t *testing.T) {
	if NewServer(&fakeAssistant{}, prompts.Default().Names(), "test") == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestAskText(t *testing.T) {
	a := &fakeAssistant{accept: true, result: assistant.Result{Kind: events.RequestText, Reply: "Use a hash map."}}

	res := call(t, findTool(t, a, ToolAskText), `{"text":"two sum","mode":"Debug"}`)
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "Use a hash map." {
		t.Errorf("reply = %q", got)
	}
	if a.mode != "Debug" {
		t.Errorf("mode = %q, want Debug", a.mode)
	}
	if len(a.calls) != 1 || a.calls[0] != "text:two sum" {
		t.Errorf("calls = %v", a.calls)
	}
}

func TestAskTools_Trigger(t *testing.T) {
	tests := []struct {
		tool string
		args string
		want string
	}{
		{ToolAskScreen, `{}`, "screen"},
		{ToolAskRegion, `{"mode":"Debug"}`, "region"},
		{ToolAskClipboard, ``, "clipboard"},
		{ToolFollowUp, `{"question":"why?"}`, "followup:why?"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			a := &fakeAssistant{accept: true, result: assistant.Result{Reply: "ok"}}
			res := call(t, findTool(t, a, tt.tool), tt.args)
			if res.IsError || resultText(t, res) != "ok" {
				t.Errorf("result = %+v", res)
			}
			if len(a.calls) != 1 || a.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", a.calls, tt.want)
			}
		})
	}
}

func TestAsk_NotAccepted(t *testing.T) {
	a := &fakeAssistant{accept: false}
	res := call(t, findTool(t, a, ToolAskText), `{"text":"x"}`)
	if !res.IsError || resultText(t, res) != ErrNotAccepted.Error() {
		t.Errorf("result = %+v", res)
	}
}

func TestAsk_BusyKeepsMode(t *testing.T) {
	a := &fakeAssistant{busy: true}
	res := call(t, findTool(t, a, ToolAskRegion), `{"mode":"Debug"}`)
	if !res.IsError || resultText(t, res) != ErrNotAccepted.Error() {
		t.Errorf("result = %+v", res)
	}
	if a.mode != "" {
		t.Errorf("mode changed to %q while busy", a.mode)
	}
	if len(a.calls) != 0 {
		t.Errorf("nothing may be triggered, got %v", a.calls)
	}
}

func TestAskText_BlankKeepsMode(t *testing.T) {
	a := &fakeAssistant{accept: true}
	res := call(t, findTool(t, a, ToolAskText), `{"text":"  ","mode":"Debug"}`)
	if !res.IsError {
		t.Fatal("blank text must be an error result")
	}
	if a.mode != "" || len(a.calls) != 0 {
		t.Errorf("mode = %q calls = %v", a.mode, a.calls)
	}
}

func TestAsk_RequestFailed(t *testing.T) {
	a := &fakeAssistant{accept: true, result: assistant.Result{Err: errors.New("bedrock API error (ThrottlingException)")}}
	res := call(t, findTool(t, a, ToolFollowUp), `{"question":"more"}`)
	if !res.IsError || resultText(t, res) != "bedrock API error (ThrottlingException)" {
		t.Errorf("result = %+v", res)
	}
}

func TestAsk_UnknownMode(t *testing.T) {
	a := &fakeAssistant{accept: true}
	res := call(t, findTool(t, a, ToolAskScreen), `{"mode":"Poetry"}`)
	if !res.IsError {
		t.Fatal("unknown mode must be an error result")
	}
	if len(a.calls) != 0 {
		t.Errorf("nothing may be triggered, got %v", a.calls)
	}
}

func TestInvalidArguments(t *testing.T) {
	a := &fakeAssistant{accept: true}
	res := call(t, findTool(t, a, ToolAskText), `{"text":`)
	if !res.IsError {
		t.Fatal("malformed arguments must be an error result")
	}
}

func TestNextMode(t *testing.T) {
	res := call(t, findTool(t, &fakeAssistant{}, ToolNextMode), `{}`)
	if res.IsError || resultText(t, res) != "Debug" {
		t.Errorf("result = %+v", res)
	}
}
