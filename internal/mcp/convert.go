// Package mcp exposes the assistant as Model Context Protocol tools so other
// agents can ask it about the screen, the clipboard or a piece of text.
package mcp

import (
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type param struct {
	Type        string
	Description string
	Required    bool
	Enum        []string
}

type toolSpec struct {
	Name        string
	Description string
	Params      map[string]param
}

// toMCPTool builds the tool with a JSON Schema for its parameters.
func toMCPTool(ts toolSpec) *mcpsdk.Tool {
	props := make(map[string]any, len(ts.Params))
	var required []string

	for name, p := range ts.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop

		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	inputSchema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		inputSchema["required"] = required
	}

	return &mcpsdk.Tool{
		Name:        ts.Name,
		Description: ts.Description,
		InputSchema: inputSchema,
	}
}
