// Package capture grabs screen images and clipboard text for the assistant.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/dohr-michael/sidekick/internal/config"
)

// Placeholders understood in capture commands. Commands without
// FilePlaceholder must write the PNG to stdout.
const (
	FilePlaceholder      = "{file}"
	SelectionPlaceholder = "{selection}"
)

var (
	ErrNoScreenTool = errors.New("no screen capture tool found")
	ErrNoRegionTool = errors.New("no region selection tool found")
	ErrNotPNG       = errors.New("capture output is not a PNG image")
	// ErrSelectionCancelled means the user dismissed the region selector.
	ErrSelectionCancelled = errors.New("selection cancelled")
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Tool is a capture command line. When Selector is set it runs first and its
// trimmed stdout replaces SelectionPlaceholder in Command.
type Tool struct {
	Selector string
	Command  string
}

func (t Tool) String() string {
	if t.Selector == "" {
		return t.Command
	}
	return t.Selector + " | " + t.Command
}

func (t Tool) installed() bool {
	for _, line := range []string{t.Selector, t.Command} {
		if line == "" {
			continue
		}
		if _, err := lookPath(strings.Fields(line)[0]); err != nil {
			return false
		}
	}
	return true
}

var screenCandidates = map[string][]Tool{
	"darwin": {
		{Command: "screencapture -x -t png {file}"},
	},
	"linux": {
		{Command: "grim {file}"},
		{Command: "gnome-screenshot -f {file}"},
		{Command: "maim {file}"},
		{Command: "import -window root {file}"},
	},
}

var regionCandidates = map[string][]Tool{
	"darwin": {
		{Command: "screencapture -i -x -t png {file}"},
	},
	"linux": {
		{Selector: "slurp", Command: "grim -g {selection} {file}"},
		{Command: "maim -s {file}"},
		{Command: "gnome-screenshot -a -f {file}"},
		{Command: "import {file}"},
	},
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

func detect(override string, candidates map[string][]Tool) (Tool, bool) {
	if cmd := strings.TrimSpace(override); cmd != "" {
		return Tool{Command: cmd}, true
	}
	for _, t := range candidates[runtime.GOOS] {
		if t.installed() {
			return t, true
		}
	}
	return Tool{}, false
}

// DetectScreenCmd returns the override, or the first installed screenshot tool
// for the current OS, or "" when none is found.
func DetectScreenCmd(override string) string {
	t, _ := detect(override, screenCandidates)
	return t.String()
}

// DetectRegionCmd is DetectScreenCmd for interactive region selection.
func DetectRegionCmd(override string) string {
	t, _ := detect(override, regionCandidates)
	return t.String()
}

// Capturer implements screen and clipboard capture with OS tools.
type Capturer struct {
	screen    Tool
	region    Tool
	hasScreen bool
	hasRegion bool
}

// New creates a Capturer from config.
func New(cfg config.CaptureConfig) *Capturer {
	c := &Capturer{}
	c.screen, c.hasScreen = detect(cfg.ScreenCommand, screenCandidates)
	c.region, c.hasRegion = detect(cfg.RegionCommand, regionCandidates)
	return c
}

// Screen captures the full screen and returns PNG bytes.
func (c *Capturer) Screen(ctx context.Context) ([]byte, error) {
	if !c.hasScreen {
		return nil, ErrNoScreenTool
	}
	out, err := run(ctx, c.screen)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(out, pngMagic) {
		return nil, ErrNotPNG
	}
	return out, nil
}

// Region lets the user drag a rectangle and returns it as PNG bytes.
// Dismissing the selector yields ErrSelectionCancelled.
func (c *Capturer) Region(ctx context.Context) ([]byte, error) {
	if !c.hasRegion {
		return nil, ErrNoRegionTool
	}
	out, err := run(ctx, c.region)
	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr) && ctx.Err() == nil:
		// slurp and maim exit 1 on Escape.
		return nil, fmt.Errorf("%w: %v", ErrSelectionCancelled, err)
	case err != nil:
		return nil, err
	case len(out) == 0:
		// screencapture -i and gnome-screenshot -a exit 0 without a file.
		return nil, ErrSelectionCancelled
	case !bytes.HasPrefix(out, pngMagic):
		return nil, ErrNotPNG
	}
	return out, nil
}

func run(ctx context.Context, t Tool) ([]byte, error) {
	vars := map[string]string{}
	if t.Selector != "" {
		sel, err := execute(ctx, strings.Fields(t.Selector))
		if err != nil {
			return nil, err
		}
		vars[SelectionPlaceholder] = strings.TrimSpace(string(sel))
	}

	parts := strings.Fields(t.Command)
	if len(parts) == 0 {
		return nil, ErrNoScreenTool
	}

	var path string
	if strings.Contains(t.Command, FilePlaceholder) {
		f, err := os.CreateTemp("", "sidekick-*.png")
		if err != nil {
			return nil, fmt.Errorf("create temp file: %w", err)
		}
		path = f.Name()
		f.Close()
		defer os.Remove(path)
		vars[FilePlaceholder] = path
	}
	for i, p := range parts {
		for k, v := range vars {
			p = strings.ReplaceAll(p, k, v)
		}
		parts[i] = p
	}

	out, err := execute(ctx, parts)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return out, nil
	}
	out, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return out, nil
}

// execute runs one command and returns its stdout. stderr is folded into the
// error.
func execute(ctx context.Context, parts []string) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrNoScreenTool
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", parts[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", parts[0], err)
	}
	return out, nil
}
