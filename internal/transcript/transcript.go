// Package transcript writes the rendered output pane to a markdown file.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// ErrNothingToSave is returned when the transcript body is blank.
var ErrNothingToSave = errors.New("nothing to save")

// FileName returns the artifact name for the given time.
func FileName(now time.Time) string {
	return "interview_" + now.Format("20060102_150405") + ".md"
}

// Render formats the document: heading, mode line, separator, body.
func Render(mode, body string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Interview Notes - %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Mode**: %s\n\n---\n\n", mode)
	b.WriteString(body)
	return b.String()
}

// Save writes the transcript into dir and returns the file path. An empty dir
// means the user's Desktop.
func Save(dir, mode, body string, now time.Time) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrNothingToSave
	}
	if dir == "" {
		dir = xdg.UserDirs.Desktop
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, []byte(Render(mode, body, now)), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
