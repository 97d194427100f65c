// Package prompts holds the named system-prompt modes the assistant cycles through.
package prompts

import (
	"errors"
	"fmt"
)

// Mode is a named pair of system prompts, one for image requests and one for text.
type Mode struct {
	Name        string `yaml:"name"`
	ImagePrompt string `yaml:"image_prompt"`
	TextPrompt  string `yaml:"text_prompt"`
}

// Registry is an immutable, ordered set of modes plus the follow-up prompt.
type Registry struct {
	modes    []Mode
	index    map[string]int
	followUp string
}

// ErrNoModes is returned when a registry would be built without any mode.
var ErrNoModes = errors.New("prompt registry needs at least one mode")

// NewRegistry builds a registry. An empty followUp falls back to DefaultFollowUpPrompt.
func NewRegistry(modes []Mode, followUp string) (*Registry, error) {
	if len(modes) == 0 {
		return nil, ErrNoModes
	}
	if followUp == "" {
		followUp = DefaultFollowUpPrompt
	}

	r := &Registry{
		modes:    make([]Mode, 0, len(modes)),
		index:    make(map[string]int, len(modes)),
		followUp: followUp,
	}
	for _, m := range modes {
		if m.Name == "" {
			return nil, fmt.Errorf("mode without name")
		}
		if _, dup := r.index[m.Name]; dup {
			return nil, fmt.Errorf("duplicate mode %q", m.Name)
		}
		if m.TextPrompt == "" {
			m.TextPrompt = m.ImagePrompt
		}
		if m.ImagePrompt == "" {
			m.ImagePrompt = m.TextPrompt
		}
		if m.ImagePrompt == "" {
			return nil, fmt.Errorf("mode %q has no prompt", m.Name)
		}
		r.index[m.Name] = len(r.modes)
		r.modes = append(r.modes, m)
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, _ := NewRegistry(DefaultModes(), DefaultFollowUpPrompt)
	return r
}

// Names returns mode names in cycling order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.modes))
	for i, m := range r.modes {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of modes.
func (r *Registry) Len() int {
	return len(r.modes)
}

// At returns the mode at position i modulo the registry size.
func (r *Registry) At(i int) Mode {
	n := len(r.modes)
	return r.modes[((i%n)+n)%n]
}

// Get looks a mode up by name.
func (r *Registry) Get(name string) (Mode, bool) {
	i, ok := r.index[name]
	if !ok {
		return Mode{}, false
	}
	return r.modes[i], true
}

// IndexOf returns the position of name, or 0 when the name is unknown.
func (r *Registry) IndexOf(name string) int {
	return r.index[name]
}

// Next returns the mode following name in the cyclic order.
// Unknown names restart the cycle at the first mode.
func (r *Registry) Next(name string) Mode {
	i, ok := r.index[name]
	if !ok {
		return r.modes[0]
	}
	return r.modes[(i+1)%len(r.modes)]
}

// FollowUp returns the follow-up system prompt.
func (r *Registry) FollowUp() string {
	return r.followUp
}
