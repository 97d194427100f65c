package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a modes override file.
//
//	follow_up: "..."
//	replace: false
//	modes:
//	  - name: Interview
//	    image_prompt: "..."
//	    text_prompt: "..."
type File struct {
	FollowUp string `yaml:"follow_up"`
	Replace  bool   `yaml:"replace"`
	Modes    []Mode `yaml:"modes"`
}

// LoadRegistry builds a registry from the built-in modes merged with the YAML file at path.
// A missing file yields the default registry. Modes with a known name override the
// built-in entry in place; new names are appended. With replace: true the built-ins are dropped.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read modes: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse modes: %w", err)
	}

	return NewRegistry(merge(DefaultModes(), f), f.FollowUp)
}

func merge(base []Mode, f File) []Mode {
	if f.Replace {
		return f.Modes
	}
	out := append([]Mode(nil), base...)
	pos := make(map[string]int, len(out))
	for i, m := range out {
		pos[m.Name] = i
	}
	for _, m := range f.Modes {
		if i, ok := pos[m.Name]; ok {
			if m.ImagePrompt != "" {
				out[i].ImagePrompt = m.ImagePrompt
			}
			if m.TextPrompt != "" {
				out[i].TextPrompt = m.TextPrompt
			}
			continue
		}
		pos[m.Name] = len(out)
		out = append(out, m)
	}
	return out
}
