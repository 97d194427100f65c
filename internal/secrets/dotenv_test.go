package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
)

func TestSetEntry(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		key     string
		value   string
		want    []string
	}{
		{
			name:  "new file",
			key:   "ANTHROPIC_API_KEY",
			value: "sk-123",
			want:  []string{"ANTHROPIC_API_KEY=sk-123"},
		},
		{
			name:    "replace keeps comments",
			initial: "# keys\nFOO=bar\nBAZ=qux\n",
			key:     "FOO",
			value:   "updated",
			want:    []string{"# keys", "FOO=updated", "BAZ=qux"},
		},
		{
			name:    "append",
			initial: "EXISTING=value\n",
			key:     "NEW_KEY",
			value:   "new",
			want:    []string{"EXISTING=value", "NEW_KEY=new"},
		},
		{
			name:    "export prefix",
			initial: "export FOO=bar\n",
			key:     "FOO",
			value:   "baz",
			want:    []string{"FOO=baz"},
		},
		{
			name:  "quotes spaces",
			key:   "TOKEN",
			value: "value with spaces",
			want:  []string{`TOKEN="value with spaces"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			if tt.initial != "" {
				if err := os.WriteFile(path, []byte(tt.initial), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			if err := SetEntry(path, tt.key, tt.value); err != nil {
				t.Fatalf("SetEntry: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetEntry_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".env")

	if err := SetEntry(path, "KEY", "val"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestSetEntry_SealedValueSurvivesDotenv(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, ".age-key")
	envPath := filepath.Join(dir, ".env")

	sealed, err := Seal("sk-ant-xyz", keyPath)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := SetEntry(envPath, "ANTHROPIC_API_KEY", sealed); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	env, err := godotenv.Read(envPath)
	if err != nil {
		t.Fatalf("godotenv.Read: %v", err)
	}
	got, err := Reveal(env["ANTHROPIC_API_KEY"], keyPath)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if got != "sk-ant-xyz" {
		t.Errorf("Reveal = %q", got)
	}
}
