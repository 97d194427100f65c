// Package secrets keeps provider credentials encrypted at rest with age.
// Encrypted values look like ENC[age:<base64>] and may appear in the config
// file or in .env; they are decrypted only when a provider is initialized.
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/dohr-michael/sidekick/internal/config"
)

const (
	encPrefix = "ENC[age:"
	encSuffix = "]"
)

// ErrNotEncrypted is returned by Decrypt for plaintext input.
var ErrNotEncrypted = errors.New("not an encrypted value")

// KeyPath returns the default age key file: $SIDEKICK_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.DataPath(), ".age-key")
}

// GenerateIdentity creates an X25519 key pair at path with mode 0600.
// An existing file is left untouched.
func GenerateIdentity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by sidekick\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// LoadIdentity reads the first X25519 identity in path.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}

	id, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected identity type in %s", path)
	}
	return id, nil
}

// Encrypt seals plaintext for recipient and returns an ENC[age:...] value.
func Encrypt(plaintext string, recipient *age.X25519Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("age encrypt init: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt close: %w", err)
	}

	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt opens an ENC[age:...] value.
func Decrypt(value string, identity *age.X25519Identity) (string, error) {
	if !IsEncrypted(value) {
		return "", ErrNotEncrypted
	}

	encoded := value[len(encPrefix) : len(value)-len(encSuffix)]
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s is an ENC[age:...] value.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, encPrefix) && strings.HasSuffix(s, encSuffix)
}

// Reveal returns value unchanged when it is plaintext, and decrypts it with
// the identity in keyPath otherwise.
func Reveal(value, keyPath string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	id, err := LoadIdentity(keyPath)
	if err != nil {
		return "", err
	}
	return Decrypt(value, id)
}

// Seal encrypts plaintext for the identity in keyPath, creating the key on
// first use.
func Seal(plaintext, keyPath string) (string, error) {
	if err := GenerateIdentity(keyPath); err != nil {
		return "", err
	}
	id, err := LoadIdentity(keyPath)
	if err != nil {
		return "", err
	}
	return Encrypt(plaintext, id.Recipient())
}
