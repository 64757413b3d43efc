package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "email-agent"

// KeyGroqAPIKey is the keyring entry holding the completion API key.
const KeyGroqAPIKey = "groq-api-key"

// EnvGroqAPIKey overrides the keyring when set.
const EnvGroqAPIKey = "GROQ_API_KEY"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/email-agent/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("email-agent-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// APIKey resolves the completion API key: the environment variable wins,
// then the system keyring. An empty string means no key is configured
// and the agent runs in browse-only mode.
func APIKey() string {
	if key := os.Getenv(EnvGroqAPIKey); key != "" {
		return key
	}

	key, err := Get(KeyGroqAPIKey)
	if err != nil {
		return ""
	}
	return key
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
