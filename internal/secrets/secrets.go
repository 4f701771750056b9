package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups roomivo's secrets in the OS keychain.
const KeyringService = "roomivo"

// ErrNoSecret is returned when neither config nor keyring holds a secret.
var ErrNoSecret = errors.New("secret not found")

// Get returns the secret stored under account.
func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring %s: %w", account, ErrNoSecret)
	}
	if err != nil {
		return "", fmt.Errorf("keyring %s: %w", account, err)
	}
	return v, nil
}

// Set stores secret under account.
func Set(account, secret string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, secret)
}

// Delete removes the secret stored under account.
func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// Resolve prefers an explicit value and falls back to the keyring account.
// An empty account with an empty value yields "" and no error.
func Resolve(value, account string) (string, error) {
	if value != "" || account == "" {
		return value, nil
	}
	return Get(account)
}
