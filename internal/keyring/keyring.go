package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/dayring/internal/constants"
)

var (
	// ErrNotFound is returned when the secret is not in the keyring
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func set(user, what, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetToken returns the bearer token the device presents to the backend.
func GetToken() (string, error) {
	return get(constants.KeyringTokenUser)
}

func SetToken(token string) error {
	return set(constants.KeyringTokenUser, "API token", token)
}

func DeleteToken() error {
	return del(constants.KeyringTokenUser, "API token")
}

// GetConnectionString returns the backend's password-less Postgres
// connection string.
func GetConnectionString() (string, error) {
	return get(constants.KeyringConnectionUser)
}

func SetConnectionString(connStr string) error {
	return set(constants.KeyringConnectionUser, "connection string", connStr)
}

func DeleteConnectionString() error {
	return del(constants.KeyringConnectionUser, "connection string")
}

// IsAvailable is a best-effort probe of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
