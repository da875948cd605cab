package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "pocketmail"

// openKeyring returns a configured keyring instance. The file backend
// is the fallback on systems without a native secret service.
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
		FileDir:                  "~/.pocketmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("pocketmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves the stored app password for an account address.
func Get(address string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(address)
	if err != nil {
		return "", fmt.Errorf("getting password for %q: %w", address, err)
	}

	return string(item.Data), nil
}

// Set stores the app password for an account address.
func Set(address, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  address,
		Data: []byte(password),
	})
	if err != nil {
		return fmt.Errorf("saving password for %q: %w", address, err)
	}

	return nil
}

// Delete removes the stored app password for an account address.
func Delete(address string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(address)
	if err != nil {
		return fmt.Errorf("deleting password for %q: %w", address, err)
	}

	return nil
}
