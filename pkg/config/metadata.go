package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AccountMetadata is the persisted record of the synced account.
type AccountMetadata struct {
	EmailAddress string `yaml:"email_address"`
	Provider     string `yaml:"provider"`

	// Sync tracking
	LastSyncAt    time.Time `yaml:"last_sync_at"`
	LastSyncAdded int       `yaml:"last_sync_added"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// WriteAccountMetadata records a completed sync for the account.
func WriteAccountMetadata(path, emailAddress, provider string, added int) error {
	metadata := AccountMetadata{
		EmailAddress:  emailAddress,
		Provider:      provider,
		LastSyncAt:    time.Now(),
		LastSyncAdded: added,
		UpdatedAt:     time.Now(),
	}

	// Preserve CreatedAt across rewrites
	if _, err := os.Stat(path); os.IsNotExist(err) {
		metadata.CreatedAt = time.Now()
	} else if err == nil {
		existing, err := ReadAccountMetadata(path)
		if err == nil && !existing.CreatedAt.IsZero() {
			metadata.CreatedAt = existing.CreatedAt
		} else {
			metadata.CreatedAt = time.Now()
		}
	} else {
		return fmt.Errorf("failed to check metadata file: %w", err)
	}

	data, err := yaml.Marshal(&metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// ReadAccountMetadata reads the account record from disk.
func ReadAccountMetadata(path string) (*AccountMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("metadata file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata AccountMetadata
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &metadata, nil
}
