package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// configEnvKeys are all environment variables LoadConfig reads.
var configEnvKeys = []string{
	"EMAIL_ADDRESS",
	"EMAIL_APP_PASSWORD",
	"EMAIL_PROVIDER",
	"EMAIL_IMAP_SERVER",
	"EMAIL_IMAP_PORT",
	"EMAIL_SMTP_SERVER",
	"EMAIL_SMTP_PORT",
	"EMAIL_DATA_DIR",
	"EMAIL_SYNC_LIMIT",
	"EMAIL_CONFIG",
}

// resetConfigEnv clears every config variable and points the config
// file and data dir at temp locations so tests never touch the real
// home directory. t.Setenv restores the original values afterwards.
func resetConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv("EMAIL_CONFIG", filepath.Join(t.TempDir(), "no-config.yaml"))
	t.Setenv("EMAIL_DATA_DIR", t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	resetConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Provider != "gmail" {
		t.Errorf("Expected default provider gmail, got %s", cfg.Provider)
	}
	if cfg.IMAPServer != "imap.gmail.com" || cfg.IMAPPort != 993 {
		t.Errorf("Expected Gmail IMAP settings, got %s:%d", cfg.IMAPServer, cfg.IMAPPort)
	}
	if cfg.SMTPServer != "smtp.gmail.com" || cfg.SMTPPort != 587 {
		t.Errorf("Expected Gmail SMTP settings, got %s:%d", cfg.SMTPServer, cfg.SMTPPort)
	}
	if cfg.SyncLimit != 20 {
		t.Errorf("Expected default sync limit 20, got %d", cfg.SyncLimit)
	}

	if cfg.StorePath != filepath.Join(cfg.DataDir, "mail_store.json") {
		t.Errorf("Expected store path under data dir, got %s", cfg.StorePath)
	}
	if cfg.MetadataFile != filepath.Join(cfg.DataDir, "account.yaml") {
		t.Errorf("Expected metadata file under data dir, got %s", cfg.MetadataFile)
	}
	if _, err := os.Stat(cfg.AttachmentDir); err != nil {
		t.Errorf("Expected attachment dir to be created: %v", err)
	}
}

func TestLoadConfigKnownProvider(t *testing.T) {
	resetConfigEnv(t)
	t.Setenv("EMAIL_PROVIDER", "qq")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IMAPServer != "imap.qq.com" || cfg.IMAPPort != 993 {
		t.Errorf("Expected QQ IMAP settings, got %s:%d", cfg.IMAPServer, cfg.IMAPPort)
	}
	if cfg.SMTPServer != "smtp.qq.com" || cfg.SMTPPort != 465 {
		t.Errorf("Expected QQ SMTP settings, got %s:%d", cfg.SMTPServer, cfg.SMTPPort)
	}
}

func TestLoadConfigExplicitServerOverrides(t *testing.T) {
	resetConfigEnv(t)
	t.Setenv("EMAIL_PROVIDER", "gmail")
	t.Setenv("EMAIL_IMAP_SERVER", "mail.internal.example")
	t.Setenv("EMAIL_IMAP_PORT", "1993")
	t.Setenv("EMAIL_SMTP_SERVER", "out.internal.example")
	t.Setenv("EMAIL_SMTP_PORT", "1465")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IMAPServer != "mail.internal.example" || cfg.IMAPPort != 1993 {
		t.Errorf("Expected IMAP override, got %s:%d", cfg.IMAPServer, cfg.IMAPPort)
	}
	if cfg.SMTPServer != "out.internal.example" || cfg.SMTPPort != 1465 {
		t.Errorf("Expected SMTP override, got %s:%d", cfg.SMTPServer, cfg.SMTPPort)
	}
}

func TestLoadConfigUnknownProvider(t *testing.T) {
	resetConfigEnv(t)
	t.Setenv("EMAIL_PROVIDER", "bogusmail")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}

	// An unknown provider is fine when servers are given explicitly
	t.Setenv("EMAIL_IMAP_SERVER", "imap.corp.example")
	t.Setenv("EMAIL_IMAP_PORT", "993")
	t.Setenv("EMAIL_SMTP_SERVER", "smtp.corp.example")
	t.Setenv("EMAIL_SMTP_PORT", "465")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config with explicit servers: %v", err)
	}
	if cfg.Provider != "bogusmail" || cfg.IMAPServer != "imap.corp.example" {
		t.Errorf("Expected custom provider settings, got %s / %s", cfg.Provider, cfg.IMAPServer)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	resetConfigEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "email_address: file@example.com\nprovider: outlook\nsync_limit: 5\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EMAIL_CONFIG", configPath)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.EmailAddress != "file@example.com" {
		t.Errorf("Expected address from file, got %s", cfg.EmailAddress)
	}
	if cfg.SMTPServer != "smtp.office365.com" || cfg.SMTPPort != 587 {
		t.Errorf("Expected Outlook SMTP settings, got %s:%d", cfg.SMTPServer, cfg.SMTPPort)
	}
	if cfg.SyncLimit != 5 {
		t.Errorf("Expected sync limit 5 from file, got %d", cfg.SyncLimit)
	}

	// Environment wins over the file
	t.Setenv("EMAIL_PROVIDER", "qq")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Provider != "qq" || cfg.IMAPServer != "imap.qq.com" {
		t.Errorf("Expected environment to override file, got %s / %s", cfg.Provider, cfg.IMAPServer)
	}
}

func TestLoadConfigSyncLimit(t *testing.T) {
	resetConfigEnv(t)

	t.Setenv("EMAIL_SYNC_LIMIT", "7")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SyncLimit != 7 {
		t.Errorf("Expected sync limit 7, got %d", cfg.SyncLimit)
	}

	t.Setenv("EMAIL_SYNC_LIMIT", "not-a-number")
	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for non-numeric sync limit")
	}

	t.Setenv("EMAIL_SYNC_LIMIT", "0")
	_, err = LoadConfig()
	if err == nil {
		t.Fatal("Expected error for zero sync limit")
	}
	if !strings.Contains(err.Error(), "EMAIL_SYNC_LIMIT") {
		t.Errorf("Expected sync limit in error, got %v", err)
	}
}

func TestValidateForOperation(t *testing.T) {
	cfg := &Config{
		IMAPServer: "imap.gmail.com", IMAPPort: 993,
		SMTPServer: "smtp.gmail.com", SMTPPort: 587,
	}

	err := cfg.ValidateForOperation()
	if err == nil || !strings.Contains(err.Error(), "EMAIL_ADDRESS") {
		t.Errorf("Expected missing address error, got %v", err)
	}

	cfg.EmailAddress = "user@gmail.com"
	err = cfg.ValidateForOperation()
	if err == nil || !strings.Contains(err.Error(), "EMAIL_APP_PASSWORD") {
		t.Errorf("Expected missing password error, got %v", err)
	}
	if cfg.IsConfigured() {
		t.Error("Expected IsConfigured to be false without password")
	}

	cfg.EmailPassword = "app-password"
	if err := cfg.ValidateForOperation(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
	if !cfg.IsConfigured() {
		t.Error("Expected IsConfigured to be true")
	}

	cfg.IMAPServer = ""
	err = cfg.ValidateForOperation()
	if err == nil || !strings.Contains(err.Error(), "IMAP") {
		t.Errorf("Expected IMAP error, got %v", err)
	}
}
