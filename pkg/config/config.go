package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Email account
	EmailAddress  string
	EmailPassword string
	Provider      string // registry key, or custom with explicit servers

	// IMAP settings
	IMAPServer string
	IMAPPort   int

	// SMTP settings
	SMTPServer string
	SMTPPort   int

	// Local data
	DataDir   string
	SyncLimit int

	// Derived paths
	StorePath     string
	AttachmentDir string
	MetadataFile  string
}

// fileConfig is the optional YAML config file shape. The app password
// never lives here; it comes from the environment or the keyring.
type fileConfig struct {
	EmailAddress string `yaml:"email_address"`
	Provider     string `yaml:"provider"`
	IMAPServer   string `yaml:"imap_server"`
	IMAPPort     int    `yaml:"imap_port"`
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	DataDir      string `yaml:"data_dir"`
	SyncLimit    int    `yaml:"sync_limit"`
}

// defaultDataDir returns ~/.pocketmail, falling back to a relative
// directory when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pocketmail"
	}
	return filepath.Join(home, ".pocketmail")
}

// configFilePath returns the optional config file location,
// overridable with EMAIL_CONFIG.
func configFilePath() string {
	if path := os.Getenv("EMAIL_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// readFileConfig loads the optional config file. A missing file is
// fine; a malformed one is an error.
func readFileConfig() (fileConfig, error) {
	var fc fileConfig

	data, err := os.ReadFile(configFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

// LoadConfig builds the configuration from defaults, the optional
// config file, and environment variables, in that order of
// precedence. Server settings for known providers come from the
// registry unless explicitly overridden.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider:  "gmail",
		SyncLimit: 20,
		DataDir:   defaultDataDir(),
	}

	fileCfg, err := readFileConfig()
	if err != nil {
		return nil, err
	}
	if fileCfg.EmailAddress != "" {
		cfg.EmailAddress = fileCfg.EmailAddress
	}
	if fileCfg.Provider != "" {
		cfg.Provider = fileCfg.Provider
	}
	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if fileCfg.SyncLimit > 0 {
		cfg.SyncLimit = fileCfg.SyncLimit
	}

	// Environment wins over the config file
	if addr := os.Getenv("EMAIL_ADDRESS"); addr != "" {
		cfg.EmailAddress = addr
	}
	cfg.EmailPassword = os.Getenv("EMAIL_APP_PASSWORD")
	if provider := os.Getenv("EMAIL_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	if dir := os.Getenv("EMAIL_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if limit := os.Getenv("EMAIL_SYNC_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_SYNC_LIMIT: %w", err)
		}
		cfg.SyncLimit = n
	}

	// Auto-configure servers for known providers
	if p, ok := LookupProvider(cfg.Provider); ok {
		cfg.IMAPServer = p.IMAPServer
		cfg.IMAPPort = p.IMAPPort
		cfg.SMTPServer = p.SMTPServer
		cfg.SMTPPort = p.SMTPPort
	}

	// Override with explicit settings if provided
	if fileCfg.IMAPServer != "" {
		cfg.IMAPServer = fileCfg.IMAPServer
	}
	if fileCfg.IMAPPort != 0 {
		cfg.IMAPPort = fileCfg.IMAPPort
	}
	if fileCfg.SMTPServer != "" {
		cfg.SMTPServer = fileCfg.SMTPServer
	}
	if fileCfg.SMTPPort != 0 {
		cfg.SMTPPort = fileCfg.SMTPPort
	}
	if server := os.Getenv("EMAIL_IMAP_SERVER"); server != "" {
		cfg.IMAPServer = server
	}
	if port := os.Getenv("EMAIL_IMAP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_IMAP_PORT: %w", err)
		}
		cfg.IMAPPort = p
	}
	if server := os.Getenv("EMAIL_SMTP_SERVER"); server != "" {
		cfg.SMTPServer = server
	}
	if port := os.Getenv("EMAIL_SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = p
	}

	if cfg.SyncLimit <= 0 {
		return nil, fmt.Errorf("invalid EMAIL_SYNC_LIMIT: must be positive")
	}
	if _, ok := LookupProvider(cfg.Provider); !ok && cfg.IMAPServer == "" && cfg.SMTPServer == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if cfg.IMAPServer == "" {
		return nil, fmt.Errorf("EMAIL_IMAP_SERVER is required")
	}
	if cfg.IMAPPort == 0 {
		return nil, fmt.Errorf("EMAIL_IMAP_PORT is required")
	}
	if cfg.SMTPServer == "" {
		return nil, fmt.Errorf("EMAIL_SMTP_SERVER is required")
	}
	if cfg.SMTPPort == 0 {
		return nil, fmt.Errorf("EMAIL_SMTP_PORT is required")
	}

	// Setup derived paths
	cfg.StorePath = filepath.Join(cfg.DataDir, "mail_store.json")
	cfg.AttachmentDir = filepath.Join(cfg.DataDir, "attachments")
	cfg.MetadataFile = filepath.Join(cfg.DataDir, "account.yaml")

	for _, dir := range []string{cfg.DataDir, cfg.AttachmentDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// IsConfigured checks if account credentials are available
func (c *Config) IsConfigured() bool {
	return c.EmailAddress != "" && c.EmailPassword != ""
}

// ValidateForOperation checks if configuration is valid for network operations
func (c *Config) ValidateForOperation() error {
	if c.EmailAddress == "" {
		return fmt.Errorf("email not configured: EMAIL_ADDRESS is required")
	}
	if c.EmailPassword == "" {
		return fmt.Errorf("email not configured: EMAIL_APP_PASSWORD is required")
	}
	if c.IMAPServer == "" || c.IMAPPort == 0 {
		return fmt.Errorf("IMAP server configuration is incomplete")
	}
	if c.SMTPServer == "" || c.SMTPPort == 0 {
		return fmt.Errorf("SMTP server configuration is incomplete")
	}
	return nil
}
