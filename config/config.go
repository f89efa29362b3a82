package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. SCRIPTVAULT_STORAGE_TYPE.
	EnvPrefix = "SCRIPTVAULT"

	// EnvHome overrides the home directory.
	EnvHome = "SCRIPTVAULT_HOME"

	// EnvCI enables unattended mode when present, whatever its value.
	EnvCI = "SCRIPTVAULT_CI"

	// FileName is the config file inside the home directory.
	FileName = "config.yaml"

	defaultHomeDir = ".scriptvault"
)

// Config holds the resolved configuration of one invocation.
type Config struct {
	Home string
	File string

	Username         string
	ConfirmBeforeRun bool
	CI               bool
	ScratchDir       string

	Storage storage.Config
	History HistoryConfig
	Log     LogConfig
	Server  ServerConfig
}

// HistoryConfig holds the execution history location.
type HistoryConfig struct {
	Path string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
	File  string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResolveHome picks the home directory: the flag value, then SCRIPTVAULT_HOME, then ~/.scriptvault.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvHome); env != "" {
		return filepath.Abs(env)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(userHome, defaultHomeDir), nil
}

// Load reads <home>/.env and <home>/config.yaml, both optional, and applies
// SCRIPTVAULT_* environment overrides on top of the defaults.
func Load(home string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	configFile := filepath.Join(home, FileName)
	v.SetConfigFile(configFile)

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, home)

	usedFile := ""
	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		usedFile = configFile
	}

	_, ciEnv := os.LookupEnv(EnvCI)

	cfg := &Config{
		Home:             home,
		File:             usedFile,
		Username:         v.GetString("username"),
		ConfirmBeforeRun: v.GetBool("confirm_before_run"),
		CI:               v.GetBool("ci") || ciEnv,
		ScratchDir:       v.GetString("scratch_dir"),
		Storage: storage.Config{
			Kind:            storage.Kind(strings.ToLower(v.GetString("storage.type"))),
			Path:            v.GetString("storage.path"),
			DSN:             v.GetString("storage.dsn"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			KeyID:           v.GetString("storage.key_id"),
			Secret:          v.GetString("storage.secret"),
			ProjectID:       v.GetString("storage.project_id"),
			CredentialsPath: v.GetString("storage.credentials_path"),
			AccountName:     v.GetString("storage.account_name"),
			Container:       v.GetString("storage.container"),
		},
		History: HistoryConfig{
			Path: v.GetString("history.path"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("username", "")
	v.SetDefault("confirm_before_run", true)
	v.SetDefault("ci", false)
	v.SetDefault("scratch_dir", filepath.Join(os.TempDir(), "scriptvault"))

	v.SetDefault("storage.type", string(storage.KindLocal))
	v.SetDefault("storage.path", filepath.Join(home, "vault"))
	v.SetDefault("storage.dsn", "")
	for _, key := range []string{"bucket", "region", "endpoint", "key_id", "secret",
		"project_id", "credentials_path", "account_name", "container"} {
		v.SetDefault("storage."+key, "")
	}

	v.SetDefault("history.path", filepath.Join(home, "history.jsonl"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(home, "logs", "scriptvault.log"))

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7878)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
}

// Executor returns the identity recorded as author and executor: the configured
// username, then $USER, then $USERNAME, then script.DefaultAuthor.
func (c *Config) Executor() string {
	for _, candidate := range []string{c.Username, os.Getenv("USER"), os.Getenv("USERNAME")} {
		if candidate != "" {
			return candidate
		}
	}
	return script.DefaultAuthor
}

// Template is written by WriteTemplate.
const Template = `# scriptvault configuration
username: ""
confirm_before_run: true

storage:
  # local, sqlite, mysql or postgres
  type: local
  # path: /path/to/vault
  # dsn: /path/to/vault.db

log:
  level: info

server:
  host: 127.0.0.1
  port: 7878
`

// WriteTemplate creates <home>/config.yaml unless it exists. It reports whether a file was written.
func WriteTemplate(home string) (string, bool, error) {
	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return path, false, fmt.Errorf("failed to create home directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o600); err != nil {
		return path, false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}
