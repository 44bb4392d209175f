package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("space version %s, commit %s, built at %s", version, commit, date)
}

const (
	// EnvPrefix is the prefix of every environment variable read by Load
	EnvPrefix = "SPACE"

	// DefaultBindingEnv names the environment variable that selects the remote KV backend
	DefaultBindingEnv = "KV"

	// SessionPasswordEnv is the environment variable holding the session signing password
	SessionPasswordEnv = "SPACE_SESSION_PASSWORD"

	// MinSessionPasswordLength is the length of a generated session password
	MinSessionPasswordLength = 32
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	OAuth   OAuthConfig   `mapstructure:"oauth"`
	Storage StorageConfig `mapstructure:"storage"`
	Session SessionConfig `mapstructure:"session"`

	// GeneratedSessionPassword is set when Load had to invent a session password
	GeneratedSessionPassword bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	Timeout  string `mapstructure:"timeout"`
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	HomePath string `mapstructure:"home_path"` // landing page after login, success or not
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// OAuthConfig holds the GitHub OAuth application settings.
// Empty endpoint URLs fall back to GitHub's public endpoints.
type OAuthConfig struct {
	ClientID      string   `mapstructure:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret"`
	Scopes        []string `mapstructure:"scopes"`
	EmailRequired bool     `mapstructure:"email_required"`
	AuthorizeURL  string   `mapstructure:"authorize_url"`
	TokenURL      string   `mapstructure:"token_url"`
	APIBaseURL    string   `mapstructure:"api_base_url"`
}

// MissingCredentials reports whether the client id or secret is empty.
func (c OAuthConfig) MissingCredentials() bool {
	return c.ClientID == "" || c.ClientSecret == ""
}

type StorageDriver string

const (
	StorageDriverFS     StorageDriver = "fs"
	StorageDriverBolt   StorageDriver = "bolt"
	StorageDriverMemory StorageDriver = "memory"
	StorageDriverRedis  StorageDriver = "redis"
)

type StorageConfig struct {
	Driver     StorageDriver `mapstructure:"driver"`      // local backend: fs, bolt or memory
	Dir        string        `mapstructure:"dir"`         // root directory of the local backend
	BindingEnv string        `mapstructure:"binding_env"` // env var whose presence selects redis
	Binding    string        `mapstructure:"binding"`     // redis URL, resolved from BindingEnv by Load
}

type SessionConfig struct {
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
	MaxAge   string `mapstructure:"max_age"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file")
	fs.String("server.host", "", "Address to listen on")
	fs.Int("server.port", 0, "Port to listen on")
	fs.String("storage.driver", "", "Local storage driver (fs|bolt|memory)")
	fs.String("storage.dir", "", "Root directory of the local storage driver")
	fs.String("logging.level", "", "Log level")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.name", "space")
	v.SetDefault("server.version", version)
	v.SetDefault("server.home_path", "/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.scopes", []string{})
	v.SetDefault("oauth.email_required", false)
	v.SetDefault("oauth.authorize_url", "")
	v.SetDefault("oauth.token_url", "")
	v.SetDefault("oauth.api_base_url", "")

	v.SetDefault("storage.driver", string(StorageDriverFS))
	v.SetDefault("storage.dir", "./data/kv")
	v.SetDefault("storage.binding_env", DefaultBindingEnv)
	v.SetDefault("storage.binding", "")

	v.SetDefault("session.name", "space-session")
	v.SetDefault("session.password", "")
	v.SetDefault("session.max_age", "168h")
}

// Load reads the configuration from defaults, an optional config file,
// SPACE_* environment variables and the given flags (may be nil).
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/space")
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine, defaults and env carry the day
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.Storage.Binding == "" && cfg.Storage.BindingEnv != "" {
		cfg.Storage.Binding = os.Getenv(cfg.Storage.BindingEnv)
	}

	if cfg.Session.Password == "" {
		password, err := randomPassword(MinSessionPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session password: %w", err)
		}
		cfg.Session.Password = password
		cfg.GeneratedSessionPassword = true
	}

	return &cfg, nil
}

func randomPassword(n int) (string, error) {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
