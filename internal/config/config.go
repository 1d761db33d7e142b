package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	User    UserConfig
	UI      UIConfig
	Journal JournalConfig
	Log     LogConfig
}

// ServerConfig holds the chat server address and transport tuning
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	SendBuffer  int           `mapstructure:"send_buffer"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// UserConfig holds the identity pre-filled at the connect prompt
type UserConfig struct {
	Name string `mapstructure:"name"`
}

// UI modes.
const (
	ModeTUI   = "tui"
	ModePlain = "plain"
)

// UIConfig selects the front end
type UIConfig struct {
	Mode string `mapstructure:"mode"`
}

// JournalConfig holds the audit journal location; empty keeps it in memory
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.dial_timeout", 5*time.Second)
	v.SetDefault("server.send_buffer", 64)
	v.SetDefault("user.name", "")
	v.SetDefault("ui.mode", ModeTUI)
	v.SetDefault("journal.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load loads the configuration from config.yaml (or the file named by
// CONFIG_PATH) and CHAT_* environment variables, using the global viper.
func Load() (*Config, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith loads the configuration into v, which may already carry bound
// command-line flags. A missing config file is not an error.
func LoadWith(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	switch config.UI.Mode {
	case ModeTUI, ModePlain:
	default:
		return nil, fmt.Errorf("unknown ui mode %q", config.UI.Mode)
	}

	return &config, nil
}
