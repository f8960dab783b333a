package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default values applied when the config file or environment leaves a
// setting unset. The API base URL points at the public Dicoding story
// service the app was built against.
const (
	DefaultAPIBaseURL = "https://story-api.dicoding.dev/v1"
	DefaultPageSize   = 10
	DefaultBindAddr   = "127.0.0.1:8520"

	defaultTimeout = 15 * time.Second

	configName = "ceritakita"
	envPrefix  = "CERITAKITA"
)

// APISettings configures the remote story service client.
type APISettings struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout bounds every HTTP request made by the gateway.
	Timeout Duration `mapstructure:"timeout" yaml:"timeout"`
	// PageSize is the page size requested when listing stories.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
	// IncludeLocation asks the server to return only stories with coordinates.
	IncludeLocation bool `mapstructure:"include_location" yaml:"include_location"`
}

// StorageSettings configures the local offline story database.
type StorageSettings struct {
	// Path is the sqlite database file. Empty selects a file under the
	// user config directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// UISettings configures the local web interface.
type UISettings struct {
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`
}

// PushSettings configures web push subscription management.
type PushSettings struct {
	// VAPIDPublicKey identifies the application server to the push service.
	VAPIDPublicKey string `mapstructure:"vapid_public_key" yaml:"vapid_public_key"`
}

// Settings is the full application configuration.
type Settings struct {
	API     APISettings     `mapstructure:"api" yaml:"api"`
	Storage StorageSettings `mapstructure:"storage" yaml:"storage"`
	UI      UISettings      `mapstructure:"ui" yaml:"ui"`
	Push    PushSettings    `mapstructure:"push" yaml:"push"`
}

// ConfigDir returns the directory holding the config file, credential
// file and default database, creating it if needed.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	dir := filepath.Join(base, configName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// Load reads settings from the config file (explicit path, current
// directory, or the user config directory) and the environment.
// A missing config file is not an error; defaults apply.
func Load(configFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", defaultTimeout.String())
	v.SetDefault("api.page_size", DefaultPageSize)
	v.SetDefault("api.include_location", false)
	v.SetDefault("storage.path", "")
	v.SetDefault("ui.bind_address", DefaultBindAddr)
	v.SetDefault("push.vapid_public_key", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if settings.Storage.Path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		settings.Storage.Path = filepath.Join(dir, "stories.db")
	}
	if settings.API.PageSize <= 0 {
		settings.API.PageSize = DefaultPageSize
	}
	if settings.API.Timeout <= 0 {
		settings.API.Timeout = Duration(defaultTimeout)
	}

	return &settings, nil
}
