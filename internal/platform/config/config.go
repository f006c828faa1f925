package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pet-sharing/internal/platform/securetoken"

	"github.com/spf13/viper"
)

// Config de la aplicación. Se amplía según crezca el servicio.
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`   // 0.0.0.0
		HTTPPort string `mapstructure:"http_port"` // 8080
	} `mapstructure:"server"`

	Database struct {
		DSN string `mapstructure:"dsn"` // vacío => repos in-memory (modo dev)
	} `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`  // debug|info|warn|error
		Format string `mapstructure:"format"` // text|json
	} `mapstructure:"logs"`

	Auth struct {
		Odin struct {
			BaseURL string `mapstructure:"base_url"`
			APIKey  string `mapstructure:"api_key"`
		} `mapstructure:"odin"`
	} `mapstructure:"auth"`

	Share struct {
		// PublicBaseURL es el origen donde se sirven los links públicos.
		// El token se embebe como path: <public_base_url>/share/<token>.
		PublicBaseURL string `mapstructure:"public_base_url"`
		TokenBytes    int    `mapstructure:"token_bytes"`
	} `mapstructure:"share"`
}

// Load lee config desde env (SERVER_HTTP_PORT, DATABASE_DSN, ...) y,
// opcionalmente, desde un yaml apuntado por CONFIG_FILE.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "8080")

	viper.SetDefault("database.dsn", "")

	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")

	viper.SetDefault("auth.odin.base_url", "")
	viper.SetDefault("auth.odin.api_key", "")

	viper.SetDefault("share.public_base_url", "http://localhost:8080")
	viper.SetDefault("share.token_bytes", securetoken.DefaultBytes)

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if strings.TrimSpace(c.Share.PublicBaseURL) == "" {
		return errors.New("share.public_base_url must not be empty")
	}
	if c.Share.TokenBytes < securetoken.MinBytes {
		return fmt.Errorf("share.token_bytes must be >= %d", securetoken.MinBytes)
	}
	return nil
}
