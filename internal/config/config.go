package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis" env-prefix:"REDIS_"`
	Search     Search `yaml:"search" env-prefix:"SEARCH_"`
}

type Redis struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Host    string        `yaml:"host" env:"HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"PORT" env-default:"6379"`
	KeyTTL  time.Duration `yaml:"key-ttl" env:"KEY_TTL" env-default:"0s"`
}

type Search struct {
	// UseSharedStore keeps solved positions in redis so that every instance reuses them.
	UseSharedStore bool `yaml:"use-shared-store" env:"USE_SHARED_STORE" env-default:"false"`
}

// Load reads the yaml file at path with environment overrides. A missing file is not an
// error: the configuration then comes from the environment and the defaults alone.
func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// SharedStore reports whether the solver should use the redis tier.
func (that *Config) SharedStore() bool {
	return that.Redis.Enabled && that.Search.UseSharedStore
}
