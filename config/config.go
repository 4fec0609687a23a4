package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // burner-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Room struct {
	TTLSeconds    int   `yaml:"ttlSeconds"`    // lifetime of every room
	Capacity      int64 `yaml:"capacity"`      // max distinct admitted tokens
	MaxMessageLen int   `yaml:"maxMessageLen"` // bytes of message text
	MaxSenderLen  int   `yaml:"maxSenderLen"`  // bytes of display name
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	SecureCookies  bool     `yaml:"secureCookies"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
	Redis   Redis   `yaml:"redis"`
	Room    Room    `yaml:"room"`
	CORS    CORS    `yaml:"cors"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Room.TTLSeconds <= 0 {
		c.Room.TTLSeconds = 600
	}
	if c.Room.Capacity <= 0 {
		c.Room.Capacity = 5
	}
	if c.Room.MaxMessageLen <= 0 {
		c.Room.MaxMessageLen = 2000
	}
	if c.Room.MaxSenderLen <= 0 {
		c.Room.MaxSenderLen = 32
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "burner-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}
