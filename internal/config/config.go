package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr        string        `mapstructure:"addr"`
		LogLevel    string        `mapstructure:"log_level"`
		LogFile     string        `mapstructure:"log_file"`
		PageTimeout time.Duration `mapstructure:"page_timeout"`
	} `mapstructure:"server"`

	Theme struct {
		Root      string `mapstructure:"root"`
		PortalURL string `mapstructure:"portal_url"`
	} `mapstructure:"theme"`

	Export struct {
		Scheme   string        `mapstructure:"scheme"`
		Path     string        `mapstructure:"path"`
		Timeout  time.Duration `mapstructure:"timeout"`
		MaxBytes int64         `mapstructure:"max_bytes"`
	} `mapstructure:"export"`

	Cache struct {
		Backend       string        `mapstructure:"backend"` // none | memory | redis
		TTL           time.Duration `mapstructure:"ttl"`
		MaxEntries    int           `mapstructure:"max_entries"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
		Redis         struct {
			Addr     string `mapstructure:"addr"`
			DB       int    `mapstructure:"db"`
			Password string `mapstructure:"password"`
			Prefix   string `mapstructure:"prefix"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
}

func Load() Config {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	_ = v.ReadInConfig() // optional; env can fully configure

	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// FromViper decodes cfg from an already populated viper instance. APP_ prefixed
// environment variables override file values, e.g. APP_EXPORT_TIMEOUT=2s.
func FromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.page_timeout", "10s")
	v.SetDefault("theme.root", "r-forge.r-project.org/themes/rforge/")
	v.SetDefault("theme.portal_url", "http://r-forge.r-project.org/")
	v.SetDefault("export.scheme", "http")
	v.SetDefault("export.path", "/export/projtitl.php")
	v.SetDefault("export.timeout", "5s")
	v.SetDefault("export.max_bytes", 1<<20)
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.max_entries", 4096)
	v.SetDefault("cache.sweep_interval", "1m")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.prefix", "projectpage:")
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PageTimeout <= 0 {
		c.Server.PageTimeout = 10 * time.Second
	}
	if c.Export.Scheme == "" {
		c.Export.Scheme = "http"
	}
	if c.Export.Path == "" {
		c.Export.Path = "/export/projtitl.php"
	}
	if c.Export.Timeout <= 0 {
		c.Export.Timeout = 5 * time.Second
	}
	// the fetch must finish before the page deadline fires
	if limit := c.Server.PageTimeout - c.Server.PageTimeout/10; c.Export.Timeout > limit {
		c.Export.Timeout = limit
	}
	if c.Export.MaxBytes <= 0 {
		c.Export.MaxBytes = 1 << 20
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 4096
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = time.Minute
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		c.Cache.Backend = "none"
	}
}

// CacheEnabled reports whether fetched snippets should be cached at all.
func (c Config) CacheEnabled() bool {
	return c.Cache.Backend == "memory" || c.Cache.Backend == "redis"
}
