package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/stacklineage/pkg/cache"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// envPrefix prefixes every environment override. A double underscore
// separates nesting levels: STACKLINEAGE_CACHE__REDIS_URL sets cache.redis_url.
const envPrefix = "STACKLINEAGE_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{appName + ".yaml", appName + ".yml"}

// Config holds all CLI configuration.
type Config struct {
	View   ViewConfig   `koanf:"view"`
	Cache  CacheConfig  `koanf:"cache"`
	Server ServerConfig `koanf:"server"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// ViewConfig holds the default view toggles.
type ViewConfig struct {
	Full         bool     `koanf:"full"`
	Compact      bool     `koanf:"compact"`
	ShowJobs     bool     `koanf:"show_jobs"`
	ShowDatasets bool     `koanf:"show_datasets"`
	Collapsed    []string `koanf:"collapsed"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string        `koanf:"backend"`
	Dir           string        `koanf:"dir"`
	TTL           time.Duration `koanf:"ttl"`
	Prefix        string        `koanf:"prefix"`
	RedisURL      string        `koanf:"redis_url"`
	MongoURI      string        `koanf:"mongo_uri"`
	MongoDatabase string        `koanf:"mongo_database"`
	MemorySize    int           `koanf:"memory_size"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr  string `koanf:"addr"`
	Watch bool   `koanf:"watch"`
}

func defaults() map[string]any {
	return map[string]any{
		"view.full":          false,
		"view.compact":       false,
		"view.show_jobs":     true,
		"view.show_datasets": true,
		"view.collapsed":     []string{},
		"cache.backend":      cache.BackendFile,
		"cache.ttl":          "24h",
		"cache.memory_size":  cache.DefaultMemorySize,
		"server.addr":        ":8080",
		"server.watch":       true,
	}
}

// flagKeys maps command-line flags to config keys. Flags not listed here are
// command-local and never reach the config.
var flagKeys = map[string]string{
	"full":      "view.full",
	"compact":   "view.compact",
	"jobs":      "view.show_jobs",
	"datasets":  "view.show_datasets",
	"collapsed": "view.collapsed",
	"cache":     "cache.backend",
	"cache-dir": "cache.dir",
	"addr":      "server.addr",
	"watch":     "server.watch",
}

// LoadConfig loads configuration from defaults, the config file, a .env file,
// environment variables and flags.
// Precedence (highest to lowest): flags > env vars > .env > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = findConfigUpward(cwd)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = cfgFile
	return &cfg, nil
}

// envKey turns STACKLINEAGE_CACHE__REDIS_URL into cache.redis_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// findConfigUpward searches upward from dir for a config file.
func findConfigUpward(dir string) string {
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ViewOptions returns the configured toggles for a focal node.
func (c *Config) ViewOptions(focal string) view.Options {
	return view.Options{
		FocalID:      focal,
		Full:         c.View.Full,
		Compact:      c.View.Compact,
		ShowJobs:     c.View.ShowJobs,
		ShowDatasets: c.View.ShowDatasets,
		Collapsed:    view.CollapsedSet(c.View.Collapsed),
	}
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Config {
	return cache.Config{
		Backend:       c.Cache.Backend,
		Dir:           c.Cache.Dir,
		MemorySize:    c.Cache.MemorySize,
		RedisURL:      c.Cache.RedisURL,
		Prefix:        c.Cache.Prefix,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}
