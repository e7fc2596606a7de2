// Package config resolves the client's settings. Sources, highest first:
// command line flags, TADA_* environment variables, the config file
// ($TADA_CONFIG, else tada.yaml in . or ~/.tada), a .env file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Config is the resolved configuration.
type Config struct {
	Backend        string        `mapstructure:"backend"`
	Endpoint       string        `mapstructure:"endpoint"`
	DataFile       string        `mapstructure:"data_file"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	Theme          string        `mapstructure:"theme"`
	NoColor        bool          `mapstructure:"no_color"`
	Group          bool          `mapstructure:"group"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// BindFlags registers the persistent flags every command shares.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("backend", BackendRemote, "data backend: remote or local")
	fs.String("endpoint", "", "base URL of the data API (remote backend)")
	fs.String("data-file", "", "JSON file used by the local backend")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("log-file", "", "log file path")
	fs.String("theme", "classic", "theme: classic, neon, mono")
	fs.Bool("no-color", false, "disable colors")
	fs.Bool("group", false, "group output by pending/done")
	fs.Duration("request-timeout", 0, "timeout for create/update/delete requests (0 = none)")
	fs.Duration("reconnect-delay", 2*time.Second, "wait before re-opening a dropped subscription")
}

// Load resolves the configuration. fs may be nil. Call Validate before
// opening a backend; commands that do not need one skip it.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is fine.
	dotenv, _ := godotenv.Read()

	v := viper.New()
	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	defaults := map[string]any{
		"backend":         BackendRemote,
		"endpoint":        "",
		"data_file":       filepath.Join(home, ".tada", "todos.json"),
		"log_level":       "warn",
		"log_file":        filepath.Join(cacheDir(home), "tada", "tada.log"),
		"theme":           "classic",
		"no_color":        false,
		"group":           false,
		"request_timeout": time.Duration(0),
		"reconnect_delay": 2 * time.Second,
	}
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	// .env ranks just above the defaults. Its other entries (TADA_TOKEN,
	// TADA_CONFIG) fill the process environment where it has no value.
	for k, val := range dotenv {
		name, ok := strings.CutPrefix(k, "TADA_")
		key := strings.ToLower(name)
		if _, known := defaults[key]; ok && known {
			v.SetDefault(key, val)
			continue
		}
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, val)
		}
	}

	if fs != nil {
		// Flags only override when set; bind under the underscore key.
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("config: bind flags: %w", bindErr)
		}
	}

	if file := os.Getenv("TADA_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("tada")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".tada"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.ConfigFile = v.ConfigFileUsed()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.DataFile = expandHome(c.DataFile, home)
	c.LogFile = expandHome(c.LogFile, home)
	return &c, nil
}

// Validate rejects settings no command could work with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRemote:
		if strings.TrimSpace(c.Endpoint) == "" {
			return errors.New("config: remote backend needs an endpoint (--endpoint or TADA_ENDPOINT)")
		}
	case BackendLocal:
		if strings.TrimSpace(c.DataFile) == "" {
			return errors.New("config: local backend needs a data file")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want remote or local)", c.Backend)
	}
	if c.RequestTimeout < 0 || c.ReconnectDelay < 0 {
		return errors.New("config: durations must not be negative")
	}
	return nil
}

// cacheDir follows XDG_CACHE_HOME.
func cacheDir(home string) string {
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return d
	}
	return filepath.Join(home, ".cache")
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
