package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DB  DBConfig  `mapstructure:"db"`
	Log LogConfig `mapstructure:"log"`
}

type DBConfig struct {
	Source         string        `mapstructure:"source"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	Table          string        `mapstructure:"table"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// Load reads settings.yml from ./configs, /configs or /etc/trojan-manager,
// or from file when it is non-empty. Environment variables such as DB_HOST
// override file values. A missing settings file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db.source", "")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "trojan")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "trojan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.table", "users")
	v.SetDefault("db.connect_timeout", "5s")
	v.SetDefault("log.verbose", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("/configs")
		v.AddConfigPath("/etc/trojan-manager")
		v.SetConfigName("settings")
		v.SetConfigType("yml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB.Table) == "" {
		return fmt.Errorf("db.table must not be empty")
	}
	if c.DB.Source == "" && c.DB.Host == "" {
		return fmt.Errorf("either db.source or db.host must be set")
	}
	return nil
}

// DSN returns db.source when set, otherwise a postgres URL built from the
// individual connection settings.
func (c *DBConfig) DSN() string {
	if c.Source != "" {
		return c.Source
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(math.Ceil(c.ConnectTimeout.Seconds()))))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}

	return u.String()
}

// Redacted is the DSN with any password masked, safe for logs.
func (c *DBConfig) Redacted() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return "[unparseable dsn]"
	}
	return u.Redacted()
}
