// Package config loads service configuration from defaults, an optional YAML file,
// an optional .env file and CATALOG_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "CATALOG_"

	DefaultFile    = "config.yaml"
	DefaultEnvFile = ".env"
)

type Config struct {
	HTTP struct {
		Port              int           `koanf:"port" validate:"min=1,max=65535"`
		ReadHeaderTimeout time.Duration `koanf:"readheadertimeout" validate:"gt=0"`
		ShutdownTimeout   time.Duration `koanf:"shutdowntimeout" validate:"gt=0"`
		TrustProxy        bool          `koanf:"trustproxy"`
	} `koanf:"http"`

	Log struct {
		Level string `koanf:"level" validate:"oneof=debug info warn error"`
	} `koanf:"log"`

	Store struct {
		Backend     string `koanf:"backend" validate:"oneof=file memory sqlite postgres redis"`
		Path        string `koanf:"path" validate:"required_if=Backend file,required_if=Backend sqlite"`
		Name        string `koanf:"name" validate:"required"`
		DSN         string `koanf:"dsn" validate:"required_if=Backend postgres"`
		RedisAddr   string `koanf:"redisaddr" validate:"required_if=Backend redis"`
		RedisPrefix string `koanf:"redisprefix"`
	} `koanf:"store"`

	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Token   string `koanf:"token" validate:"required_if=Enabled true"`
	} `koanf:"metrics"`

	Admin struct {
		Enabled          bool          `koanf:"enabled"`
		JWTSecret        string        `koanf:"jwtsecret" validate:"required_if=Enabled true"`
		PasswordHash     string        `koanf:"passwordhash" validate:"required_if=Enabled true"`
		TokenTTL         time.Duration `koanf:"tokenttl" validate:"gt=0"`
		LoginLimitPerMin int           `koanf:"loginlimit" validate:"gt=0"`
	} `koanf:"admin"`
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func (c Config) String() string {
	return fmt.Sprintf("http.port=%d, log.level=%s, store.backend=%s, store.path=%s, store.name=%s, store.dsn=%s, metrics.enabled=%t, admin.enabled=%t",
		c.HTTP.Port,
		c.Log.Level,
		c.Store.Backend,
		c.Store.Path,
		c.Store.Name,
		maskDSN(c.Store.DSN),
		c.Metrics.Enabled,
		c.Admin.Enabled,
	)
}

func defaults() map[string]any {
	return map[string]any{
		"http.port":              8080,
		"http.readheadertimeout": 5 * time.Second,
		"http.shutdowntimeout":   10 * time.Second,
		"http.trustproxy":        false,
		"log.level":              "info",
		"store.backend":          "file",
		"store.path":             "productos.json",
		"store.name":             "products",
		"store.redisprefix":      "catalog:",
		"metrics.enabled":        false,
		"admin.enabled":          false,
		"admin.tokenttl":         15 * time.Minute,
		"admin.loginlimit":       5,
	}
}

// Load reads configFile and envFile when they exist; missing files are not an error.
func Load(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		envMap, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		if err := k.Load(confmap.Provider(fromEnvMap(envMap), "."), nil); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyTransformer), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on rule %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func fromEnvMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
			continue
		}
		out[keyTransformer(key)] = value
	}
	return out
}

// keyTransformer maps CATALOG_STORE_BACKEND to store.backend.
func keyTransformer(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
	return strings.ReplaceAll(key, "_", ".")
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "<not configured>"
	}
	if _, host, ok := strings.Cut(dsn, "@"); ok {
		return "****@" + host
	}
	return "****"
}
