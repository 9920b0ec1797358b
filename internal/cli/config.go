package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/roach88/iql/internal/validate"
)

// EnvPrefix prefixes every environment override, e.g. IQL_LOG_LEVEL.
const EnvPrefix = "IQL"

// Config is the CLI configuration. Sources, lowest precedence first:
// defaults, iql.yaml (or the --config file), IQL_* environment variables,
// command flags.
type Config struct {
	// Policy is strict or lenient; check uses it when --strict is unset.
	Policy string `mapstructure:"policy"`

	// Signatures is the default declaration file for check and eval.
	Signatures string `mapstructure:"signatures"`

	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

// StoreConfig locates the evaluation journal. An empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("policy", "lenient")
	v.SetDefault("signatures", "")
	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "warn")
	v.SetDefault("store.path", "")
}

// newViper builds a viper instance reading IQL_* variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig reads path, or iql.yaml from the working directory when path
// is empty. A missing iql.yaml is not an error; a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "read config %s", path),
				"check the --config path or unset it to use iql.yaml")
		}
	} else {
		v.SetConfigName("iql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read iql.yaml")
			}
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper decodes and checks the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if _, err := validate.ParsePolicy(cfg.Policy); err != nil {
		return nil, errors.Wrap(err, "config key policy")
	}
	return &cfg, nil
}
