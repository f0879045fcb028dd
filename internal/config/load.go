// File: internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces the environment overrides, e.g. SYNTHCTL_ENGINE_PLATFORM.
	EnvPrefix = "SYNTHCTL"
	fileName  = "synthctl"
)

// Prepare registers the defaults, the environment binding and the config file
// lookup on v. An explicit path wins; otherwise ./synthctl.yaml is tried
// before ~/.synthctl.yaml.
func Prepare(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return fmt.Errorf("failed to expand config path %q: %w", path, err)
		}
		v.SetConfigFile(expanded)
		return nil
	}

	v.SetConfigType("yaml")
	v.SetConfigName(fileName)
	v.AddConfigPath(".")
	return nil
}

// Load reads the config file, if any, and returns the validated configuration.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := Prepare(v, path); err != nil {
		return nil, err
	}
	if err := readConfig(v, path); err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}

func readConfig(v *viper.Viper, path string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if path != "" || !errors.As(err, &notFound) {
		return fmt.Errorf("error reading config file: %w", err)
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	dotfile := filepath.Join(home, "."+fileName+".yaml")
	if _, err := os.Stat(dotfile); err != nil {
		return nil
	}
	v.SetConfigFile(dotfile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}
