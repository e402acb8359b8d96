package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "morph"
	configFileType = "yaml"
	envPrefix      = "MORPH"

	cfgKeyDB        = "db"
	cfgKeyFormat    = "format"
	cfgKeyVerbose   = "verbose"
	cfgKeyPipelines = "pipelines"
	cfgKeyWorkers   = "workers"
)

// loadConfig layers flags over the environment over a config file over
// defaults. With an explicit path, that file must exist; otherwise
// morph.yaml is looked up in the working directory, then in
// $XDG_CONFIG_HOME/morph, and a missing file is not an error.
func loadConfig(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyFormat, "text")
	v.SetDefault(cfgKeyVerbose, false)
	v.SetDefault(cfgKeyWorkers, 8)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, key := range []string{cfgKeyDB, cfgKeyFormat, cfgKeyVerbose, cfgKeyPipelines, cfgKeyWorkers} {
		if f := flags.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "morph"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
