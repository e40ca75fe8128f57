// Package config loads the configuration of the converter.
//
// Configuration is read from a YAML file and can be overridden with environment variables e.g.
// TESK_TASKMASTER_IMAGE_VERSION=v0.10.3.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/zapr"
	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/util"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// AppName is the name of the application.
	AppName = "tesk"
	// ConfigFlagName is the name of the flag holding the path of the config file.
	ConfigFlagName = "config"
	// LevelFlagName is the name of the flag holding the log level.
	LevelFlagName = "level"

	envPrefix = "TESK"
)

// Defaults
const (
	DefaultTaskmasterImageName    = "docker.io/elixircloud/tesk-core-taskmaster"
	DefaultTaskmasterImageVersion = "v0.10.2"
	DefaultServiceAccountName     = "taskmaster"
)

// keys of the configuration and the environment variables that override them.
var envVars = map[string]string{
	"spec.taskmasterImageName":    "TASKMASTER_IMAGE_NAME",
	"spec.taskmasterImageVersion": "TASKMASTER_IMAGE_VERSION",
	"spec.serviceAccountName":     "TASKMASTER_SERVICE_ACCOUNT",
	"spec.namespace":              "NAMESPACE",
	"spec.scratchPaths":           "SCRATCH_PATHS",
	"spec.taskmasterTemplate":     "TASKMASTER_TEMPLATE",
	"spec.executorTemplate":       "EXECUTOR_TEMPLATE",
}

// DefaultConfigFile returns the default location of the config file; $HOME/.tesk/config.yaml
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+AppName, "config.yaml")
}

// Load loads the configuration from the file at path and the environment.
// If path is empty the default config file is used if it exists.
func Load(path string) (*v1alpha1.ConverterConfig, error) {
	log := zapr.NewLogger(zap.L())
	v := newViper()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile()
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(errors.Cause(err)) {
				return nil, errors.Wrapf(err, "Failed to read config file %v", path)
			}
			log.V(util.Debug).Info("Config file doesn't exist; using defaults", "path", path)
		} else {
			log.V(util.Debug).Info("Read config file", "path", v.ConfigFileUsed())
		}
	}

	cfg := &v1alpha1.ConverterConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal the configuration")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("apiVersion", fmt.Sprintf("%v/%v", v1alpha1.Group, v1alpha1.Version))
	v.SetDefault("kind", v1alpha1.ConverterConfigKind)
	v.SetDefault("metadata.name", AppName)
	v.SetDefault("spec.taskmasterImageName", DefaultTaskmasterImageName)
	v.SetDefault("spec.taskmasterImageVersion", DefaultTaskmasterImageVersion)
	v.SetDefault("spec.serviceAccountName", DefaultServiceAccountName)
	v.SetDefault("spec.namespace", v1alpha1.DefaultNamespace)
	// No scratch paths by default; tasks declare the volumes their executors share.
	v.SetDefault("spec.scratchPaths", []string{})
	v.SetDefault("spec.taskmasterTemplate", "")
	v.SetDefault("spec.executorTemplate", "")

	for key, env := range envVars {
		// BindEnv only returns an error if no key is passed.
		_ = v.BindEnv(key, envPrefix+"_"+env)
	}
	return v
}

// Validate checks the configuration.
func Validate(cfg *v1alpha1.ConverterConfig) error {
	if cfg.Kind != v1alpha1.ConverterConfigKind {
		return errors.Errorf("Config has kind %v; expected %v", cfg.Kind, v1alpha1.ConverterConfigKind)
	}
	if cfg.Spec.TaskmasterImageName == "" {
		return errors.New("spec.taskmasterImageName is required")
	}
	if _, err := util.ParseImage(cfg.Spec.TaskmasterImage()); err != nil {
		return errors.Wrapf(err, "spec.taskmasterImageName and spec.taskmasterImageVersion don't form a valid image")
	}
	for _, p := range cfg.Spec.ScratchPaths {
		if !strings.HasPrefix(p, "/") {
			return errors.Errorf("Scratch path %v must be an absolute path", p)
		}
	}
	return nil
}
