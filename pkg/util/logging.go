package util

import (
	"context"
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

const (
	// Constants to be used with verbosity levels with logr.
	// Note that with logr the verbosity is additive
	// e.g. log.V(1).Info() means log at verbosity = info verbosity + 1

	// Debug indicates debug verbosity level
	Debug = 1
)

// SetupLogger performs common setup of a logger.
// Logs are written to stderr so they never interleave with YAML written to stdout.
func SetupLogger(level string, devLogger bool) logr.Logger {
	// Start with a production logger config.
	config := zap.NewProductionConfig()

	if devLogger {
		config = zap.NewDevelopmentConfig()
	}

	// Increment the logging level.
	l := zap.NewAtomicLevel()
	err := l.UnmarshalText([]byte(level))
	if err != nil {
		panic(fmt.Sprintf("Could not convert level=%v to a ZapCorLevel; error: %v", level, err))
	}
	config.Level = l
	config.OutputPaths = []string{"stderr"}

	zapLog, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Could not create zap instance (%v)?", err))
	}

	// replace the global logger
	zap.ReplaceGlobals(zapLog)

	return zapr.NewLogger(zapLog)
}

// PrettyString returns a prettily formatted string of the object.
func PrettyString(v interface{}) string {
	p, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("PrettyString returned error; %v", err)
	}
	return string(p)
}

// LogFromContext returns a logr.Logger from the context or an instance of the global logger
func LogFromContext(ctx context.Context) logr.Logger {
	if ctx == nil {
		return zapr.NewLogger(zap.L())
	}
	l, err := logr.FromContext(ctx)
	if err != nil {
		return zapr.NewLogger(zap.L())
	}
	return l
}
