package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"github.com/thiefmaster/kvmutil/ddc"
)

type pbpConfig struct {
	// SettleDelay overrides the backend's wait after turning PBP on.
	SettleDelay time.Duration `yaml:"settle_delay"`
	SwapDelay   time.Duration `yaml:"swap_delay"`
}

type appConfig struct {
	LogLevel string           `yaml:"log_level"`
	PBP      pbpConfig        `yaml:"pbp"`
	Linux    ddc.LinuxOptions `yaml:"linux"`
}

func defaultConfig() appConfig {
	return appConfig{
		LogLevel: "info",
		PBP: pbpConfig{
			SwapDelay: 500 * time.Millisecond,
		},
		Linux: ddc.DefaultLinuxOptions(),
	}
}

// load reads path on top of the values already in c.
func (c *appConfig) load(path string) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %v", err)
	}
	if err = yaml.UnmarshalStrict(yamlFile, c); err != nil {
		return fmt.Errorf("could not parse config file: %v", err)
	}
	return nil
}

// timing applies the configured overrides to the backend's defaults.
func (c *appConfig) timing(backend ddc.Backend) ddc.Timing {
	timing := backend.Timing()
	if c.PBP.SettleDelay > 0 {
		timing.SettleDelay = c.PBP.SettleDelay
	}
	return timing
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}
