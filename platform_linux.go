//go:build linux

package main

import (
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
)

func newPlatform(cfg appConfig, logger *zap.Logger) (*platform, error) {
	return &platform{backend: ddc.NewLinuxBackend(cfg.Linux, logger)}, nil
}
