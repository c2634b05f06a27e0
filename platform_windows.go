//go:build windows

package main

import (
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
	"github.com/thiefmaster/kvmutil/friendlyname"
)

func newPlatform(cfg appConfig, logger *zap.Logger) (*platform, error) {
	backend := ddc.NewWindowsBackend(logger)
	names := friendlyname.New(friendlyname.NewNative(), backend, friendlyname.WithLogger(logger))
	return &platform{backend: backend, names: names}, nil
}
