//go:build !windows && !linux

package main

import (
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
)

func newPlatform(cfg appConfig, logger *zap.Logger) (*platform, error) {
	return nil, errors.Wrap(ddc.ErrUnsupported, runtime.GOOS)
}
