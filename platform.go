package main

import (
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
	"github.com/thiefmaster/kvmutil/friendlyname"
)

type displayNames interface {
	FindMonitorIndex(name string) (index int, found bool, err error)
	Displays() ([]friendlyname.Display, error)
}

// platform is the backend selected for this OS. names is nil where display
// friendly names are not available.
type platform struct {
	backend ddc.Backend
	names   displayNames
}

type platformFactory func(cfg appConfig, logger *zap.Logger) (*platform, error)
