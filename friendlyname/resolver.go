package friendlyname

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Resolver correlates the display configuration with the monitor
// enumeration. It keeps no state between calls: every method queries the
// platform again.
type Resolver struct {
	platform Platform
	monitors MonitorSource
	fold     cases.Caser
	logger   *zap.Logger
}

type Option func(*Resolver)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(platform Platform, monitors MonitorSource, opts ...Option) *Resolver {
	r := &Resolver{
		platform: platform,
		monitors: monitors,
		fold:     cases.Fold(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ActiveModes returns the mode records of all active display paths.
// The topology may change between the size query and the data query; that
// race is left to the caller.
func (r *Resolver) ActiveModes() ([]ModeInfo, error) {
	numPaths, numModes, err := r.platform.DisplayConfigBufferSizes(QueryOnlyActivePaths)
	if err != nil {
		return nil, err
	}
	modes, err := r.platform.QueryDisplayConfig(QueryOnlyActivePaths, numPaths, numModes)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("queried display config",
		zap.Uint32("paths", numPaths),
		zap.Int("modes", len(modes)))
	return modes, nil
}

// SourceDevicePath returns the \\.\DISPLAYn path of a source.
func (r *Resolver) SourceDevicePath(adapter AdapterID, id uint32) (string, error) {
	return r.platform.SourceDeviceName(adapter, id)
}

// TargetFriendlyName returns the monitor name of a target.
func (r *Resolver) TargetFriendlyName(adapter AdapterID, id uint32) (string, error) {
	target, err := r.platform.TargetDeviceName(adapter, id)
	if err != nil {
		return "", err
	}
	return target.FriendlyName, nil
}

// DevicePathToFriendlyName maps the device path of every active source to
// the friendly name of the target on the same adapter.
func (r *Resolver) DevicePathToFriendlyName() (map[string]string, error) {
	modes, err := r.ActiveModes()
	if err != nil {
		return nil, err
	}

	var keys []string
	seen := make(map[string]bool)
	devicePaths := make(map[string]string)
	friendlyNames := make(map[string]string)
	for _, mode := range modes {
		key := mode.AdapterID.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}

		switch mode.InfoType {
		case ModeInfoTypeSource:
			path, err := r.SourceDevicePath(mode.AdapterID, mode.ID)
			if err != nil {
				return nil, err
			}
			if prev, ok := devicePaths[key]; ok {
				r.logger.Warn("adapter has more than one active source, keeping the last one",
					zap.String("adapter", key),
					zap.String("dropped", prev),
					zap.String("kept", path))
			}
			devicePaths[key] = path
		case ModeInfoTypeTarget:
			name, err := r.TargetFriendlyName(mode.AdapterID, mode.ID)
			if err != nil {
				return nil, err
			}
			if prev, ok := friendlyNames[key]; ok {
				r.logger.Warn("adapter has more than one active target, keeping the last one",
					zap.String("adapter", key),
					zap.String("dropped", prev),
					zap.String("kept", name))
			}
			friendlyNames[key] = name
		default:
			return nil, &InfoTypeError{InfoType: mode.InfoType}
		}
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		name, ok := friendlyNames[key]
		if !ok {
			return nil, &JoinError{Key: key, Missing: ModeInfoTypeTarget}
		}
		path, ok := devicePaths[key]
		if !ok {
			return nil, &JoinError{Key: key, Missing: ModeInfoTypeSource}
		}
		result[path] = name
	}
	return result, nil
}

// MonitorDevicePaths returns the device path of every monitor, indexed by
// the position the monitor source reports it at.
func (r *Resolver) MonitorDevicePaths() ([]string, error) {
	handles, err := r.monitors.MonitorHandles()
	if err != nil {
		return nil, errors.Wrap(err, "could not enumerate monitors")
	}
	paths := make([]string, len(handles))
	for i, hmonitor := range handles {
		path, err := r.platform.MonitorDeviceName(hmonitor)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

// Displays lists every monitor with its device path and friendly name.
func (r *Resolver) Displays() ([]Display, error) {
	names, err := r.DevicePathToFriendlyName()
	if err != nil {
		return nil, err
	}
	paths, err := r.MonitorDevicePaths()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, len(paths))
	for i, path := range paths {
		name, ok := names[path]
		if !ok {
			return nil, &UnknownDevicePathError{Index: i, DevicePath: path}
		}
		displays[i] = Display{Index: i, DevicePath: path, FriendlyName: name}
	}
	return displays, nil
}

// FindMonitorIndex returns the index of the first monitor whose friendly
// name matches name under Unicode case folding. found is false when no
// connected monitor has that name.
func (r *Resolver) FindMonitorIndex(name string) (index int, found bool, err error) {
	names, err := r.DevicePathToFriendlyName()
	if err != nil {
		return 0, false, err
	}
	paths, err := r.MonitorDevicePaths()
	if err != nil {
		return 0, false, err
	}

	want := r.fold.String(name)
	for i, path := range paths {
		current, ok := names[path]
		if !ok {
			return 0, false, &UnknownDevicePathError{Index: i, DevicePath: path}
		}
		r.logger.Debug("comparing display",
			zap.Int("index", i),
			zap.String("path", path),
			zap.String("name", current))
		if r.fold.String(current) == want {
			return i, true, nil
		}
	}
	return 0, false, nil
}
