// Package friendlyname maps a monitor's friendly name (the EDID-derived name
// shown in the Windows display settings) to the index the ddc package uses to
// open it.
//
// Two enumerations are correlated: the display configuration (QueryDisplayConfig
// and DisplayConfigGetDeviceInfo), which knows friendly names, and the GDI
// monitor enumeration (GetMonitorInfoW), which knows the order monitors are
// opened in. Both report the \\.\DISPLAYn device path, which is the join key.
package friendlyname

import (
	"fmt"

	"github.com/pkg/errors"
)

// QueryFilter selects which display paths are reported by the display
// configuration queries.
type QueryFilter uint32

const (
	QueryAllPaths        QueryFilter = 1
	QueryOnlyActivePaths QueryFilter = 2
)

// ModeInfoType tags a mode record as belonging to a source or a target.
type ModeInfoType uint32

const (
	ModeInfoTypeSource ModeInfoType = 1
	ModeInfoTypeTarget ModeInfoType = 2
)

func (t ModeInfoType) String() string {
	switch t {
	case ModeInfoTypeSource:
		return "source"
	case ModeInfoTypeTarget:
		return "target"
	default:
		return fmt.Sprintf("ModeInfoType(%d)", uint32(t))
	}
}

// AdapterID is the locally unique id of a display adapter. It is only valid
// until the next reboot or adapter reset.
type AdapterID struct {
	LowPart  uint32
	HighPart int32
}

// Key is the join key between source and target records of one adapter.
// The per-path id is not part of it, so an adapter driving several displays
// maps all of them to the same key.
func (a AdapterID) Key() string {
	return fmt.Sprintf("%d-%d", a.LowPart, a.HighPart)
}

// ModeInfo is one mode record reported by QueryDisplayConfig.
type ModeInfo struct {
	InfoType  ModeInfoType
	ID        uint32
	AdapterID AdapterID
}

// TargetDeviceName holds the result of a target name query.
type TargetDeviceName struct {
	FriendlyName      string
	DevicePath        string
	OutputTechnology  uint32
	ManufacturerID    uint16
	ProductCodeID     uint16
	ConnectorInstance uint32
}

// Display describes one enumerated monitor.
type Display struct {
	Index        int
	DevicePath   string
	FriendlyName string
}

// Platform is the set of native calls the resolver needs. Each method
// returns a *CallError when the underlying call does not report success.
type Platform interface {
	DisplayConfigBufferSizes(filter QueryFilter) (numPaths, numModes uint32, err error)
	QueryDisplayConfig(filter QueryFilter, numPaths, numModes uint32) ([]ModeInfo, error)
	SourceDeviceName(adapter AdapterID, id uint32) (string, error)
	TargetDeviceName(adapter AdapterID, id uint32) (TargetDeviceName, error)
	MonitorDeviceName(hmonitor uintptr) (string, error)
}

// MonitorSource returns the HMONITOR of every monitor the device layer can
// open, in the order it indexes them.
type MonitorSource interface {
	MonitorHandles() ([]uintptr, error)
}

// ErrJoinMiss is matched by every *JoinError.
var ErrJoinMiss = errors.New("display join miss")

// CallError reports a native call that did not return its success status.
type CallError struct {
	Call   string
	Status uintptr
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed %d", e.Call, e.Status)
}

// JoinError reports an adapter key that has only a source or only a target
// record in one enumeration pass.
type JoinError struct {
	Key     string
	Missing ModeInfoType
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("adapter %s has no %s record", e.Key, e.Missing)
}

func (e *JoinError) Is(target error) bool {
	return target == ErrJoinMiss
}

// InfoTypeError reports a mode record that is neither a source nor a target.
type InfoTypeError struct {
	InfoType ModeInfoType
}

func (e *InfoTypeError) Error() string {
	return fmt.Sprintf("invalid infoType %d", uint32(e.InfoType))
}

// UnknownDevicePathError reports a monitor whose device path is not part of
// the active display configuration.
type UnknownDevicePathError struct {
	Index      int
	DevicePath string
}

func (e *UnknownDevicePathError) Error() string {
	return fmt.Sprintf("monitor %d: device path %q not in display configuration", e.Index, e.DevicePath)
}
