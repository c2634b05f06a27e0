//go:build windows

package friendlyname

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	deviceInfoGetSourceName = 1
	deviceInfoGetTargetName = 2
)

var user32 = windows.NewLazySystemDLL("user32.dll")

type nativeCall struct {
	name string
	proc *windows.LazyProc
	ok   successFunc
}

// check takes the results of c.proc.Call. Pointer arguments must be
// converted inside the Call expression so they stay valid for the call.
func (c nativeCall) check(status, _ uintptr, _ error) error {
	return checkStatus(c.name, status, c.ok)
}

var (
	getDisplayConfigBufferSizes = nativeCall{"GetDisplayConfigBufferSizes", user32.NewProc("GetDisplayConfigBufferSizes"), succeedsOnZero}
	queryDisplayConfig          = nativeCall{"QueryDisplayConfig", user32.NewProc("QueryDisplayConfig"), succeedsOnZero}
	displayConfigGetDeviceInfo  = nativeCall{"DisplayConfigGetDeviceInfo", user32.NewProc("DisplayConfigGetDeviceInfo"), succeedsOnZero}
	getMonitorInfo              = nativeCall{"GetMonitorInfoW", user32.NewProc("GetMonitorInfoW"), succeedsOnOne}
)

type rational struct {
	Numerator   uint32
	Denominator uint32
}

type pathSourceInfo struct {
	AdapterID   AdapterID
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

type pathTargetInfo struct {
	AdapterID        AdapterID
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshRate      rational
	ScanLineOrdering uint32
	TargetAvailable  int32
	StatusFlags      uint32
}

// DISPLAYCONFIG_PATH_INFO
type pathInfo struct {
	SourceInfo pathSourceInfo
	TargetInfo pathTargetInfo
	Flags      uint32
}

// DISPLAYCONFIG_MODE_INFO; the mode union is not needed here.
type modeInfo struct {
	InfoType  ModeInfoType
	ID        uint32
	AdapterID AdapterID
	Mode      [48]byte
}

// DISPLAYCONFIG_DEVICE_INFO_HEADER
type deviceInfoHeader struct {
	Type      uint32
	Size      uint32
	AdapterID AdapterID
	ID        uint32
}

// DISPLAYCONFIG_SOURCE_DEVICE_NAME
type sourceDeviceName struct {
	Header            deviceInfoHeader
	ViewGDIDeviceName [32]uint16
}

// DISPLAYCONFIG_TARGET_DEVICE_NAME
type targetDeviceName struct {
	Header                    deviceInfoHeader
	Flags                     uint32
	OutputTechnology          uint32
	EdidManufactureID         uint16
	EdidProductCodeID         uint16
	ConnectorInstance         uint32
	MonitorFriendlyDeviceName [64]uint16
	MonitorDevicePath         [128]uint16
}

type rect struct {
	Left, Top, Right, Bottom int32
}

// MONITORINFOEXW
type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor rect
	RcWork    rect
	DwFlags   uint32
	SzDevice  [32]uint16
}

// Native implements Platform with user32.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (Native) DisplayConfigBufferSizes(filter QueryFilter) (uint32, uint32, error) {
	var numPaths, numModes uint32
	err := getDisplayConfigBufferSizes.check(getDisplayConfigBufferSizes.proc.Call(
		uintptr(filter),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(&numModes)),
	))
	if err != nil {
		return 0, 0, err
	}
	return numPaths, numModes, nil
}

func (Native) QueryDisplayConfig(filter QueryFilter, numPaths, numModes uint32) ([]ModeInfo, error) {
	paths := make([]pathInfo, numPaths)
	modes := make([]modeInfo, numModes)
	var pathPtr *pathInfo
	var modePtr *modeInfo
	if len(paths) > 0 {
		pathPtr = &paths[0]
	}
	if len(modes) > 0 {
		modePtr = &modes[0]
	}

	err := queryDisplayConfig.check(queryDisplayConfig.proc.Call(
		uintptr(filter),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&numModes)),
		uintptr(unsafe.Pointer(modePtr)),
		0,
	))
	if err != nil {
		return nil, err
	}

	result := make([]ModeInfo, 0, numModes)
	for _, mode := range modes[:numModes] {
		result = append(result, ModeInfo{
			InfoType:  mode.InfoType,
			ID:        mode.ID,
			AdapterID: mode.AdapterID,
		})
	}
	return result, nil
}

func (Native) SourceDeviceName(adapter AdapterID, id uint32) (string, error) {
	var request sourceDeviceName
	request.Header.Size = uint32(unsafe.Sizeof(request))
	request.Header.Type = deviceInfoGetSourceName
	request.Header.AdapterID = adapter
	request.Header.ID = id
	if err := displayConfigGetDeviceInfo.check(displayConfigGetDeviceInfo.proc.Call(uintptr(unsafe.Pointer(&request)))); err != nil {
		return "", err
	}
	return decodeUTF16(request.ViewGDIDeviceName[:]), nil
}

func (Native) TargetDeviceName(adapter AdapterID, id uint32) (TargetDeviceName, error) {
	var request targetDeviceName
	request.Header.Size = uint32(unsafe.Sizeof(request))
	request.Header.Type = deviceInfoGetTargetName
	request.Header.AdapterID = adapter
	request.Header.ID = id
	if err := displayConfigGetDeviceInfo.check(displayConfigGetDeviceInfo.proc.Call(uintptr(unsafe.Pointer(&request)))); err != nil {
		return TargetDeviceName{}, err
	}
	return TargetDeviceName{
		FriendlyName:      decodeUTF16(request.MonitorFriendlyDeviceName[:]),
		DevicePath:        decodeUTF16(request.MonitorDevicePath[:]),
		OutputTechnology:  request.OutputTechnology,
		ManufacturerID:    request.EdidManufactureID,
		ProductCodeID:     request.EdidProductCodeID,
		ConnectorInstance: request.ConnectorInstance,
	}, nil
}

func (Native) MonitorDeviceName(hmonitor uintptr) (string, error) {
	var info monitorInfoEx
	info.CbSize = uint32(unsafe.Sizeof(info))
	if err := getMonitorInfo.check(getMonitorInfo.proc.Call(hmonitor, uintptr(unsafe.Pointer(&info)))); err != nil {
		return "", err
	}
	return decodeUTF16(info.SzDevice[:]), nil
}
