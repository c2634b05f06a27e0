//go:build windows

package ddc

import (
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	user32                                      = windows.NewLazySystemDLL("user32.dll")
	dxva2                                       = windows.NewLazySystemDLL("dxva2.dll")
	procEnumDisplayMonitors                     = user32.NewProc("EnumDisplayMonitors")
	procGetNumberOfPhysicalMonitorsFromHMONITOR = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitorsFromHMONITOR         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitor                  = dxva2.NewProc("DestroyPhysicalMonitor")
	procSetVCPFeature                           = dxva2.NewProc("SetVCPFeature")
	procGetVCPFeatureAndVCPFeatureReply         = dxva2.NewProc("GetVCPFeatureAndVCPFeatureReply")
)

// PHYSICAL_MONITOR
type physicalMonitorInfo struct {
	Handle      windows.Handle
	Description [128]uint16
}

type physicalMonitor struct {
	hmonitor    uintptr
	handle      windows.Handle
	description string
}

func destroyPhysicalMonitor(handle windows.Handle) error {
	if ret, _, err := procDestroyPhysicalMonitor.Call(uintptr(handle)); ret == 0 {
		return &CallError{Call: "DestroyPhysicalMonitor", Err: err}
	}
	return nil
}

func (b *WindowsBackend) destroyAll(monitors []physicalMonitor) {
	for _, m := range monitors {
		if err := destroyPhysicalMonitor(m.handle); err != nil {
			b.logger.Debug("could not release physical monitor",
				zap.String("description", m.description),
				zap.Error(err))
		}
	}
}

// Callbacks cannot be freed, so one is shared by every enumeration. Callers
// are single-threaded.
var (
	enumeratedMonitors   []uintptr
	enumDisplayMonitorCB = windows.NewCallback(func(hmonitor, hdc, rect, lparam uintptr) uintptr {
		enumeratedMonitors = append(enumeratedMonitors, hmonitor)
		return 1
	})
)

func enumDisplayMonitors() ([]uintptr, error) {
	enumeratedMonitors = nil
	defer func() { enumeratedMonitors = nil }()
	if ret, _, err := procEnumDisplayMonitors.Call(0, 0, enumDisplayMonitorCB, 0); ret == 0 {
		return nil, &CallError{Call: "EnumDisplayMonitors", Err: err}
	}
	return enumeratedMonitors, nil
}

// enumeratePhysicalMonitors lists the physical monitors of every display
// monitor in EnumDisplayMonitors order. The position in the result is the
// device index. The caller owns the returned handles.
func (b *WindowsBackend) enumeratePhysicalMonitors() ([]physicalMonitor, error) {
	hmonitors, err := enumDisplayMonitors()
	if err != nil {
		return nil, err
	}

	var monitors []physicalMonitor
	for _, hmonitor := range hmonitors {
		var count uint32
		if ret, _, err := procGetNumberOfPhysicalMonitorsFromHMONITOR.Call(hmonitor, uintptr(unsafe.Pointer(&count))); ret == 0 {
			b.destroyAll(monitors)
			return nil, &CallError{Call: "GetNumberOfPhysicalMonitorsFromHMONITOR", Err: err}
		}
		if count == 0 {
			continue
		}
		infos := make([]physicalMonitorInfo, count)
		if ret, _, err := procGetPhysicalMonitorsFromHMONITOR.Call(hmonitor, uintptr(count), uintptr(unsafe.Pointer(&infos[0]))); ret == 0 {
			b.destroyAll(monitors)
			return nil, &CallError{Call: "GetPhysicalMonitorsFromHMONITOR", Err: err}
		}
		for _, info := range infos {
			monitors = append(monitors, physicalMonitor{
				hmonitor:    hmonitor,
				handle:      info.Handle,
				description: windows.UTF16ToString(info.Description[:]),
			})
		}
	}
	return monitors, nil
}

// WindowsBackend drives monitors through the dxva2 monitor configuration
// API.
type WindowsBackend struct {
	logger *zap.Logger
}

func NewWindowsBackend(logger *zap.Logger) *WindowsBackend {
	return &WindowsBackend{logger: logger}
}

func (b *WindowsBackend) Name() string {
	return "windows"
}

func (b *WindowsBackend) Timing() Timing {
	return Timing{SettleDelay: 3500 * time.Millisecond, ReopenAfterSettle: true}
}

func (b *WindowsBackend) Open(index int) (Device, error) {
	monitors, err := b.enumeratePhysicalMonitors()
	if err != nil {
		return nil, err
	}
	if err := checkIndex(index, len(monitors)); err != nil {
		b.destroyAll(monitors)
		return nil, err
	}
	selected := monitors[index]
	b.destroyAll(append(monitors[:index:index], monitors[index+1:]...))

	b.logger.Debug("opened physical monitor",
		zap.Int("device", index),
		zap.String("description", selected.description))
	return &windowsDevice{index: index, handle: selected.handle}, nil
}

// MonitorHandles returns the HMONITOR owning each physical monitor, in device
// index order.
func (b *WindowsBackend) MonitorHandles() ([]uintptr, error) {
	monitors, err := b.enumeratePhysicalMonitors()
	if err != nil {
		return nil, err
	}
	defer b.destroyAll(monitors)

	handles := make([]uintptr, len(monitors))
	for i, m := range monitors {
		handles[i] = m.hmonitor
	}
	return handles, nil
}

type windowsDevice struct {
	index  int
	handle windows.Handle
}

func (d *windowsDevice) Index() int {
	return d.index
}

func (d *windowsDevice) Read(code VCPCode) (uint32, error) {
	var current, maximum uint32
	ret, _, err := procGetVCPFeatureAndVCPFeatureReply.Call(
		uintptr(d.handle),
		uintptr(code),
		0,
		uintptr(unsafe.Pointer(&current)),
		uintptr(unsafe.Pointer(&maximum)),
	)
	if ret == 0 {
		return 0, &CallError{Call: "GetVCPFeatureAndVCPFeatureReply", Err: err}
	}
	return current, nil
}

func (d *windowsDevice) Write(code VCPCode, value uint32) error {
	if ret, _, err := procSetVCPFeature.Call(uintptr(d.handle), uintptr(code), uintptr(value)); ret == 0 {
		return &CallError{Call: "SetVCPFeature", Err: err}
	}
	return nil
}

func (d *windowsDevice) Close() error {
	return destroyPhysicalMonitor(d.handle)
}
