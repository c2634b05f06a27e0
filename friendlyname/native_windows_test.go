//go:build windows

package friendlyname

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeSuccessPredicates(t *testing.T) {
	tests := []struct {
		call   nativeCall
		okZero bool
		okOne  bool
	}{
		{getDisplayConfigBufferSizes, true, false},
		{queryDisplayConfig, true, false},
		{displayConfigGetDeviceInfo, true, false},
		{getMonitorInfo, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.call.name, func(t *testing.T) {
			assert.Equal(t, tc.okZero, tc.call.ok(0))
			assert.Equal(t, tc.okOne, tc.call.ok(1))
		})
	}
}

func TestNativeStructSizes(t *testing.T) {
	assert.Equal(t, uintptr(20), unsafe.Sizeof(deviceInfoHeader{}))
	assert.Equal(t, uintptr(84), unsafe.Sizeof(sourceDeviceName{}))
	assert.Equal(t, uintptr(420), unsafe.Sizeof(targetDeviceName{}))
	assert.Equal(t, uintptr(104), unsafe.Sizeof(monitorInfoEx{}))
	assert.Equal(t, uintptr(64), unsafe.Sizeof(modeInfo{}))
	assert.Equal(t, uintptr(72), unsafe.Sizeof(pathInfo{}))
}

// bufferSizesAtDepth calls DisplayConfigBufferSizes with a deep stack so the
// goroutine stack has to grow around the native call.
func bufferSizesAtDepth(depth int) (uint32, uint32, error) {
	var pad [256]byte
	pad[depth%len(pad)] = 1
	if depth > 0 {
		return bufferSizesAtDepth(depth - int(pad[depth%len(pad)]))
	}
	return Native{}.DisplayConfigBufferSizes(QueryOnlyActivePaths)
}

func TestNativeBufferSizesSurviveStackGrowth(t *testing.T) {
	numPaths, numModes, err := Native{}.DisplayConfigBufferSizes(QueryOnlyActivePaths)
	if err != nil {
		t.Skipf("no display configuration available: %v", err)
	}
	if numPaths == 0 {
		t.Skip("no active display paths")
	}

	for _, depth := range []int{16, 64, 256} {
		gotPaths, gotModes, err := bufferSizesAtDepth(depth)
		require.NoError(t, err)
		assert.Equal(t, numPaths, gotPaths, "depth %d", depth)
		assert.Equal(t, numModes, gotModes, "depth %d", depth)
	}
}
