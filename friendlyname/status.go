package friendlyname

import "unicode/utf16"

type successFunc func(status uintptr) bool

// Most display configuration calls return ERROR_SUCCESS.
func succeedsOnZero(status uintptr) bool { return status == 0 }

// GetMonitorInfoW returns a BOOL.
func succeedsOnOne(status uintptr) bool { return status == 1 }

func checkStatus(call string, status uintptr, ok successFunc) error {
	if ok(status) {
		return nil
	}
	return &CallError{Call: call, Status: status}
}

// decodeUTF16 converts a fixed-size WCHAR buffer, ignoring everything from
// the first NUL on.
func decodeUTF16(buf []uint16) string {
	for i, c := range buf {
		if c == 0 {
			buf = buf[:i]
			break
		}
	}
	return string(utf16.Decode(buf))
}
