// Package ddc talks to monitors over DDC/CI. A Backend is picked once per
// operating system and opens monitors by index; the returned Device reads and
// writes VCP features.
package ddc

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnsupported  = errors.New("unsupported operating system")
	ErrNoSuchDevice = errors.New("no such device")
)

// Device is an opened monitor.
type Device interface {
	Index() int
	Read(code VCPCode) (uint32, error)
	Write(code VCPCode, value uint32) error
	Close() error
}

// Timing describes how a backend behaves after a PBP mode change. Some
// monitors re-enumerate when PBP is turned on, which invalidates the handle
// on Windows.
type Timing struct {
	SettleDelay       time.Duration
	ReopenAfterSettle bool
}

type Backend interface {
	Name() string
	Open(index int) (Device, error)
	Timing() Timing
}

// CallError reports a failed native call.
type CallError struct {
	Call string
	Err  error
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Call)
	}
	return fmt.Sprintf("%s failed: %v", e.Call, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return errors.Wrapf(ErrNoSuchDevice, "index %d, %d monitors found", index, count)
	}
	return nil
}
