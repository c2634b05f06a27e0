package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
)

type fakeBackend struct {
	timing  ddc.Timing
	opened  []int
	devices []*fakeDevice
	// values is shared by every device opened from this backend.
	values  map[ddc.VCPCode]uint32
	log     *[]string
	openErr error
}

func newFakeBackend(timing ddc.Timing) *fakeBackend {
	return &fakeBackend{timing: timing, values: map[ddc.VCPCode]uint32{}, log: &[]string{}}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Timing() ddc.Timing { return b.timing }

func (b *fakeBackend) Open(index int) (ddc.Device, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened = append(b.opened, index)
	dev := &fakeDevice{index: index, backend: b}
	b.devices = append(b.devices, dev)
	*b.log = append(*b.log, fmt.Sprintf("open %d", index))
	return dev, nil
}

type fakeDevice struct {
	index   int
	backend *fakeBackend
	closed  bool
	readErr error
}

func (d *fakeDevice) Index() int { return d.index }

func (d *fakeDevice) Read(code ddc.VCPCode) (uint32, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	*d.backend.log = append(*d.backend.log, fmt.Sprintf("read %s", code))
	return d.backend.values[code], nil
}

func (d *fakeDevice) Write(code ddc.VCPCode, value uint32) error {
	*d.backend.log = append(*d.backend.log, fmt.Sprintf("write %s=0x%04x dev=%d", code, value, len(d.backend.opened)))
	d.backend.values[code] = value
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func newTestSequencer(backend *fakeBackend) *sequencer {
	s := newSequencer(backend, defaultConfig(), zap.NewNop())
	s.sleep = func(d time.Duration) {
		*backend.log = append(*backend.log, fmt.Sprintf("sleep %s", d))
	}
	return s
}

func TestExecute(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	s := newTestSequencer(backend)
	dev, err := s.openDevice(0)
	require.NoError(t, err)

	require.NoError(t, s.execute(dev, ddc.InputSelectCommands, "HDMI1"))
	err = s.execute(dev, ddc.InputSelectCommands, "vga")
	assert.EqualError(t, err, "invalid choice 'vga' for InputSelect (choose from displayport1, hdmi1, hdmi2, usbc_dell_u4919dw)")

	assert.Equal(t, []string{"open 0", "write 0x60=0x0011 dev=1"}, *backend.log)
}

func TestOpenDeviceError(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	backend.openErr = ddc.ErrNoSuchDevice
	_, err := newTestSequencer(backend).openDevice(3)
	assert.True(t, errors.Is(err, ddc.ErrNoSuchDevice))
	assert.Contains(t, err.Error(), "could not open device 3")
}

func TestSwitchPBP(t *testing.T) {
	tests := []struct {
		name    string
		current uint32
		wantOn  bool
		want    uint32
	}{
		{"off to on", ddc.PBPModeOff, true, ddc.PBPModeOn},
		{"on to off", ddc.PBPModeOn, false, ddc.PBPModeOff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(ddc.Timing{})
			backend.values[ddc.DellPBPMode] = tt.current
			s := newTestSequencer(backend)
			dev, err := s.openDevice(1)
			require.NoError(t, err)

			on, err := s.switchPBP(dev)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOn, on)
			assert.Equal(t, tt.want, backend.values[ddc.DellPBPMode])
		})
	}
}

func TestSwitchPBPUnknownMode(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	backend.values[ddc.DellPBPMode] = 0x01
	s := newTestSequencer(backend)
	dev, err := s.openDevice(0)
	require.NoError(t, err)

	_, err = s.switchPBP(dev)
	assert.EqualError(t, err, "unknown PBP mode 0x01")
	assert.Equal(t, []string{"open 0", "read 0xe9"}, *backend.log)
}

func TestSwitchPBPReadError(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	s := newTestSequencer(backend)
	dev := &fakeDevice{backend: backend, readErr: errors.New("bus error")}

	_, err := s.switchPBP(dev)
	assert.EqualError(t, err, "could not read VCP code 0xe9: bus error")
}

func TestSwitchPBPWithSubReopens(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{SettleDelay: 3500 * time.Millisecond, ReopenAfterSettle: true})
	s := newTestSequencer(backend)
	dev, err := s.openDevice(2)
	require.NoError(t, err)

	require.NoError(t, s.switchPBPWithSub(dev, "hdmi2"))
	assert.Equal(t, []string{
		"open 2",
		"read 0xe9",
		"write 0xe9=0x0024 dev=1",
		"sleep 3.5s",
		"open 2",
		"write 0xe8=0x0012 dev=2",
	}, *backend.log)
	require.Len(t, backend.devices, 2)
	assert.True(t, backend.devices[1].closed)
	assert.False(t, backend.devices[0].closed)
}

func TestSwitchPBPWithSubKeepsDevice(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{SettleDelay: 3 * time.Second})
	s := newTestSequencer(backend)
	dev, err := s.openDevice(4)
	require.NoError(t, err)

	require.NoError(t, s.switchPBPWithSub(dev, "displayport1"))
	assert.Equal(t, []string{
		"open 4",
		"read 0xe9",
		"write 0xe9=0x0024 dev=1",
		"sleep 3s",
		"write 0xe8=0x000f dev=1",
	}, *backend.log)
}

func TestSwitchPBPWithSubSkipsWhenOff(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{SettleDelay: 3 * time.Second})
	backend.values[ddc.DellPBPMode] = ddc.PBPModeOn
	s := newTestSequencer(backend)
	dev, err := s.openDevice(0)
	require.NoError(t, err)

	require.NoError(t, s.switchPBPWithSub(dev, "hdmi1"))
	assert.Equal(t, []string{"open 0", "read 0xe9", "write 0xe9=0x0000 dev=1"}, *backend.log)
}

func TestSwitchPBPWithSubInvalidInput(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	s := newTestSequencer(backend)
	dev, err := s.openDevice(0)
	require.NoError(t, err)

	err = s.switchPBPWithSub(dev, "vga")
	assert.Error(t, err)
	assert.Equal(t, []string{"open 0"}, *backend.log)
}

func TestSwapPBP(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{})
	s := newTestSequencer(backend)
	dev, err := s.openDevice(0)
	require.NoError(t, err)

	require.NoError(t, s.swapPBP(dev))
	assert.Equal(t, []string{
		"open 0",
		"write 0xe5=0xf000 dev=1",
		"sleep 500ms",
		"write 0xe7=0xff00 dev=1",
	}, *backend.log)
}

func TestSettleDelayOverride(t *testing.T) {
	backend := newFakeBackend(ddc.Timing{SettleDelay: 3 * time.Second, ReopenAfterSettle: true})
	cfg := defaultConfig()
	cfg.PBP.SettleDelay = 5 * time.Second
	s := newSequencer(backend, cfg, zap.NewNop())
	assert.Equal(t, ddc.Timing{SettleDelay: 5 * time.Second, ReopenAfterSettle: true}, s.timing)
}
