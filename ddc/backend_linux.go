//go:build linux

package ddc

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/thiefmaster/kvmutil/ddcci"
)

const (
	i2cSlave = 0x0703

	// minimum wait after a DDC/CI write before the next request
	writeDelay = 50 * time.Millisecond
	// minimum wait between a Get VCP request and reading the reply
	replyDelay = 40 * time.Millisecond
)

// LinuxBackend writes to the i2c-dev node of the monitor's bus. The device
// index is the i2c bus number, e.g. as reported by `ddcutil detect`.
type LinuxBackend struct {
	options LinuxOptions
	logger  *zap.Logger
}

func NewLinuxBackend(options LinuxOptions, logger *zap.Logger) *LinuxBackend {
	return &LinuxBackend{options: options, logger: logger}
}

func (b *LinuxBackend) Name() string {
	return "linux"
}

func (b *LinuxBackend) Timing() Timing {
	return Timing{SettleDelay: 3 * time.Second}
}

func (b *LinuxBackend) Open(bus int) (Device, error) {
	if bus < 0 {
		return nil, errors.Wrapf(ErrNoSuchDevice, "bus %d", bus)
	}
	path := fmt.Sprintf(b.options.I2CDevice, bus)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoSuchDevice, "bus %d", bus)
		}
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, ddcci.Address); err != nil {
		f.Close()
		return nil, &CallError{Call: "ioctl(I2C_SLAVE)", Err: err}
	}
	b.logger.Debug("opened i2c device", zap.String("path", path))
	return &linuxDevice{bus: bus, file: f, options: b.options, logger: b.logger}, nil
}

type linuxDevice struct {
	bus     int
	file    *os.File
	options LinuxOptions
	logger  *zap.Logger
}

func (d *linuxDevice) Index() int {
	return d.bus
}

func (d *linuxDevice) Write(code VCPCode, value uint32) error {
	if _, err := d.file.Write(ddcci.EncodeSetVCP(byte(code), uint16(value))); err != nil {
		return errors.Wrapf(err, "could not write VCP code %s", code)
	}
	time.Sleep(writeDelay)
	return nil
}

func (d *linuxDevice) Read(code VCPCode) (uint32, error) {
	if d.options.NativeRead {
		return d.readNative(code)
	}
	return d.readDdcutil(code)
}

func (d *linuxDevice) readDdcutil(code VCPCode) (uint32, error) {
	args := []string{"-b", strconv.Itoa(d.bus), "getvcp", code.String()}
	out, err := exec.Command(d.options.Ddcutil, args...).Output()
	if err != nil {
		return 0, errors.Wrapf(err, "%s %v failed", d.options.Ddcutil, args)
	}
	value, err := ParseDdcutilGetVCP(out)
	if err != nil {
		return 0, err
	}
	d.logger.Debug("ddcutil getvcp", zap.String("value", fmt.Sprintf("0x%04x", value)))
	return value, nil
}

func (d *linuxDevice) readNative(code VCPCode) (uint32, error) {
	if _, err := d.file.Write(ddcci.EncodeGetVCP(byte(code))); err != nil {
		return 0, errors.Wrapf(err, "could not request VCP code %s", code)
	}
	time.Sleep(replyDelay)
	reply := make([]byte, ddcci.ReplyLength)
	if _, err := d.file.Read(reply); err != nil {
		return 0, errors.Wrapf(err, "could not read VCP code %s", code)
	}
	decoded, err := ddcci.DecodeGetVCPReply(byte(code), reply)
	if err != nil {
		return 0, err
	}
	time.Sleep(writeDelay)
	return uint32(decoded.Current), nil
}

func (d *linuxDevice) Close() error {
	return d.file.Close()
}
