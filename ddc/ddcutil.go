package ddc

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// LinuxOptions configures the i2c-dev backend.
type LinuxOptions struct {
	// Ddcutil is the ddcutil binary used for reads.
	Ddcutil string `yaml:"ddcutil"`
	// I2CDevice is a fmt pattern taking the bus number.
	I2CDevice string `yaml:"i2c_dev"`
	// NativeRead reads through i2c-dev instead of ddcutil. Several monitors
	// do not answer plain Get VCP requests reliably, so it is off by default.
	NativeRead bool `yaml:"native_read"`
}

func DefaultLinuxOptions() LinuxOptions {
	return LinuxOptions{
		Ddcutil:   "ddcutil",
		I2CDevice: "/dev/i2c-%d",
	}
}

var getvcpPattern = regexp.MustCompile(`(?s)sh=0x([0-9a-fA-F]{2}).*sl=0x([0-9a-fA-F]{2})`)

// ParseDdcutilGetVCP extracts the current value from the output of
// `ddcutil getvcp`, e.g.
//
//	VCP code 0xe9 (Manufacturer Specific): mh=0x00, ml=0xff, sh=0x00, sl=0x24
func ParseDdcutilGetVCP(output []byte) (uint32, error) {
	match := getvcpPattern.FindSubmatch(output)
	if match == nil {
		return 0, errors.Errorf("invalid output from ddcutil '%s'", output)
	}
	high, err := strconv.ParseUint(string(match[1]), 16, 8)
	if err != nil {
		return 0, err
	}
	low, err := strconv.ParseUint(string(match[2]), 16, 8)
	if err != nil {
		return 0, err
	}
	return uint32(high<<8 | low), nil
}
