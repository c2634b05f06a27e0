// Package ddcci encodes and decodes the DDC/CI packets used to get and set
// VCP features over I2C.
package ddcci

import (
	"github.com/pkg/errors"
)

const (
	// Address is the 7-bit I2C slave address of the monitor's DDC/CI
	// interface.
	Address = 0x37

	displayAddress = Address << 1
	hostAddress    = 0x51
	replyAddress   = 0x50
	lengthFlag     = 0x80

	opGetVCP      = 0x01
	opGetVCPReply = 0x02
	opSetVCP      = 0x03

	// ReplyLength is the size of a Get VCP Feature reply as read from the bus.
	ReplyLength = 11
)

// FeatureType tells whether a VCP feature is a continuous value or a set of
// discrete ones.
type FeatureType byte

const (
	SetParameter       FeatureType = 0x00
	MomentaryParameter FeatureType = 0x01
)

// Reply is a decoded Get VCP Feature reply.
type Reply struct {
	Code    byte
	Type    FeatureType
	Max     uint16
	Current uint16
}

var ErrUnsupportedCode = errors.New("unsupported VCP code")

func checksum(seed byte, data []byte) byte {
	sum := seed
	for _, b := range data {
		sum ^= b
	}
	return sum
}

func frame(payload ...byte) []byte {
	packet := make([]byte, 0, len(payload)+3)
	packet = append(packet, hostAddress, lengthFlag|byte(len(payload)))
	packet = append(packet, payload...)
	return append(packet, checksum(displayAddress, packet))
}

// EncodeSetVCP returns the bytes to write after addressing the display.
func EncodeSetVCP(code byte, value uint16) []byte {
	return frame(opSetVCP, code, byte(value>>8), byte(value))
}

// EncodeGetVCP returns a Get VCP Feature request.
func EncodeGetVCP(code byte) []byte {
	return frame(opGetVCP, code)
}

// DecodeGetVCPReply validates a reply read from the display and extracts its
// values.
func DecodeGetVCPReply(code byte, data []byte) (Reply, error) {
	if len(data) < ReplyLength {
		return Reply{}, errors.Errorf("short reply: %d bytes", len(data))
	}
	data = data[:ReplyLength]
	if data[0] != displayAddress {
		return Reply{}, errors.Errorf("unexpected source address 0x%02x", data[0])
	}
	if data[1] != lengthFlag|8 {
		return Reply{}, errors.Errorf("unexpected length byte 0x%02x", data[1])
	}
	if sum := checksum(replyAddress, data[:ReplyLength-1]); sum != data[ReplyLength-1] {
		return Reply{}, errors.Errorf("checksum mismatch: got 0x%02x, want 0x%02x", data[ReplyLength-1], sum)
	}
	if data[2] != opGetVCPReply {
		return Reply{}, errors.Errorf("unexpected opcode 0x%02x", data[2])
	}
	if data[3] != 0 {
		return Reply{}, errors.Wrapf(ErrUnsupportedCode, "code 0x%02x", code)
	}
	if data[4] != code {
		return Reply{}, errors.Errorf("reply for code 0x%02x, requested 0x%02x", data[4], code)
	}
	return Reply{
		Code:    data[4],
		Type:    FeatureType(data[5]),
		Max:     uint16(data[6])<<8 | uint16(data[7]),
		Current: uint16(data[8])<<8 | uint16(data[9]),
	}, nil
}
