package ddc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// VCPCode identifies a monitor feature, see the VESA Monitor Control Command
// Set (MCCS) standard v2.2a.
type VCPCode byte

const (
	InputSelect       VCPCode = 0x60
	MonitorPowerState VCPCode = 0xd6

	// Dell U4919DW specific
	DellPBPSwapVideo VCPCode = 0xe5
	DellPBPSwapInput VCPCode = 0xe7
	DellPBPSubInput  VCPCode = 0xe8
	DellPBPMode      VCPCode = 0xe9
)

func (c VCPCode) String() string {
	return fmt.Sprintf("0x%02x", byte(c))
}

// Input names accepted on the command line.
const (
	InputHDMI1         = "hdmi1"
	InputHDMI2         = "hdmi2"
	InputDisplayPort1  = "displayport1"
	InputUSBCDellU4919 = "usbc_dell_u4919dw"
)

// DellPBPMode values
const (
	PBPModeOn  uint32 = 0x24
	PBPModeOff uint32 = 0x00
)

// MonitorPowerState values
const (
	powerOn      = 1
	powerStandby = 4
	powerOff     = 5
)

// WriteCommand sets one VCP feature to one value.
type WriteCommand struct {
	Code  VCPCode
	Value uint32
}

func (c WriteCommand) String() string {
	return fmt.Sprintf("VCPWriteCommand(code=0x%02x value=0x%04x)", byte(c.Code), c.Value)
}

// CommandSet groups the write commands selectable by one CLI command.
type CommandSet struct {
	Name        string
	Help        string
	OptionsHelp string
	// Variadic sets accept one or more options, executed in order.
	Variadic bool
	Options  map[string]WriteCommand
}

// Choices returns the option names in sorted order.
func (s CommandSet) Choices() []string {
	choices := make([]string, 0, len(s.Options))
	for name := range s.Options {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return choices
}

// Lookup returns the command for option, ignoring case.
func (s CommandSet) Lookup(option string) (WriteCommand, error) {
	cmd, ok := s.Options[strings.ToLower(option)]
	if !ok {
		return WriteCommand{}, errors.Errorf("invalid choice '%s' for %s (choose from %s)",
			option, s.Name, strings.Join(s.Choices(), ", "))
	}
	return cmd, nil
}

func inputOptions(code VCPCode, values map[string]uint32) map[string]WriteCommand {
	options := make(map[string]WriteCommand, len(values))
	for name, value := range values {
		options[name] = WriteCommand{Code: code, Value: value}
	}
	return options
}

var (
	InputSelectCommands = CommandSet{
		Name:        "InputSelect",
		Help:        "Change input source selection",
		OptionsHelp: "Input source to switch to",
		Options: inputOptions(InputSelect, map[string]uint32{
			InputHDMI1:         0x11,
			InputHDMI2:         0x12,
			InputDisplayPort1:  0x0f,
			InputUSBCDellU4919: 0x1b1b, // both bytes set, Dell specific
		}),
	}

	PBPCommands = CommandSet{
		Name:        "PBP",
		Help:        "Change PBP mode options",
		OptionsHelp: "PBP command",
		Variadic:    true,
		Options: map[string]WriteCommand{
			"on":        {Code: DellPBPMode, Value: PBPModeOn},
			"off":       {Code: DellPBPMode, Value: PBPModeOff},
			"swapvideo": {Code: DellPBPSwapVideo, Value: 0xf000},
			"swapinput": {Code: DellPBPSwapInput, Value: 0xff00},
		},
	}

	PBPSubInputCommands = CommandSet{
		Name:        "PBPSubInputSelect",
		Help:        "Change the input source of the PBP sub picture",
		OptionsHelp: "Input source to switch to",
		Options: inputOptions(DellPBPSubInput, map[string]uint32{
			InputHDMI1:         0x11,
			InputHDMI2:         0x12,
			InputDisplayPort1:  0x0f,
			InputUSBCDellU4919: 0x1b,
		}),
	}

	PowerCommands = CommandSet{
		Name:        "Power",
		Help:        "Change the monitor power state",
		OptionsHelp: "Power state",
		Options: map[string]WriteCommand{
			"on":      {Code: MonitorPowerState, Value: powerOn},
			"standby": {Code: MonitorPowerState, Value: powerStandby},
			"off":     {Code: MonitorPowerState, Value: powerOff},
		},
	}
)

// CommandSets returns every command set in the order they are listed in the
// usage text.
func CommandSets() []CommandSet {
	return []CommandSet{InputSelectCommands, PBPCommands, PBPSubInputCommands, PowerCommands}
}
