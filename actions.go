package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
)

// sequencer runs VCP writes and the multi-step PBP operations against one
// backend.
type sequencer struct {
	backend   ddc.Backend
	timing    ddc.Timing
	swapDelay time.Duration
	sleep     func(time.Duration)
	logger    *zap.Logger
}

func newSequencer(backend ddc.Backend, cfg appConfig, logger *zap.Logger) *sequencer {
	return &sequencer{
		backend:   backend,
		timing:    cfg.timing(backend),
		swapDelay: cfg.PBP.SwapDelay,
		sleep:     time.Sleep,
		logger:    logger,
	}
}

func (s *sequencer) openDevice(index int) (ddc.Device, error) {
	s.logger.Info("accessing device", zap.Int("id", index))
	dev, err := s.backend.Open(index)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open device %d", index)
	}
	return dev, nil
}

func (s *sequencer) readVCP(dev ddc.Device, code ddc.VCPCode) (uint32, error) {
	s.logger.Info("reading VCP code", zap.Stringer("code", code))
	value, err := dev.Read(code)
	if err != nil {
		return 0, errors.Wrapf(err, "could not read VCP code %s", code)
	}
	s.logger.Info("read VCP code", zap.String("value", fmt.Sprintf("0x%04x", value)))
	return value, nil
}

func (s *sequencer) writeVCP(dev ddc.Device, cmd ddc.WriteCommand) error {
	s.logger.Info("sending", zap.Stringer("command", cmd))
	if err := dev.Write(cmd.Code, cmd.Value); err != nil {
		return errors.Wrapf(err, "could not send %s", cmd)
	}
	return nil
}

func (s *sequencer) execute(dev ddc.Device, set ddc.CommandSet, option string) error {
	cmd, err := set.Lookup(option)
	if err != nil {
		return err
	}
	s.logger.Info("executing command", zap.String("command", set.Name), zap.String("option", option))
	return s.writeVCP(dev, cmd)
}

// switchPBP toggles PBP mode and reports whether it is now on.
func (s *sequencer) switchPBP(dev ddc.Device) (bool, error) {
	current, err := s.readVCP(dev, ddc.DellPBPMode)
	if err != nil {
		return false, err
	}

	var on bool
	switch current {
	case ddc.PBPModeOn:
		on = true
	case ddc.PBPModeOff:
		on = false
	default:
		return false, errors.Errorf("unknown PBP mode 0x%02x", current)
	}
	s.logger.Info("current PBP mode", zap.Bool("on", on))

	next := ddc.WriteCommand{Code: ddc.DellPBPMode, Value: ddc.PBPModeOn}
	if on {
		next.Value = ddc.PBPModeOff
		s.logger.Info("switching PBP off")
	} else {
		s.logger.Info("switching PBP on")
	}
	if err := s.writeVCP(dev, next); err != nil {
		return false, err
	}
	return !on, nil
}

// switchPBPWithSub toggles PBP mode and, when it was turned on, selects the
// input of the sub picture once the monitor has settled.
func (s *sequencer) switchPBPWithSub(dev ddc.Device, subInput string) error {
	if _, err := ddc.PBPSubInputCommands.Lookup(subInput); err != nil {
		return err
	}
	on, err := s.switchPBP(dev)
	if err != nil {
		return err
	}
	if !on {
		s.logger.Info("PBP is off, skip setting sub input")
		return nil
	}

	s.logger.Info("PBP is on, setting sub input", zap.Duration("delay", s.timing.SettleDelay))
	s.sleep(s.timing.SettleDelay)
	if s.timing.ReopenAfterSettle {
		reopened, err := s.openDevice(dev.Index())
		if err != nil {
			return err
		}
		defer reopened.Close()
		dev = reopened
	}
	return s.execute(dev, ddc.PBPSubInputCommands, subInput)
}

// swapPBP swaps the video inputs of the PBP pictures, then swaps the USB
// upstream so it stays with the same video input.
func (s *sequencer) swapPBP(dev ddc.Device) error {
	if err := s.execute(dev, ddc.PBPCommands, "swapvideo"); err != nil {
		return err
	}
	s.sleep(s.swapDelay)
	return s.execute(dev, ddc.PBPCommands, "swapinput")
}
