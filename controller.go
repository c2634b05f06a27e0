package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thiefmaster/kvmutil/ddc"
)

var (
	errNoCommand               = errors.New("no command selected")
	errFriendlyNameUnsupported = errors.New("display friendly name only supported on Windows")
)

type app struct {
	configPath  string
	verbose     bool
	newPlatform platformFactory

	logger   *zap.Logger
	platform *platform
	seq      *sequencer
}

func newRootCommand(newPlatform platformFactory) *cobra.Command {
	a := &app{newPlatform: newPlatform}
	root := &cobra.Command{
		Use:   "kvmutil",
		Short: "Control monitors via DDC/CI VCP codes",
		Long: "Control monitors via DDC/CI VCP codes.\n\n" +
			"<device> is the i2c bus number on Linux (e.g. from 'ddcutil detect'), " +
			"or the index in the display list or the display friendly name on Windows.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Usage()
			return errNoCommand
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	for _, set := range ddc.CommandSets() {
		root.AddCommand(a.newWriteCommand(set))
	}
	root.AddCommand(
		a.newPBPSwitchCommand(),
		a.newPBPSwitch2Command(),
		a.newPBPSwapCommand(),
		a.newListCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg := defaultConfig()
	if a.configPath != "" {
		if err := cfg.load(a.configPath); err != nil {
			return err
		}
	}
	logger, err := newLogger(cfg.LogLevel, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	if a.configPath != "" {
		logger.Debug("loaded config file", zap.String("path", a.configPath))
	}

	p, err := a.newPlatform(cfg, logger)
	if err != nil {
		return err
	}
	a.platform = p
	a.seq = newSequencer(p.backend, cfg, logger)
	logger.Debug("selected backend", zap.String("backend", p.backend.Name()))
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// parseDeviceID accepts a device index or, where supported, a display
// friendly name.
func (a *app) parseDeviceID(deviceID string) (int, error) {
	if isNumeric(deviceID) {
		index, err := strconv.Atoi(deviceID)
		if err != nil {
			return 0, errors.New("if device ID is a number it must be an int")
		}
		return index, nil
	}

	if a.platform.names == nil {
		return 0, errFriendlyNameUnsupported
	}
	index, found, err := a.platform.names.FindMonitorIndex(deviceID)
	if err != nil {
		return 0, errors.Wrap(err, "could not resolve display friendly name")
	}
	if !found {
		return 0, errors.Errorf("display with friendly name '%s' not found", deviceID)
	}
	a.logger.Info("found display", zap.String("name", deviceID), zap.Int("id", index))
	return index, nil
}

func (a *app) withDevice(deviceID string, fn func(dev ddc.Device) error) error {
	if err := a.setup(); err != nil {
		return err
	}
	index, err := a.parseDeviceID(deviceID)
	if err != nil {
		return err
	}
	dev, err := a.seq.openDevice(index)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			a.logger.Debug("could not close device", zap.Error(err))
		}
	}()

	if err := fn(dev); err != nil {
		return err
	}
	a.logger.Info("done")
	return nil
}

func validOptions(set ddc.CommandSet, from int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		for _, option := range args[from:] {
			if _, err := set.Lookup(option); err != nil {
				return err
			}
		}
		return nil
	}
}

func (a *app) newWriteCommand(set ddc.CommandSet) *cobra.Command {
	use := fmt.Sprintf("%s <device> <option>", strings.ToLower(set.Name))
	count := cobra.ExactArgs(2)
	if set.Variadic {
		use += "..."
		count = cobra.MinimumNArgs(2)
	}
	return &cobra.Command{
		Use:   use,
		Short: set.Help,
		Long:  fmt.Sprintf("%s.\n\n%s: %s", set.Help, set.OptionsHelp, strings.Join(set.Choices(), ", ")),
		Args:  cobra.MatchAll(count, validOptions(set, 1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(args[0], func(dev ddc.Device) error {
				for _, option := range args[1:] {
					if err := a.seq.execute(dev, set, option); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (a *app) newPBPSwitchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pbpswitch <device>",
		Short: "LOGIC: Switches PBP mode on/off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(args[0], func(dev ddc.Device) error {
				_, err := a.seq.switchPBP(dev)
				return err
			})
		},
	}
}

func (a *app) newPBPSwitch2Command() *cobra.Command {
	return &cobra.Command{
		Use:   "pbpswitch2 <device> <input>",
		Short: "LOGIC: Switches PBP mode on/off + selects input of the sub picture",
		Long: "Switches PBP mode on/off and, when it was switched on, selects the input of the sub picture.\n\n" +
			"Input source to set sub input to: " + strings.Join(ddc.PBPSubInputCommands.Choices(), ", "),
		Args: cobra.MatchAll(cobra.ExactArgs(2), validOptions(ddc.PBPSubInputCommands, 1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(args[0], func(dev ddc.Device) error {
				return a.seq.switchPBPWithSub(dev, args[1])
			})
		},
	}
}

func (a *app) newPBPSwapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pbpswap <device>",
		Short: "LOGIC: Swaps PBP video input source + USB input remains at the same video input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(args[0], func(dev ddc.Device) error {
				return a.seq.swapPBP(dev)
			})
		},
	}
}

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List displays with their index, device path and friendly name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			if a.platform.names == nil {
				return errFriendlyNameUnsupported
			}
			displays, err := a.platform.names.Displays()
			if err != nil {
				return errors.Wrap(err, "could not list displays")
			}
			for _, d := range displays {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", d.Index, d.DevicePath, d.FriendlyName)
			}
			return nil
		},
	}
}

func isSubcommand(root *cobra.Command, name string) bool {
	for _, cmd := range root.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return false
}

// flagTakesValue reports whether arg is a flag whose value is the next
// argument.
func flagTakesValue(root *cobra.Command, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	flags := root.PersistentFlags()
	var flag *pflag.Flag
	if strings.HasPrefix(arg, "--") {
		flag = flags.Lookup(arg[2:])
	} else if len(arg) == 2 {
		flag = flags.ShorthandLookup(arg[1:])
	}
	return flag != nil && flag.NoOptDefVal == ""
}

// deviceFirst rewrites `<device> <command> ...` into `<command> <device> ...`
// so both argument orders work.
func deviceFirst(root *cobra.Command, args []string) []string {
	var positions []int
	for i := 0; i < len(args) && len(positions) < 2; i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			if flagTakesValue(root, arg) {
				i++
			}
			continue
		}
		positions = append(positions, i)
	}
	if len(positions) < 2 {
		return args
	}
	device, command := args[positions[0]], args[positions[1]]
	if isSubcommand(root, device) || !isSubcommand(root, command) {
		return args
	}
	reordered := append([]string(nil), args...)
	reordered[positions[0]], reordered[positions[1]] = command, device
	return reordered
}

func main() {
	root := newRootCommand(newPlatform)
	root.SetArgs(deviceFirst(root, os.Args[1:]))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
